package handler

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

// imageExtensions maps the accepted content types to the extension the
// stored file gets
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UploadHandler stores avatar and trip-cover images under the upload
// directory and persists their relative paths. Only image types are
// accepted and files are capped at the configured size.
type UploadHandler struct {
	users  *models.UserModel
	trips  *services.TripService
	cfg    config.UploadConfig
	logger *utils.Logger
}

// NewUploadHandler creates the upload handler
func NewUploadHandler(users *models.UserModel, trips *services.TripService, cfg config.UploadConfig, logger *utils.Logger) *UploadHandler {
	return &UploadHandler{users: users, trips: trips, cfg: cfg, logger: logger}
}

// Avatar handles POST /api/upload/avatar
func (h *UploadHandler) Avatar(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	relPath, err := h.saveImage(c, "avatars")
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.users.UpdateAvatar(c.Request.Context(), user.ID, relPath); err != nil {
		h.removeStored(relPath)
		RespondError(c, err)
		return
	}

	h.logger.Audit(strconv.FormatInt(user.ID, 10), "upload_avatar", "user", "", relPath, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusCreated, gin.H{"avatar_path": relPath})
}

// TripCover handles POST /api/trips/:id/cover. Ownership is enforced
// by the trip service when the path is persisted.
func (h *UploadHandler) TripCover(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	tripID, err := ParamID(c, "id")
	if err != nil {
		RespondError(c, err)
		return
	}

	relPath, err := h.saveImage(c, "covers")
	if err != nil {
		RespondError(c, err)
		return
	}

	trip, err := h.trips.Update(c.Request.Context(), user, tripID, models.TripUpdate{CoverPhotoPath: &relPath})
	if err != nil {
		h.removeStored(relPath)
		RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"trip": trip})
}

// saveImage validates the multipart "file" field and writes it under
// the upload dir with a random name. Returns the relative path.
func (h *UploadHandler) saveImage(c *gin.Context, subdir string) (string, error) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		return "", models.ErrInvalidInput.WithMessage("multipart field 'file' is required")
	}
	defer file.Close()

	if header.Size > h.cfg.MaxSize {
		return "", models.ErrInvalidInput.WithMessage("file exceeds the %d byte limit", h.cfg.MaxSize)
	}

	ext, err := imageExtension(file, header)
	if err != nil {
		return "", err
	}

	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("failed to generate file name: %w", err)
	}
	name := hex.EncodeToString(raw[:]) + ext

	dir := filepath.Join(h.cfg.Dir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}

	dst, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(file, h.cfg.MaxSize+1)); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}

	return filepath.ToSlash(filepath.Join(subdir, name)), nil
}

// imageExtension sniffs the file's real content type; the client's
// declared type and filename are not trusted
func imageExtension(file multipart.File, header *multipart.FileHeader) (string, error) {
	var head [512]byte
	n, err := file.Read(head[:])
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}

	contentType := http.DetectContentType(head[:n])
	// DetectContentType cannot identify webp from every encoder; fall
	// back to the declared type for that one case
	if contentType == "application/octet-stream" && strings.EqualFold(filepath.Ext(header.Filename), ".webp") {
		contentType = header.Header.Get("Content-Type")
	}

	ext, ok := imageExtensions[contentType]
	if !ok {
		return "", models.ErrInvalidInput.WithMessage("unsupported file type %s: want jpeg, png, gif or webp", contentType)
	}
	return ext, nil
}

// removeStored best-effort deletes a stored file after a failed
// database write
func (h *UploadHandler) removeStored(relPath string) {
	if err := os.Remove(filepath.Join(h.cfg.Dir, filepath.FromSlash(relPath))); err != nil {
		h.logger.Warn("Failed to remove orphaned upload %s: %v", relPath, err)
	}
}
