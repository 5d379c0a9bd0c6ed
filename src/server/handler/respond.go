// Package handler wires the HTTP surface to the domain services
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/server/model"
)

// RespondError writes the domain error mapped from err. Non-domain
// errors surface as DATABASE_ERROR without leaking internals.
func RespondError(c *gin.Context, err error) {
	domainErr := models.AsError(err)
	c.JSON(domainErr.Status, domainErr)
}

// RespondBindError turns a JSON binding failure into INVALID_INPUT
func RespondBindError(c *gin.Context, err error) {
	RespondError(c, models.ErrInvalidInput.WithMessage("invalid request body: %s", err.Error()))
}

// Pagination carries list metadata
type Pagination struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

// ParamID reads a numeric path parameter
func ParamID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, models.ErrInvalidInput.WithMessage("%s must be a positive integer", name)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter
func QueryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// QueryFloat reads an optional float query parameter
func QueryFloat(c *gin.Context, name string) *float64 {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &value
}

// clampPage normalizes limit/offset to sane bounds
func clampPage(limit, offset, defLimit, maxLimit int) (int, int) {
	if limit <= 0 {
		limit = defLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// requestBaseURL reconstructs the scheme://host prefix of the request,
// honoring proxy forwarding headers
func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}

// statusOK is the bare acknowledgment body for delete-style endpoints
func statusOK(message string) gin.H {
	return gin.H{"message": message}
}
