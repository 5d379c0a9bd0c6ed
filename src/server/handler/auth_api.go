package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/apimgr/tripplanner/src/server/metrics"
	"github.com/apimgr/tripplanner/src/server/middleware"
	"github.com/apimgr/tripplanner/src/server/service"
	"github.com/apimgr/tripplanner/src/utils"
)

// AuthHandler exposes signup, login and account endpoints
type AuthHandler struct {
	auth   *services.AuthService
	logger *utils.Logger
}

// NewAuthHandler creates the auth handler
func NewAuthHandler(auth *services.AuthService, logger *utils.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type signupRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type profileUpdateRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// Signup handles POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), services.SignupInput{
		FullName: req.FullName,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		metrics.RecordAuthAttempt("signup", "failure")
		RespondError(c, err)
		return
	}

	metrics.RecordAuthAttempt("signup", "success")
	h.logger.Audit(strconv.FormatInt(result.User.ID, 10), "signup", "user", "", result.User.Email, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusCreated, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		metrics.RecordAuthAttempt("login", "failure")
		h.logger.Security(c.ClientIP(), "login_failed", req.Email)
		RespondError(c, err)
		return
	}

	metrics.RecordAuthAttempt("login", "success")
	c.JSON(http.StatusOK, result)
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Profile handles GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	profile, err := h.auth.Profile(c.Request.Context(), user.ID)
	if err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": profile})
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, services.ProfileUpdate{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		RespondError(c, err)
		return
	}

	h.logger.Audit(strconv.FormatInt(user.ID, 10), "update_profile", "user", user.Email, updated.Email, c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := middleware.MustCurrentUser(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	if err := h.auth.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		h.logger.Audit(strconv.FormatInt(user.ID, 10), "change_password", "user", "", "", c.ClientIP(), c.Request.UserAgent(), false, err.Error())
		RespondError(c, err)
		return
	}

	h.logger.Audit(strconv.FormatInt(user.ID, 10), "change_password", "user", "", "", c.ClientIP(), c.Request.UserAgent(), true, "")
	c.JSON(http.StatusOK, statusOK("Password changed"))
}

// ForgotPassword handles POST /api/auth/forgot-password. The response
// is identical whether or not the email names an account; when it does,
// the reset token rides along for out-of-band delivery.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	token, err := h.auth.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		RespondError(c, err)
		return
	}

	body := gin.H{"message": "If that email is registered, a reset token has been issued"}
	if token != "" {
		body["reset_token"] = token
	}
	c.JSON(http.StatusOK, body)
}

// ResetPassword handles POST /api/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBindError(c, err)
		return
	}

	if err := h.auth.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, statusOK("Password reset"))
}

// Verify handles GET /api/auth/verify: echoes the identity the token
// resolved to
func (h *AuthHandler) Verify(c *gin.Context) {
	user := middleware.MustCurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"user":  user,
	})
}

// Logout handles POST /api/auth/logout. Tokens are stateless, so this
// only acknowledges; clients drop their copies.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, statusOK("Logged out"))
}
