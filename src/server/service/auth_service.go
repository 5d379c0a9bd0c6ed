package services

import (
	"context"
	"strings"

	"github.com/apimgr/tripplanner/src/server/model"
	"github.com/apimgr/tripplanner/src/utils"
)

// AuthResult bundles an authenticated user with its token pair
type AuthResult struct {
	User         *models.User `json:"user"`
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
}

// SignupInput carries the fields accepted at registration
type SignupInput struct {
	FullName   string
	Email      string
	Password   string
	AvatarPath string
}

// ProfileUpdate carries the fields a user may change on their own account
type ProfileUpdate struct {
	FullName *string
	Email    *string
}

// AuthService implements signup, login, profile access and credential
// recovery. Per-resource authorization lives in the domain services; this
// service only ever acts on the calling user's own account.
type AuthService struct {
	users  *models.UserModel
	resets *models.PasswordResetModel
	tokens *TokenService
	logger *utils.Logger
}

// NewAuthService creates the auth service
func NewAuthService(users *models.UserModel, resets *models.PasswordResetModel, tokens *TokenService, logger *utils.Logger) *AuthService {
	return &AuthService{
		users:  users,
		resets: resets,
		tokens: tokens,
		logger: logger,
	}
}

// Signup registers a new account and signs it in
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Email = utils.NormalizeEmail(input.Email)

	var missing []models.FieldError
	if input.FullName == "" {
		missing = append(missing, models.FieldError{Field: "full_name", Message: "full_name is required"})
	}
	if input.Email == "" {
		missing = append(missing, models.FieldError{Field: "email", Message: "email is required"})
	}
	if input.Password == "" {
		missing = append(missing, models.FieldError{Field: "password", Message: "password is required"})
	}
	if len(missing) > 0 {
		return nil, models.ErrMissingFields.WithDetails(missing...)
	}

	if err := utils.ValidateEmail(input.Email); err != nil {
		return nil, models.ErrInvalidEmail
	}
	if err := utils.ValidatePassword(input.Password); err != nil {
		return nil, models.ErrInvalidPassword.WithMessage("%s", err.Error())
	}

	user, err := s.users.Create(ctx, input.Email, input.FullName, input.Password)
	if err != nil {
		return nil, err
	}

	if input.AvatarPath != "" {
		if err := s.users.UpdateAvatar(ctx, user.ID, input.AvatarPath); err == nil {
			user.AvatarPath = input.AvatarPath
		}
	}

	s.logger.Info("New user registered: %s (id=%d)", user.Email, user.ID)
	return s.issueTokens(user)
}

// Login verifies credentials and signs the user in. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, models.ErrInvalidCredentials
	}

	user, err := s.users.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("Failed to update last_login for user %d: %v", user.ID, err)
	}

	return s.issueTokens(user)
}

// Refresh exchanges a valid refresh token for a fresh token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if models.IsNotFound(err) {
			return nil, models.ErrTokenUserNotFound
		}
		return nil, err
	}

	return s.issueTokens(user)
}

// Profile returns the account behind a verified token
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile changes the caller's own name or email
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (*models.User, error) {
	if update.FullName == nil && update.Email == nil {
		return nil, models.ErrMissingFields.WithMessage("nothing to update")
	}

	if update.FullName != nil {
		trimmed := strings.TrimSpace(*update.FullName)
		if trimmed == "" {
			return nil, models.NewValidationError(models.FieldError{Field: "full_name", Message: "full_name cannot be empty"})
		}
		update.FullName = &trimmed
	}
	if update.Email != nil {
		normalized := utils.NormalizeEmail(*update.Email)
		if err := utils.ValidateEmail(normalized); err != nil {
			return nil, models.ErrInvalidEmail
		}
		update.Email = &normalized
	}

	if err := s.users.UpdateProfile(ctx, userID, update.FullName, update.Email); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// ChangePassword replaces the caller's password after verifying the
// current one
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if valid, err := utils.VerifyPassword(currentPassword, user.PasswordHash); err != nil || !valid {
		return models.ErrInvalidCredentials
	}

	if err := utils.ValidatePassword(newPassword); err != nil {
		return models.ErrInvalidPassword.WithMessage("%s", err.Error())
	}

	return s.users.UpdatePassword(ctx, userID, newPassword)
}

// ForgotPassword starts a password reset. The response never reveals
// whether the address is registered; when it is, a single-use reset token
// is created and returned for out-of-band delivery.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = utils.NormalizeEmail(email)
	if err := utils.ValidateEmail(email); err != nil {
		return "", models.ErrInvalidEmail
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if models.IsNotFound(err) {
			// Same outcome as success, minus the token
			return "", nil
		}
		return "", err
	}

	token, err := s.resets.Create(ctx, user.ID)
	if err != nil {
		return "", err
	}

	s.logger.Info("Password reset requested for user %d", user.ID)
	return token, nil
}

// ResetPassword consumes a single-use reset token and sets a new password
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return models.ErrMissingToken
	}
	if err := utils.ValidatePassword(newPassword); err != nil {
		return models.ErrInvalidPassword.WithMessage("%s", err.Error())
	}

	userID, err := s.resets.Consume(ctx, token)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, userID, newPassword); err != nil {
		return err
	}

	s.logger.Info("Password reset completed for user %d", userID)
	return nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.IssueAccess(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefresh(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token, RefreshToken: refresh}, nil
}
