package services

import (
	"context"
	"testing"

	"github.com/apimgr/tripplanner/src/server/model"
)

func TestAuthSignupAndLogin(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	result, err := env.auth.Signup(ctx, SignupInput{
		FullName: "New User",
		Email:    "Signup@Example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if result.Token == "" || result.RefreshToken == "" {
		t.Error("Signup must return a token pair")
	}
	if result.User.Email != "signup@example.com" {
		t.Errorf("Expected normalized email, got %s", result.User.Email)
	}

	// The issued access token identifies the account
	claims, err := env.tokens.VerifyAccess(result.Token)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Errorf("Expected token for user %d, got %d", result.User.ID, claims.UserID)
	}

	login, err := env.auth.Login(ctx, "signup@example.com", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if login.User.ID != result.User.ID {
		t.Errorf("Expected user %d, got %d", result.User.ID, login.User.ID)
	}
}

func TestAuthSignupValidation(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		input SignupInput
		want  *models.Error
	}{
		{"missing fields", SignupInput{}, models.ErrMissingFields},
		{"bad email", SignupInput{FullName: "A", Email: "not-an-email", Password: "secret123"}, models.ErrInvalidEmail},
		{"short password", SignupInput{FullName: "A", Email: "a@b.com", Password: "short"}, models.ErrInvalidPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Signup(ctx, tt.input)
			expectCode(t, err, tt.want)
		})
	}
}

func TestAuthSignupDuplicateEmail(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	input := SignupInput{FullName: "First", Email: "dup@example.com", Password: "secret123"}
	if _, err := env.auth.Signup(ctx, input); err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	_, err := env.auth.Signup(ctx, input)
	expectCode(t, err, models.ErrEmailExists)
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	env.createUser(t, "known@example.com")

	tests := []struct {
		name, email, password string
	}{
		{"wrong password", "known@example.com", "wrong-password"},
		{"unknown email", "ghost@example.com", "password123"},
		{"empty password", "known@example.com", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.auth.Login(ctx, tt.email, tt.password)
			expectCode(t, err, models.ErrInvalidCredentials)
		})
	}
}

func TestAuthRefresh(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	result, err := env.auth.Signup(ctx, SignupInput{FullName: "R", Email: "refresh@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}

	fresh, err := env.auth.Refresh(ctx, result.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if fresh.User.ID != result.User.ID {
		t.Errorf("Expected user %d, got %d", result.User.ID, fresh.User.ID)
	}

	// An access token is not a refresh token
	_, err = env.auth.Refresh(ctx, result.Token)
	expectCode(t, err, models.ErrInvalidToken)
}

func TestAuthChangePassword(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	user := env.createUser(t, "change@example.com")

	err := env.auth.ChangePassword(ctx, user.ID, "wrong", "newsecret1")
	expectCode(t, err, models.ErrInvalidCredentials)

	if err := env.auth.ChangePassword(ctx, user.ID, "password123", "newsecret1"); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if _, err := env.auth.Login(ctx, "change@example.com", "newsecret1"); err != nil {
		t.Errorf("Login with new password failed: %v", err)
	}
	_, err = env.auth.Login(ctx, "change@example.com", "password123")
	expectCode(t, err, models.ErrInvalidCredentials)
}

func TestAuthPasswordResetFlow(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	env.createUser(t, "forgot@example.com")

	// Unknown addresses yield no token but no error either
	token, err := env.auth.ForgotPassword(ctx, "ghost@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword for unknown address failed: %v", err)
	}
	if token != "" {
		t.Error("Unknown address must not yield a token")
	}

	token, err = env.auth.ForgotPassword(ctx, "forgot@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a reset token")
	}

	if err := env.auth.ResetPassword(ctx, token, "brandnew1"); err != nil {
		t.Fatalf("ResetPassword failed: %v", err)
	}
	if _, err := env.auth.Login(ctx, "forgot@example.com", "brandnew1"); err != nil {
		t.Errorf("Login after reset failed: %v", err)
	}

	// The token burned on use
	err = env.auth.ResetPassword(ctx, token, "another123")
	expectCode(t, err, models.ErrInvalidToken)
}
