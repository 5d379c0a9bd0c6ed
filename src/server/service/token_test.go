package services

import (
	"testing"
	"time"

	"github.com/apimgr/tripplanner/src/config"
	"github.com/apimgr/tripplanner/src/server/model"
)

func newTestTokens(ttl, refreshTTL time.Duration) *TokenService {
	return NewTokenService(config.JWTConfig{
		Secret:        "unit-access-secret",
		RefreshSecret: "unit-refresh-secret",
		TTL:           ttl,
		RefreshTTL:    refreshTTL,
	})
}

func TestTokenRoundtrip(t *testing.T) {
	tokens := newTestTokens(time.Hour, 24*time.Hour)
	user := &models.User{ID: 42, Email: "claims@example.com"}

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	claims, err := tokens.VerifyAccess(access)
	if err != nil {
		t.Fatalf("VerifyAccess failed: %v", err)
	}
	if claims.UserID != 42 {
		t.Errorf("Expected user 42, got %d", claims.UserID)
	}
	if claims.Email != "claims@example.com" {
		t.Errorf("Expected claims@example.com, got %s", claims.Email)
	}
}

func TestTokenTampered(t *testing.T) {
	tokens := newTestTokens(time.Hour, 24*time.Hour)
	user := &models.User{ID: 1, Email: "tamper@example.com"}

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	tampered := access[:len(access)-2] + "xx"
	_, err = tokens.VerifyAccess(tampered)
	expectCode(t, err, models.ErrInvalidToken)

	_, err = tokens.VerifyAccess("not-a-jwt")
	expectCode(t, err, models.ErrInvalidToken)
}

func TestTokenExpired(t *testing.T) {
	tokens := newTestTokens(-time.Minute, 24*time.Hour)
	user := &models.User{ID: 1, Email: "expired@example.com"}

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	_, err = tokens.VerifyAccess(access)
	expectCode(t, err, models.ErrTokenExpired)
}

func TestRefreshTokenRejectedOnAccessPath(t *testing.T) {
	tokens := newTestTokens(time.Hour, 24*time.Hour)
	user := &models.User{ID: 7, Email: "refresh@example.com"}

	refresh, err := tokens.IssueRefresh(user)
	if err != nil {
		t.Fatalf("IssueRefresh failed: %v", err)
	}

	// Distinct secrets: a refresh token never verifies as access
	_, err = tokens.VerifyAccess(refresh)
	expectCode(t, err, models.ErrInvalidToken)

	// But it passes on the refresh path
	claims, err := tokens.VerifyRefresh(refresh)
	if err != nil {
		t.Fatalf("VerifyRefresh failed: %v", err)
	}
	if claims.UserID != 7 {
		t.Errorf("Expected user 7, got %d", claims.UserID)
	}
}

func TestAccessTokenRejectedOnRefreshPath(t *testing.T) {
	tokens := newTestTokens(time.Hour, 24*time.Hour)
	user := &models.User{ID: 7, Email: "swap@example.com"}

	access, err := tokens.IssueAccess(user)
	if err != nil {
		t.Fatalf("IssueAccess failed: %v", err)
	}

	_, err = tokens.VerifyRefresh(access)
	expectCode(t, err, models.ErrInvalidToken)
}
