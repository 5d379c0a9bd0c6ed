package models

import (
	"context"
	"testing"
	"time"
)

func TestPasswordResetRoundtrip(t *testing.T) {
	db := setupTestDB(t)
	m := &PasswordResetModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "reset@example.com")

	token, err := m.Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if token == "" {
		t.Fatal("Expected a raw token")
	}

	// Only the digest is stored
	var stored int
	if err := db.QueryRow("SELECT COUNT(*) FROM password_resets WHERE token_hash = ?", token).Scan(&stored); err != nil {
		t.Fatalf("Failed to query resets: %v", err)
	}
	if stored != 0 {
		t.Error("Raw token must never be stored")
	}

	userID, err := m.Consume(ctx, token)
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if userID != user.ID {
		t.Errorf("Expected user %d, got %d", user.ID, userID)
	}

	// Tokens are single-use
	_, err = m.Consume(ctx, token)
	expectCode(t, err, ErrInvalidToken)
}

func TestPasswordResetUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	m := &PasswordResetModel{DB: db}

	_, err := m.Consume(context.Background(), "never-issued")
	expectCode(t, err, ErrInvalidToken)
}

func TestPasswordResetExpiry(t *testing.T) {
	db := setupTestDB(t)
	m := &PasswordResetModel{DB: db}
	ctx := context.Background()

	user := createTestUser(t, db, "expired@example.com")
	token, err := m.Create(ctx, user.ID)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Backdate the token past its lifetime
	stale := time.Now().UTC().Add(-time.Minute)
	if _, err := db.Exec("UPDATE password_resets SET expires_at = ? WHERE user_id = ?", stale, user.ID); err != nil {
		t.Fatalf("Failed to backdate token: %v", err)
	}

	_, err = m.Consume(ctx, token)
	expectCode(t, err, ErrTokenExpired)

	deleted, err := m.DeleteExpired(ctx)
	if err != nil {
		t.Fatalf("DeleteExpired failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 purged token, got %d", deleted)
	}
}
