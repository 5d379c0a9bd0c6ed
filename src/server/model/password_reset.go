package models

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/utils"
)

// ResetTokenTTL is the lifetime of a password reset token
const ResetTokenTTL = 1 * time.Hour

// PasswordReset is a single-use reset token. Only the SHA-256 digest is
// stored; the raw token travels to the account holder once.
type PasswordReset struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	TokenHash string     `json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// PasswordResetModel handles reset token database operations
type PasswordResetModel struct {
	DB *sql.DB
}

// Create issues a reset token for a user and returns the raw token
func (m *PasswordResetModel) Create(ctx context.Context, userID int64) (string, error) {
	token, err := utils.GenerateResetToken()
	if err != nil {
		return "", err
	}

	expiresAt := time.Now().UTC().Add(ResetTokenTTL)

	_, err = database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		INSERT INTO password_resets (user_id, token_hash, expires_at)
		VALUES (?, ?, ?)
	`, userID, utils.HashResetToken(token), expiresAt)
	if err != nil {
		return "", fmt.Errorf("failed to create reset token: %w", err)
	}

	return token, nil
}

// Consume validates a raw token and burns it, returning the account it
// belongs to. Unknown or already-used tokens fail with INVALID_TOKEN,
// stale ones with TOKEN_EXPIRED.
func (m *PasswordResetModel) Consume(ctx context.Context, token string) (int64, error) {
	tokenHash := utils.HashResetToken(token)

	var userID int64
	err := database.WithTransaction(ctx, m.DB, func(tx *sql.Tx) error {
		var id int64
		var expiresAt time.Time
		var usedAt sql.NullTime

		err := tx.QueryRow(`
			SELECT id, user_id, expires_at, used_at
			FROM password_resets
			WHERE token_hash = ?
		`, tokenHash).Scan(&id, &userID, &expiresAt, &usedAt)
		if err == sql.ErrNoRows {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("failed to look up reset token: %w", err)
		}

		if usedAt.Valid {
			return ErrInvalidToken
		}
		if time.Now().UTC().After(expiresAt) {
			return ErrTokenExpired
		}

		if _, err := tx.Exec(
			`UPDATE password_resets SET used_at = CURRENT_TIMESTAMP WHERE id = ?`, id,
		); err != nil {
			return fmt.Errorf("failed to burn reset token: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return userID, nil
}

// DeleteExpired removes stale and used tokens, returning how many went
func (m *PasswordResetModel) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutBulk, `
		DELETE FROM password_resets
		WHERE expires_at < ? OR used_at IS NOT NULL
	`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge reset tokens: %w", err)
	}
	return result.RowsAffected()
}
