package models

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/apimgr/tripplanner/src/database"
	"github.com/apimgr/tripplanner/src/utils"
)

// Account roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a registered account
type User struct {
	ID           int64      `json:"id"`
	Email        string     `json:"email"`
	FullName     string     `json:"full_name"`
	PasswordHash string     `json:"-"`
	AvatarPath   string     `json:"avatar_path,omitempty"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// IsAdmin reports whether the account carries the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// DayCount is one bucket of a per-day aggregate
type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// UserModel handles user database operations
type UserModel struct {
	DB *sql.DB
}

const userColumns = `id, email, full_name, password_hash, avatar_path, role, created_at, last_login`

// scanUser reads one user row
func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	var user User
	var avatarPath sql.NullString
	var lastLogin sql.NullTime

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&avatarPath,
		&user.Role,
		&user.CreatedAt,
		&lastLogin,
	)
	if err != nil {
		return nil, err
	}

	if avatarPath.Valid {
		user.AvatarPath = avatarPath.String
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}

	return &user, nil
}

// Create creates a new user account. The email is stored lowercased so
// uniqueness is case-insensitive.
func (m *UserModel) Create(ctx context.Context, email, fullName, password string, role ...string) (*User, error) {
	userRole := RoleUser
	if len(role) > 0 && role[0] != "" {
		userRole = role[0]
	}

	email = utils.NormalizeEmail(email)

	passwordHash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite, `
		INSERT INTO users (email, full_name, password_hash, role)
		VALUES (?, ?, ?, ?)
	`, email, fullName, passwordHash, userRole)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	userID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get user ID: %w", err)
	}

	return m.GetByID(ctx, userID)
}

// GetByID retrieves a user by ID
func (m *UserModel) GetByID(ctx context.Context, id int64) (*User, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email (lookup is case-insensitive)
func (m *UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	row := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, utils.NormalizeEmail(email))

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// EmailExists reports whether an address is already registered
func (m *UserModel) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM users WHERE email = ?`, utils.NormalizeEmail(email)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// userSortColumns is the allow-list for admin list sorting
var userSortColumns = map[string]string{
	"created_at": "created_at",
	"email":      "email",
	"full_name":  "full_name",
	"last_login": "last_login",
	"role":       "role",
}

// List retrieves users for the admin panel with optional search and
// allow-listed sorting
func (m *UserModel) List(ctx context.Context, search, sortBy, order string, limit, offset int) ([]*User, error) {
	column, ok := userSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(order, "asc") {
		direction = "ASC"
	}

	query := `SELECT ` + userColumns + ` FROM users`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE email LIKE ? OR full_name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY ` + column + ` ` + direction + ` LIMIT ? OFFSET ?`
	args = append(args, limit, offset)

	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// Count returns the number of users matching the optional search
func (m *UserModel) Count(ctx context.Context, search string) (int, error) {
	query := `SELECT COUNT(*) FROM users`
	args := []interface{}{}
	if search != "" {
		query += ` WHERE email LIKE ? OR full_name LIKE ?`
		pattern := "%" + search + "%"
		args = append(args, pattern, pattern)
	}

	var count int
	if err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// CountByRole returns the number of users holding a role
func (m *UserModel) CountByRole(ctx context.Context, role string) (int, error) {
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users by role: %w", err)
	}
	return count, nil
}

// CountActiveSince returns users who logged in within the last N days
func (m *UserModel) CountActiveSince(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM users WHERE last_login >= ?`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active users: %w", err)
	}
	return count, nil
}

// CountNewSince returns users registered within the last N days
func (m *UserModel) CountNewSince(ctx context.Context, days int) (int, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	var count int
	err := database.QueryRowContext(ctx, m.DB, database.TimeoutSimpleSelect,
		`SELECT COUNT(*) FROM users WHERE created_at >= ?`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count new users: %w", err)
	}
	return count, nil
}

// GrowthByMonth returns per-month signup counts for the last N months
func (m *UserModel) GrowthByMonth(ctx context.Context, months int) ([]MonthCount, error) {
	cutoff := time.Now().AddDate(0, -months, 0)
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT SUBSTR(DATE(created_at), 1, 7) AS month, COUNT(*)
		FROM users
		WHERE created_at >= ?
		GROUP BY month
		ORDER BY month
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query user growth: %w", err)
	}
	defer rows.Close()

	var buckets []MonthCount
	for rows.Next() {
		var bucket MonthCount
		if err := rows.Scan(&bucket.Month, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan month bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

// Recent returns the newest accounts
func (m *UserModel) Recent(ctx context.Context, limit int) ([]*User, error) {
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// RegistrationsByDay returns per-day signup counts for the last N days
func (m *UserModel) RegistrationsByDay(ctx context.Context, days int) ([]DayCount, error) {
	cutoff := time.Now().AddDate(0, 0, -days)
	rows, err := database.QueryContext(ctx, m.DB, database.TimeoutComplexSelect, `
		SELECT DATE(created_at) AS day, COUNT(*)
		FROM users
		WHERE created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY day
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations: %w", err)
	}
	defer rows.Close()

	var buckets []DayCount
	for rows.Next() {
		var bucket DayCount
		if err := rows.Scan(&bucket.Date, &bucket.Count); err != nil {
			return nil, fmt.Errorf("failed to scan registration bucket: %w", err)
		}
		buckets = append(buckets, bucket)
	}
	return buckets, rows.Err()
}

// UpdateProfile updates display name and/or email. Nil fields keep their
// current value. A conflicting email fails with EMAIL_EXISTS.
func (m *UserModel) UpdateProfile(ctx context.Context, id int64, fullName, email *string) error {
	sets := []string{}
	args := []interface{}{}

	if fullName != nil {
		sets = append(sets, "full_name = ?")
		args = append(args, *fullName)
	}
	if email != nil {
		sets = append(sets, "email = ?")
		args = append(args, utils.NormalizeEmail(*email))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateRole changes the account role
func (m *UserModel) UpdateRole(ctx context.Context, id int64, role string) error {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE users SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return fmt.Errorf("failed to update role: %w", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateAvatar stores the relative path of an uploaded avatar
func (m *UserModel) UpdateAvatar(ctx context.Context, id int64, path string) error {
	_, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE users SET avatar_path = ? WHERE id = ?`, path, id)
	if err != nil {
		return fmt.Errorf("failed to update avatar: %w", err)
	}
	return nil
}

// UpdatePassword re-hashes and stores a new password
func (m *UserModel) UpdatePassword(ctx context.Context, id int64, newPassword string) error {
	passwordHash, err := utils.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// UpdateLastLogin stamps a successful login
func (m *UserModel) UpdateLastLogin(ctx context.Context, id int64) error {
	_, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// Delete removes an account. Owned trips and their children go with it.
func (m *UserModel) Delete(ctx context.Context, id int64) error {
	result, err := database.ExecContext(ctx, m.DB, database.TimeoutWrite,
		`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// VerifyCredentials checks email/password and returns the account
func (m *UserModel) VerifyCredentials(ctx context.Context, email, password string) (*User, error) {
	user, err := m.GetByEmail(ctx, email)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	valid, err := utils.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}
