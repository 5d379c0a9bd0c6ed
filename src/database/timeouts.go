package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Query timeout constants. Every query goes through one of the helpers
// below so nothing can hold a connection forever.
const (
	TimeoutSimpleSelect  = 5 * time.Second
	TimeoutComplexSelect = 15 * time.Second
	TimeoutWrite         = 10 * time.Second
	TimeoutBulk          = 60 * time.Second
	TimeoutTransaction   = 30 * time.Second
	TimeoutPing          = 5 * time.Second
)

// PoolConfig holds connection pool settings
type PoolConfig struct {
	MaxOpen     int
	MaxIdle     int
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// DefaultPoolConfig returns pool settings for a single-node deployment
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpen:     20,
		MaxIdle:     5,
		MaxLifetime: 5 * time.Minute,
		MaxIdleTime: 1 * time.Minute,
	}
}

// ApplyPoolConfig applies pool configuration to database
func ApplyPoolConfig(db *sql.DB, cfg PoolConfig) {
	db.SetMaxOpenConns(cfg.MaxOpen)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.MaxLifetime)
	db.SetConnMaxIdleTime(cfg.MaxIdleTime)
}

// QueryRowContext executes a query with timeout and returns a single row
func QueryRowContext(ctx context.Context, db *sql.DB, timeout time.Duration, query string, args ...interface{}) *sql.Row {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.QueryRowContext(ctx, query, args...)
}

// QueryContext executes a query with timeout and returns rows
func QueryContext(ctx context.Context, db *sql.DB, timeout time.Duration, query string, args ...interface{}) (*sql.Rows, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.QueryContext(ctx, query, args...)
}

// ExecContext executes a statement with timeout
func ExecContext(ctx context.Context, db *sql.DB, timeout time.Duration, query string, args ...interface{}) (sql.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return db.ExecContext(ctx, query, args...)
}

// WithTimeout creates a context with the specified timeout
func WithTimeout(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// WithTransaction executes fn inside a transaction. The transaction is
// rolled back when fn returns an error and committed otherwise.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	ctx, cancel := context.WithTimeout(ctx, TimeoutTransaction)
	defer cancel()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// PingWithTimeout tests database connection with timeout
func PingWithTimeout(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), TimeoutPing)
	defer cancel()
	return db.PingContext(ctx)
}
