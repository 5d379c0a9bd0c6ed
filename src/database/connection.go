// Package database provides the relational connection, schema and query helpers
package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/apimgr/tripplanner/src/config"
)

// DB wraps the shared sql.DB pool
type DB struct {
	*sql.DB
}

// Connect opens the configured database, applies the pool settings and
// ensures the schema exists. Supported types: sqlite (default), postgres,
// mysql/mariadb, mssql.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var dsn string
	var driver string

	switch strings.ToLower(cfg.Type) {
	case "", "sqlite":
		driver = "sqlite"
		if cfg.Name == "" {
			return nil, fmt.Errorf("database path required for SQLite")
		}
		dsn = cfg.Name

	case "postgres", "postgresql":
		driver = "pgx"
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode)

	case "mysql", "mariadb":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)

	case "mssql", "sqlserver":
		driver = "mssql"
		dsn = fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s;encrypt=disable",
			cfg.Host, cfg.Port, cfg.Name, cfg.User, cfg.Password)

	default:
		return nil, fmt.Errorf("unsupported database type: %s. Supported: sqlite, postgres, mysql, mariadb, mssql", cfg.Type)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ApplyPoolConfig(db, DefaultPoolConfig())

	if err := PingWithTimeout(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
		if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := EnsureSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// EnsureSchema creates the schema on a fresh database and records the
// schema version. Existing databases with an older version run migrations.
func EnsureSchema(db *sql.DB) error {
	if _, err := db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var currentVersion int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to check schema version: %w", err)
	}

	if currentVersion == 0 {
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion); err != nil {
			return fmt.Errorf("failed to insert schema version: %w", err)
		}
		return nil
	}

	if currentVersion < SchemaVersion {
		if err := runMigrations(db, currentVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return nil
}

// runMigrations applies incremental schema changes from the given version
func runMigrations(db *sql.DB, fromVersion int) error {
	for v := fromVersion + 1; v <= SchemaVersion; v++ {
		stmts, ok := migrations[v]
		if !ok {
			continue
		}
		for _, stmt := range stmts {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("migration to version %d failed: %w", v, err)
			}
		}
		if _, err := db.Exec("INSERT INTO schema_version (version) VALUES (?)", v); err != nil {
			return fmt.Errorf("failed to record schema version %d: %w", v, err)
		}
	}
	return nil
}

// IsFirstRun reports whether any user account exists yet
func (d *DB) IsFirstRun() (bool, error) {
	var count int
	if err := d.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check first run status: %w", err)
	}
	return count == 0, nil
}

// Stats returns pool statistics for health reporting
func (d *DB) Stats() sql.DBStats {
	return d.DB.Stats()
}

// WaitReady pings the database until it answers or the deadline passes.
// Useful when the database container starts alongside the service.
func (d *DB) WaitReady(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if err := PingWithTimeout(d.DB); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("database not ready after %s", timeout)
		}
		time.Sleep(500 * time.Millisecond)
	}
}
