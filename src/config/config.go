// Package config handles application configuration from environment and server.yml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Mode Mode
	Port int

	Database DatabaseConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Uploads  UploadConfig
	Cache    CacheConfig

	LogDir string

	// Optional bootstrap admin account, created on first run when set
	AdminEmail    string
	AdminPassword string

	Branding BrandingConfig
}

// DatabaseConfig holds connection settings for the relational store
type DatabaseConfig struct {
	// sqlite, postgres, mysql, mariadb, mssql
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Configured reports whether enough settings are present to open a database.
// An unconfigured database is not fatal: the server still answers health
// checks while every data operation fails with DATABASE_UNCONFIGURED.
func (d DatabaseConfig) Configured() bool {
	if d.Type == "sqlite" {
		return d.Name != ""
	}
	return d.Host != "" && d.Name != ""
}

// JWTConfig holds bearer-token settings
type JWTConfig struct {
	Secret        string
	RefreshSecret string
	TTL           time.Duration
	RefreshTTL    time.Duration
}

// CORSConfig holds cross-origin settings
type CORSConfig struct {
	Origin string
}

// UploadConfig holds file-upload settings
type UploadConfig struct {
	Dir     string
	MaxSize int64
}

// CacheConfig holds optional Redis/Valkey settings
type CacheConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

// BrandingConfig represents branding overrides from server.yml
type BrandingConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// fileConfig is the subset of settings readable from server.yml
type fileConfig struct {
	Mode   string `yaml:"mode"`
	Server struct {
		Branding BrandingConfig `yaml:"branding"`
	} `yaml:"server"`
}

// Load builds the configuration from .env, environment variables and an
// optional server.yml. Environment always wins over the file.
func Load() (*Config, error) {
	// Best effort: a missing .env is not an error
	_ = godotenv.Load()

	cfg := &Config{
		Mode:   DetectMode(modeEnv()),
		Port:   envInt("PORT", 3000),
		LogDir: envString("LOG_DIR", "logs"),
		Database: DatabaseConfig{
			Type:     envString("DB_TYPE", "sqlite"),
			Host:     os.Getenv("DB_HOST"),
			Port:     envInt("DB_PORT", 5432),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  envString("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			RefreshSecret: os.Getenv("JWT_REFRESH_SECRET"),
			TTL:           envDuration("JWT_EXPIRES_IN", 24*time.Hour),
			RefreshTTL:    envDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			Origin: envString("CORS_ORIGIN", "*"),
		},
		Uploads: UploadConfig{
			Dir:     envString("UPLOAD_DIR", "uploads"),
			MaxSize: envInt64("MAX_FILE_SIZE", 5<<20),
		},
		Cache: CacheConfig{
			Enabled:  IsTruthy(os.Getenv("CACHE_ENABLED")),
			Host:     envString("CACHE_HOST", "localhost"),
			Port:     envString("CACHE_PORT", "6379"),
			Password: os.Getenv("CACHE_PASSWORD"),
			DB:       envInt("CACHE_DB", 0),
		},
		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
		Branding: BrandingConfig{
			Title:       "Trip Planner",
			Description: "Multi-user trip and itinerary planning service",
		},
	}

	if path := findConfigFile(); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	if cfg.JWT.Secret == "" {
		if cfg.Mode == ModeProduction {
			return nil, fmt.Errorf("JWT_SECRET is required in production mode")
		}
		cfg.JWT.Secret = "tripplanner-dev-secret"
	}
	if cfg.JWT.RefreshSecret == "" {
		cfg.JWT.RefreshSecret = cfg.JWT.Secret + "-refresh"
	}

	return cfg, nil
}

// modeEnv reads MODE with NODE_ENV honored as a legacy alias
func modeEnv() string {
	if v := os.Getenv("MODE"); v != "" {
		return v
	}
	return os.Getenv("NODE_ENV")
}

// applyFile merges server.yml values that the environment did not set
func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return err
	}

	if modeEnv() == "" && fc.Mode != "" {
		c.Mode = DetectMode(fc.Mode)
	}
	if fc.Server.Branding.Title != "" {
		c.Branding.Title = fc.Server.Branding.Title
	}
	if fc.Server.Branding.Description != "" {
		c.Branding.Description = fc.Server.Branding.Description
	}

	return nil
}

// findConfigFile searches for server.yml in common locations
func findConfigFile() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	searchPaths := []string{
		filepath.Join(cwd, "server.yml"),
		filepath.Join(cwd, "../server.yml"),
		"/etc/tripplanner/server.yml",
		"/opt/tripplanner/server.yml",
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

// envDuration parses "24h", "30m" or a bare number of seconds ("86400")
func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
