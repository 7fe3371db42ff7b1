package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for minerscout.
type Config struct {
	// Scan
	Jobs      int
	User      string
	Port      int
	Passwords string // credential table path, empty = built-in defaults
	DB        string // inventory database path, empty = no persistence

	// Listen
	ListenPort int
	Format     string

	// Logging
	LogLevel string
}

// DefaultConfig returns configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Jobs:       50,
		User:       "root",
		Port:       22,
		ListenPort: 14235,
		Format:     "{IP} ({MAC})",
		LogLevel:   "info",
	}
}

// LoadConfig loads configuration from .env file and environment variables.
func LoadConfig() *Config {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if v := os.Getenv("MINERSCOUT_JOBS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Jobs = n
		}
	}
	if v := os.Getenv("MINERSCOUT_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("MINERSCOUT_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Port = n
		}
	}
	if v := os.Getenv("MINERSCOUT_PASSWORDS"); v != "" {
		cfg.Passwords = v
	}
	if v := os.Getenv("MINERSCOUT_DB"); v != "" {
		cfg.DB = v
	}
	if v := os.Getenv("MINERSCOUT_LISTEN_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ListenPort = n
		}
	}
	if v := os.Getenv("MINERSCOUT_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("MINERSCOUT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	return cfg
}
