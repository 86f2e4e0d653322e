// Package config holds configuration for the journal MCP analytics
// server.
package config

import (
	"fmt"
	"os"
)

// MaxRowsAbsolute is the hard cap on rows any query may return,
// regardless of configuration.
const MaxRowsAbsolute = 5000

// Config holds all configuration for the MCP analytics server.
type Config struct {
	Addr             string   `json:"addr"`
	DBPath           string   `json:"dbPath"`
	MaxRows          int      `json:"maxRows"`
	QueryLogging     bool     `json:"queryLogging"`
	StrictValidation bool     `json:"strictValidation"`
	AllowedOrigins   []string `json:"allowedOrigins"`
	LogLevel         string   `json:"logLevel"`
	Debug            bool     `json:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults. The
// database path has no default; it must come from the environment or
// a flag.
func DefaultConfig() *Config {
	return &Config{
		Addr:             ":8090",
		MaxRows:          1000,
		QueryLogging:     false,
		StrictValidation: true,
		AllowedOrigins:   []string{},
		LogLevel:         "info",
		Debug:            false,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return ErrMissingDBPath
	}

	info, err := os.Stat(c.DBPath)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrDBNotFound, c.DBPath)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s", ErrDBNotAFile, c.DBPath)
	}

	if c.MaxRows < 1 {
		return ErrMaxRowsTooSmall
	}
	if c.MaxRows > MaxRowsAbsolute {
		return fmt.Errorf("%w: %d > %d", ErrMaxRowsTooLarge, c.MaxRows, MaxRowsAbsolute)
	}

	return nil
}
