package config

import (
	"os"
	"strconv"
	"strings"
)

// LoadFromEnvironment creates a configuration from defaults plus
// environment variable overrides. Validation is deferred so CLI flag
// overrides can be applied first; call Validate() after.
func LoadFromEnvironment() *Config {
	cfg := DefaultConfig()
	applyEnvironmentOverrides(cfg)
	return cfg
}

// applyEnvironmentOverrides applies configuration from environment variables.
func applyEnvironmentOverrides(cfg *Config) {
	if addr := os.Getenv("MCP_ADDR"); addr != "" {
		cfg.Addr = addr
	}

	if dbPath := os.Getenv("JOURNAL_DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if maxRows := os.Getenv("MCP_MAX_ROWS"); maxRows != "" {
		if n, err := strconv.Atoi(maxRows); err == nil {
			cfg.MaxRows = n
		}
	}

	if v := os.Getenv("MCP_QUERY_LOGGING"); v == "true" || v == "1" {
		cfg.QueryLogging = true
	}

	// Strict validation defaults on; only an explicit false disables it.
	if v := os.Getenv("MCP_STRICT_VALIDATION"); v == "false" || v == "0" {
		cfg.StrictValidation = false
	}

	if v := os.Getenv("MCP_DEBUG"); v == "true" || v == "1" {
		cfg.Debug = true
	}

	if logLevel := os.Getenv("MCP_LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Allowed origins (comma-separated list)
	if allowedOrigins := os.Getenv("MCP_ALLOWED_ORIGINS"); allowedOrigins != "" {
		origins := strings.Split(allowedOrigins, ",")
		cfg.AllowedOrigins = make([]string, 0, len(origins))
		for _, origin := range origins {
			trimmed := strings.TrimSpace(origin)
			if trimmed != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
			}
		}
	}
}
