package config

import "errors"

var (
	// ErrMissingDBPath indicates that no database path is configured
	ErrMissingDBPath = errors.New("database path is required (set JOURNAL_DB_PATH)")

	// ErrDBNotFound indicates that the database file does not exist
	ErrDBNotFound = errors.New("database file not found")

	// ErrDBNotAFile indicates that the database path is not a regular file
	ErrDBNotAFile = errors.New("database path is not a file")

	// ErrMaxRowsTooSmall indicates that maxRows is below the minimum
	ErrMaxRowsTooSmall = errors.New("maxRows must be at least 1")

	// ErrMaxRowsTooLarge indicates that maxRows exceeds the absolute cap
	ErrMaxRowsTooLarge = errors.New("maxRows exceeds the absolute cap")
)
