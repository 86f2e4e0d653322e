package tools

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// ToolContext provides shared resources for tool handlers: the
// read-only database handle and the query safety configuration.
type ToolContext struct {
	Logger           *zerolog.Logger
	DB               *sql.DB
	MaxRows          int
	QueryLogging     bool
	StrictValidation bool
}

// NewToolContext creates a context over a read-only database handle.
func NewToolContext(logger *zerolog.Logger, db *sql.DB, maxRows int, queryLogging, strictValidation bool) *ToolContext {
	return &ToolContext{
		Logger:           logger,
		DB:               db,
		MaxRows:          maxRows,
		QueryLogging:     queryLogging,
		StrictValidation: strictValidation,
	}
}

// ExecuteSafeQuery validates the query (when strict validation is on),
// caps its row count, and returns the result set as generic rows.
func (tc *ToolContext) ExecuteSafeQuery(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	if tc.StrictValidation {
		if err := ValidateQuery(query); err != nil {
			return nil, NewToolError(ErrCodeQueryRejected, err.Error(), nil)
		}
	}

	query = AddRowLimit(query, tc.MaxRows)

	if tc.QueryLogging {
		tc.Logger.Debug().Str("query", query).Msg("executing analytics query")
	}

	return tc.queryRows(ctx, query, params)
}

// queryRows runs a query without validation. Internal callers use it
// for fixed statements that strict validation would reject (PRAGMA).
func (tc *ToolContext) queryRows(ctx context.Context, query string, params []any) ([]map[string]any, error) {
	rows, err := tc.DB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, NewToolError(ErrCodeInternal, fmt.Sprintf("database error: %v", err), nil)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, NewToolError(ErrCodeInternal, fmt.Sprintf("database error: %v", err), nil)
	}

	results := []map[string]any{}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, NewToolError(ErrCodeInternal, fmt.Sprintf("database error: %v", err), nil)
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			v := values[i]
			// The driver hands text back as []byte; strings read better
			// in JSON tool output.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, NewToolError(ErrCodeInternal, fmt.Sprintf("database error: %v", err), nil)
	}

	return results, nil
}
