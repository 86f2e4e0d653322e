package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"
)

// HandleExploreDatabaseStructure lists every user table with its row
// count and a short description. The starting point for LLM clients.
func HandleExploreDatabaseStructure(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
	tables, err := tc.queryRows(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`, nil)
	if err != nil {
		return nil, err
	}

	tableInfo := map[string]any{}
	for _, row := range tables {
		name, _ := row["name"].(string)
		if !ValidIdentifier(name) {
			continue
		}
		count, err := tc.queryRows(ctx, fmt.Sprintf("SELECT COUNT(*) AS count FROM %s", name), nil)
		if err != nil {
			return nil, err
		}
		var rowCount any
		if len(count) > 0 {
			rowCount = count[0]["count"]
		}
		tableInfo[name] = map[string]any{
			"row_count":   rowCount,
			"description": tableDescription(name),
		}
	}

	return map[string]any{
		"available_tables": tableInfo,
		"usage_tip":        "Use 'list_trackers' to see available trackers, 'get_entries' to get journal entries, or 'execute_sql_query' for custom queries",
	}, nil
}

// GetTableDetailsParams are the arguments for get_table_details.
type GetTableDetailsParams struct {
	TableName string `json:"table_name"`
}

// HandleGetTableDetails returns the columns, primary keys, and a few
// sample rows of one table.
func HandleGetTableDetails(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
	var params GetTableDetailsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, NewToolError(ErrCodeInvalidParams, "Invalid parameters: "+err.Error(), nil)
	}
	if strings.TrimSpace(params.TableName) == "" {
		return nil, NewToolError(ErrCodeInvalidParams, "Table name cannot be empty", nil)
	}
	if !ValidIdentifier(params.TableName) {
		return nil, NewToolError(ErrCodeInvalidParams, "Invalid table name format", nil)
	}

	exists, err := tc.queryRows(ctx, `
		SELECT name FROM sqlite_master
		WHERE type='table' AND name=?`, []any{params.TableName})
	if err != nil {
		return nil, err
	}
	if len(exists) == 0 {
		tables, err := tc.queryRows(ctx, `
			SELECT name FROM sqlite_master
			WHERE type='table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`, nil)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(tables))
		for _, row := range tables {
			if name, ok := row["name"].(string); ok {
				names = append(names, name)
			}
		}
		return nil, NewToolError(ErrCodeNotFound,
			fmt.Sprintf("Table '%s' does not exist. Available tables: %s", params.TableName, strings.Join(names, ", ")), nil)
	}

	// PRAGMA would fail strict validation, so it goes through the raw path.
	columns, err := tc.queryRows(ctx, fmt.Sprintf("PRAGMA table_info(%s)", params.TableName), nil)
	if err != nil {
		return nil, err
	}
	columnInfo := make([]map[string]any, 0, len(columns))
	for _, col := range columns {
		columnInfo = append(columnInfo, map[string]any{
			"name":           col["name"],
			"type":           col["type"],
			"required":       toBool(col["notnull"]),
			"is_primary_key": toBool(col["pk"]),
		})
	}

	samples, err := tc.queryRows(ctx,
		fmt.Sprintf("SELECT * FROM %s ORDER BY rowid DESC LIMIT 3", params.TableName), nil)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"table_name":  params.TableName,
		"columns":     columnInfo,
		"sample_data": samples,
		"description": tableDescription(params.TableName),
	}, nil
}

// ExecuteSQLParams are the arguments for execute_sql_query.
type ExecuteSQLParams struct {
	Query  string `json:"query"`
	Params []any  `json:"params,omitempty"`
}

// HandleExecuteSQLQuery runs a validated read-only query.
func HandleExecuteSQLQuery(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
	var params ExecuteSQLParams
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, NewToolError(ErrCodeInvalidParams, "Invalid parameters: "+err.Error(), nil)
	}
	if strings.TrimSpace(params.Query) == "" {
		return nil, NewToolError(ErrCodeInvalidParams, "Query cannot be empty", nil)
	}

	return tc.ExecuteSafeQuery(ctx, params.Query, params.Params)
}

// ListTrackersParams are the arguments for list_trackers.
type ListTrackersParams struct {
	Category       *string `json:"category,omitempty"`
	IncludeDeleted bool    `json:"include_deleted,omitempty"`
}

// HandleListTrackers returns tracker definitions with the metadata bag
// decoded into a structured field.
func HandleListTrackers(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
	var params ListTrackersParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, NewToolError(ErrCodeInvalidParams, "Invalid parameters: "+err.Error(), nil)
		}
	}

	query := `
		SELECT id, name, category, type, meta_json, deleted
		FROM trackers
		WHERE 1=1`
	var args []any
	if !params.IncludeDeleted {
		query += " AND deleted = 0"
	}
	if params.Category != nil && *params.Category != "" {
		query += " AND category = ?"
		args = append(args, *params.Category)
	}
	query += " ORDER BY category, name"

	rows, err := tc.ExecuteSafeQuery(ctx, query, args)
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		metadata := map[string]any{}
		if rawMeta, ok := row["meta_json"].(string); ok && rawMeta != "" {
			if err := json.Unmarshal([]byte(rawMeta), &metadata); err != nil {
				metadata = map[string]any{}
			}
		}
		delete(row, "meta_json")
		row["metadata"] = metadata
	}

	return rows, nil
}

// GetEntriesParams are the arguments for get_entries.
type GetEntriesParams struct {
	StartDate   *string `json:"start_date,omitempty"`
	EndDate     *string `json:"end_date,omitempty"`
	TrackerName *string `json:"tracker_name,omitempty"`
	Days        int     `json:"days,omitempty"`
}

// HandleGetEntries returns entries joined with their tracker names for
// a date range, defaulting to the last week.
func HandleGetEntries(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
	var params GetEntriesParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, NewToolError(ErrCodeInvalidParams, "Invalid parameters: "+err.Error(), nil)
		}
	}
	if params.Days <= 0 {
		params.Days = 7
	}

	endDate := time.Now().Format("2006-01-02")
	if params.EndDate != nil && *params.EndDate != "" {
		endDate = *params.EndDate
	}
	startDate := time.Now().AddDate(0, 0, -params.Days).Format("2006-01-02")
	if params.StartDate != nil && *params.StartDate != "" {
		startDate = *params.StartDate
	}

	query := `
		SELECT
			e.date,
			t.name AS tracker_name,
			t.category,
			t.type AS tracker_type,
			e.value,
			e.completed
		FROM entries e
		JOIN trackers t ON e.tracker_id = t.id
		WHERE e.date >= ? AND e.date <= ?`
	args := []any{startDate, endDate}

	if params.TrackerName != nil && *params.TrackerName != "" {
		query += " AND t.name LIKE ?"
		args = append(args, "%"+*params.TrackerName+"%")
	}
	query += " ORDER BY e.date DESC, t.category, t.name"

	return tc.ExecuteSafeQuery(ctx, query, args)
}

// GetJournalSummaryParams are the arguments for get_journal_summary.
type GetJournalSummaryParams struct {
	Days int `json:"days,omitempty"`
}

// HandleGetJournalSummary aggregates recent journal activity: totals,
// completion rate, active days, per-category counts, top trackers.
func HandleGetJournalSummary(ctx context.Context, tc *ToolContext, raw json.RawMessage) (interface{}, error) {
	var params GetJournalSummaryParams
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &params); err != nil {
			return nil, NewToolError(ErrCodeInvalidParams, "Invalid parameters: "+err.Error(), nil)
		}
	}
	if params.Days <= 0 {
		params.Days = 30
	}
	if params.Days > 365 {
		return nil, NewToolError(ErrCodeInvalidParams, "Days cannot exceed 365", nil)
	}

	startDate := time.Now().AddDate(0, 0, -params.Days).Format("2006-01-02")

	totalEntries, err := tc.scalarInt(ctx, `SELECT COUNT(*) AS n FROM entries WHERE date >= ?`, startDate)
	if err != nil {
		return nil, err
	}
	completed, err := tc.scalarInt(ctx, `SELECT COUNT(*) AS n FROM entries WHERE date >= ? AND completed = 1`, startDate)
	if err != nil {
		return nil, err
	}
	activeDays, err := tc.scalarInt(ctx, `SELECT COUNT(DISTINCT date) AS n FROM entries WHERE date >= ?`, startDate)
	if err != nil {
		return nil, err
	}

	categories, err := tc.ExecuteSafeQuery(ctx, `
		SELECT t.category, COUNT(*) AS entry_count
		FROM entries e
		JOIN trackers t ON e.tracker_id = t.id
		WHERE e.date >= ?
		GROUP BY t.category
		ORDER BY entry_count DESC`, []any{startDate})
	if err != nil {
		return nil, err
	}

	topTrackers, err := tc.ExecuteSafeQuery(ctx, `
		SELECT t.name, COUNT(*) AS entry_count,
		       SUM(CASE WHEN e.completed = 1 THEN 1 ELSE 0 END) AS completed_count
		FROM entries e
		JOIN trackers t ON e.tracker_id = t.id
		WHERE e.date >= ?
		GROUP BY t.id, t.name
		ORDER BY entry_count DESC
		LIMIT 10`, []any{startDate})
	if err != nil {
		return nil, err
	}

	completionRate := 0.0
	if totalEntries > 0 {
		completionRate = math.Round(float64(completed)/float64(totalEntries)*1000) / 10
	}

	return map[string]any{
		"analysis_period_days":    params.Days,
		"total_entries":           totalEntries,
		"completed_entries":       completed,
		"completion_rate_percent": completionRate,
		"active_days":             activeDays,
		"entries_by_category":     categories,
		"top_trackers":            topTrackers,
	}, nil
}

func (tc *ToolContext) scalarInt(ctx context.Context, query string, args ...any) (int64, error) {
	rows, err := tc.queryRows(ctx, query, args)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["n"]), nil
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	}
	return 0
}

func toBool(v any) bool {
	return toInt64(v) != 0
}
