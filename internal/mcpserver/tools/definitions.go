package tools

// RegisterAllTools registers the journal analytics tool set.
func RegisterAllTools(r *Registry) {
	r.MustRegister(ToolDefinition{
		Name: "explore_database_structure",
		Description: "WHEN TO USE: When you need to understand what journal data is available. " +
			"This is your starting point for exploring journal data. Use this tool first " +
			"to see what tables are available before running specific queries.",
		InputSchema: objectSchema(map[string]any{}, nil),
	}, HandleExploreDatabaseStructure)

	r.MustRegister(ToolDefinition{
		Name: "get_table_details",
		Description: "WHEN TO USE: When you need to see the structure and sample data of a specific table. " +
			"Use this after 'explore_database_structure' when you want to understand what columns " +
			"are available in a table and see examples of the actual data.",
		InputSchema: objectSchema(map[string]any{
			"table_name": prop("string", "Name of the table (e.g., 'trackers', 'entries')"),
		}, []string{"table_name"}),
	}, HandleGetTableDetails)

	r.MustRegister(ToolDefinition{
		Name: "execute_sql_query",
		Description: "WHEN TO USE: When you need to get specific data using SQL queries. " +
			"This is the main tool for querying any data from the database. " +
			"IMPORTANT: Only SELECT and WITH queries are allowed for security. " +
			`Example: "SELECT t.name, e.date, e.value, e.completed FROM entries e JOIN trackers t ON e.tracker_id = t.id"`,
		InputSchema: objectSchema(map[string]any{
			"query": prop("string", "SQL SELECT query"),
			"params": map[string]any{
				"type":        "array",
				"description": "Optional list of parameters for ? placeholders in query",
			},
		}, []string{"query"}),
	}, HandleExecuteSQLQuery)

	r.MustRegister(ToolDefinition{
		Name: "list_trackers",
		Description: "WHEN TO USE: When you want to see what trackers are available for journaling. " +
			"Lists all trackers (habits, metrics, etc.) that can be tracked in the journal. " +
			"Trackers can be simple checkboxes or quantifiable values.",
		InputSchema: objectSchema(map[string]any{
			"category":        prop("string", "Optional filter by category (e.g., 'Supplements', 'Habits')"),
			"include_deleted": prop("boolean", "Whether to include deleted trackers (default: false)"),
		}, nil),
	}, HandleListTrackers)

	r.MustRegister(ToolDefinition{
		Name: "get_entries",
		Description: "WHEN TO USE: When you want to see journal entries for specific dates or trackers. " +
			"Retrieves journal entries with tracker information. Use this to see what was " +
			"tracked on specific days, analyze habits, or review progress.",
		InputSchema: objectSchema(map[string]any{
			"start_date":   prop("string", "Start date in YYYY-MM-DD format (default: days ago from today)"),
			"end_date":     prop("string", "End date in YYYY-MM-DD format (default: today)"),
			"tracker_name": prop("string", "Optional filter by tracker name (partial match supported)"),
			"days":         prop("integer", "Number of days to look back if start_date not specified (default: 7)"),
		}, nil),
	}, HandleGetEntries)

	r.MustRegister(ToolDefinition{
		Name: "get_journal_summary",
		Description: "WHEN TO USE: When you want a quick overview of journal activity without writing SQL. " +
			"Provides summary statistics about journal entries and tracker usage over a period.",
		InputSchema: objectSchema(map[string]any{
			"days": prop("integer", "Number of recent days to analyze (max 365, default: 30)"),
		}, nil),
	}, HandleGetJournalSummary)
}

func objectSchema(properties map[string]any, required []string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func prop(typ, description string) map[string]any {
	return map[string]any{
		"type":        typ,
		"description": description,
	}
}

// tableDescription returns a human-readable description for a table.
func tableDescription(name string) string {
	descriptions := map[string]string{
		"trackers":       "Tracker definitions including habits, supplements, metrics with their categories and types",
		"entries":        "Daily journal entries recording tracker values and completion status",
		"clients":        "Client devices that sync with the journal",
		"meta_sync":      "Sync metadata for client synchronization",
		"sync_conflicts": "Records of sync conflicts between clients",
	}
	if desc, ok := descriptions[name]; ok {
		return desc
	}
	return "Journal data table"
}
