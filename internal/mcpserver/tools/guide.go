package tools

// DataGuideURI identifies the journal analysis guide resource.
const DataGuideURI = "file://journal_data_guide"

// DataGuide returns the analysis guide served as an MCP resource.
func DataGuide() string {
	return `# Journal Data Analysis Guide

## Quick Start
1. Use ` + "`list_trackers`" + ` to see what habits/metrics are being tracked
2. Use ` + "`get_entries`" + ` to see recent journal entries
3. Use ` + "`get_journal_summary`" + ` for a quick overview
4. Use ` + "`execute_sql_query`" + ` for custom analysis

## Main Data Tables

### trackers
**WHAT**: Definitions of things being tracked
**COLUMNS**:
- id: Unique identifier (UUID)
- name: Display name (e.g., "Vitamin D3", "Exercise")
- category: Grouping category (e.g., "Supplements", "Habits")
- type: "simple" (checkbox) or "quantifiable" (has a value)
- meta_json: Additional settings like frequency, unit, defaultValue
- deleted: Soft delete flag

### entries
**WHAT**: Daily tracking records
**COLUMNS**:
- date: The date of the entry (YYYY-MM-DD)
- tracker_id: Links to trackers table
- value: Numeric value for quantifiable trackers (NULL for simple)
- completed: 1 if completed/checked, 0 otherwise

## Tracker Types
- **simple**: Binary yes/no tracking (e.g., "Did I take my vitamins?")
- **quantifiable**: Numeric value tracking (e.g., "How many mg of Zinc?")

## Common Queries

### See all active trackers by category
` + "```sql" + `
SELECT category, name, type FROM trackers
WHERE deleted = 0 ORDER BY category, name
` + "```" + `

### Get completion rate for a tracker
` + "```sql" + `
SELECT t.name,
       COUNT(*) as total_days,
       SUM(completed) as completed_days,
       ROUND(100.0 * SUM(completed) / COUNT(*), 1) as completion_rate
FROM entries e JOIN trackers t ON e.tracker_id = t.id
WHERE t.name = 'Exercise'
GROUP BY t.id
` + "```" + `

### Daily summary for a date
` + "```sql" + `
SELECT t.category, t.name, e.completed, e.value
FROM entries e JOIN trackers t ON e.tracker_id = t.id
WHERE e.date = '2026-01-22'
ORDER BY t.category, t.name
` + "```" + `

## Tips
- Join entries with trackers to get meaningful names
- Filter by deleted = 0 to exclude deleted trackers
- Use date ranges to analyze trends over time
- Group by category for category-level analysis`
}
