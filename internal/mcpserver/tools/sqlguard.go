package tools

import (
	"fmt"
	"regexp"
	"strings"
)

// The analytics surface is read-only: only SELECT and WITH statements
// pass validation, and anything that could mutate or reconfigure the
// database is rejected by keyword.
var allowedStatements = []string{"select", "with"}

var forbiddenKeywords = map[string]bool{
	"insert":  true,
	"update":  true,
	"delete":  true,
	"drop":    true,
	"create":  true,
	"alter":   true,
	"pragma":  true,
	"attach":  true,
	"detach":  true,
	"vacuum":  true,
	"analyze": true,
}

var wordPattern = regexp.MustCompile(`\b\w+\b`)

// identPattern matches safe SQL identifiers (table names interpolated
// into PRAGMA and sample queries).
var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateQuery rejects queries that are not read-only SELECT/WITH
// statements, contain forbidden keywords, or chain multiple statements.
func ValidateQuery(query string) error {
	trimmed := strings.ToLower(strings.TrimSpace(query))
	if trimmed == "" {
		return fmt.Errorf("query cannot be empty")
	}

	allowed := false
	for _, prefix := range allowedStatements {
		if strings.HasPrefix(trimmed, prefix) {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("only SELECT, WITH queries are allowed")
	}

	var found []string
	for _, word := range wordPattern.FindAllString(trimmed, -1) {
		if forbiddenKeywords[word] {
			found = append(found, word)
		}
	}
	if len(found) > 0 {
		return fmt.Errorf("forbidden keywords found: %s", strings.Join(found, ", "))
	}

	if containsMultipleStatements(query) {
		return fmt.Errorf("multiple statements not allowed")
	}

	return nil
}

// containsMultipleStatements reports whether sql has a statement
// separator outside of string literals.
func containsMultipleStatements(sql string) bool {
	inSingle := false
	inDouble := false
	for _, c := range sql {
		switch {
		case c == '\'' && !inDouble:
			inSingle = !inSingle
		case c == '"' && !inSingle:
			inDouble = !inDouble
		case c == ';' && !inSingle && !inDouble:
			return true
		}
	}
	return false
}

// AddRowLimit appends a LIMIT clause when the query has none.
func AddRowLimit(query string, limit int) string {
	if strings.Contains(strings.ToLower(query), "limit") {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", strings.TrimRight(query, "; \t\n"), limit)
}

// ValidIdentifier reports whether s is safe to interpolate as a SQL
// identifier.
func ValidIdentifier(s string) bool {
	return identPattern.MatchString(s)
}
