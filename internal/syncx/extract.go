package syncx

import "encoding/json"

// Reserved payload keys mediating versioning between client and server.
// _baseVersion arrives on writes; the other four are synthesized on reads.
const (
	KeyBaseVersion    = "_baseVersion"
	KeyVersion        = "_version"
	KeyDeleted        = "_deleted"
	KeyLastModifiedBy = "_lastModifiedBy"
	KeyLastModifiedAt = "_lastModifiedAt"
)

var reservedKeys = map[string]bool{
	KeyBaseVersion:    true,
	KeyVersion:        true,
	KeyDeleted:        true,
	KeyLastModifiedBy: true,
	KeyLastModifiedAt: true,
}

// IsReserved reports whether k is one of the reserved payload keys.
func IsReserved(k string) bool {
	return reservedKeys[k]
}

// GetString safely extracts a string value from a map.
func GetString(m map[string]any, k string) (string, bool) {
	if v, ok := m[k]; ok {
		if s, ok2 := v.(string); ok2 {
			return s, true
		}
	}
	return "", false
}

// GetBool safely extracts a boolean value from a map.
func GetBool(m map[string]any, k string) (bool, bool) {
	if v, ok := m[k]; ok {
		if b, ok2 := v.(bool); ok2 {
			return b, true
		}
	}
	return false, false
}

// GetInt extracts an integer value from a map. JSON decoding produces
// float64 for numbers; tests and callers may also supply native ints.
func GetInt(m map[string]any, k string) (int, bool) {
	switch v := m[k].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), true
		}
	}
	return 0, false
}

// GetFloat extracts a numeric value from a map.
func GetFloat(m map[string]any, k string) (float64, bool) {
	switch v := m[k].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// BaseVersion reads the incoming _baseVersion key. Absent or malformed
// values are treated as 0, which the detector interprets as "insert".
func BaseVersion(m map[string]any) int {
	if v, ok := GetInt(m, KeyBaseVersion); ok {
		return v
	}
	return 0
}

// DeleteFlag reads the incoming _deleted key. Entries never carry it.
func DeleteFlag(m map[string]any) bool {
	v, _ := GetBool(m, KeyDeleted)
	return v
}

// StripReserved returns a copy of m without any reserved keys. The input
// map is not modified.
func StripReserved(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if reservedKeys[k] {
			continue
		}
		out[k] = v
	}
	return out
}
