package utils

import "strings"

// CamelCase turns snake_case into camelCase: the first segment stays lowercase,
// later segments get an uppercase initial, underscores are removed.
func CamelCase(snake string) string {
	parts := strings.Split(snake, "_")
	var b strings.Builder
	b.Grow(len(snake))
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(strings.ToLower(p))
			first = false
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// ColumnNameMap maps every accepted incoming key to its column: the column itself and its camelCase form.
func ColumnNameMap(columns []string) map[string]string {
	m := make(map[string]string, len(columns)*2)
	for _, c := range columns {
		m[CamelCase(c)] = c
	}
	// Exact names win over a camelCase form that happens to collide with another column.
	for _, c := range columns {
		m[c] = c
	}
	return m
}

// IsIDColumn reports whether a column holds an id or a reference to one.
func IsIDColumn(name string) bool {
	return name == "id" || strings.HasSuffix(name, "_id")
}
