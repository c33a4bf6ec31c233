package codec

import (
	"regexp"
	"strings"
)

var (
	identPattern     = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	columnRefPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)
	aggregatePattern = regexp.MustCompile(`^([A-Za-z_]+)\(\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?|\*)\s*\)$`)

	// legacyRefPattern is the loose "table.column" shape that older clients
	// relied on when sending column references as plain strings.
	legacyRefPattern = regexp.MustCompile(`(?i)^[a-z_]+\.[a-z_]+$`)
)

// DateTimeFormat is the TO_CHAR template applied to date-like columns under
// pattern matching.
const DateTimeFormat = "YYYY-MM-DD HH24:MI:SS"

// IsIdentifier reports whether s is a plain SQL identifier.
func IsIdentifier(s string) bool {
	return identPattern.MatchString(s)
}

// IsColumnRef reports whether s is an identifier optionally qualified by one
// table name.
func IsColumnRef(s string) bool {
	return columnRefPattern.MatchString(s)
}

// ParseAggregate splits "FUNC(column)" into its upper-cased function name and
// argument. The argument may be * or a column reference.
func ParseAggregate(s string) (fn, arg string, ok bool) {
	m := aggregatePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", "", false
	}
	return strings.ToUpper(m[1]), m[2], true
}

// LooksLikeColumnRef reports whether a string value has the loose
// "table.column" shape of a column reference written as a plain string.
func LooksLikeColumnRef(s string) bool {
	return legacyRefPattern.MatchString(s)
}

// IsDateType reports whether a catalog data type holds dates or times.
func IsDateType(dataType string) bool {
	t := strings.ToLower(dataType)
	return strings.HasPrefix(t, "date") || strings.HasPrefix(t, "time")
}

// IsDateLikeName reports whether a column name suggests a date or time
// value. Used when no catalog type is known.
func IsDateLikeName(column string) bool {
	name := strings.ToLower(column)
	if _, after, ok := strings.Cut(name, "."); ok {
		name = after
	}
	for _, hint := range []string{"date", "time", "created", "updated"} {
		if strings.Contains(name, hint) {
			return true
		}
	}
	return false
}
