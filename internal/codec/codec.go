// Package codec classifies and renders scalar values for report SQL.
//
// Rendering is conservative: only values that match a strict numeric grammar
// are emitted unquoted, everything else becomes a PostgreSQL string literal.
package codec

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lib/pq"
)

var numericPattern = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// IsNumeric reports whether v is a number or a string holding a finite
// decimal number. Surrounding whitespace is ignored.
func IsNumeric(v any) bool {
	switch n := v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return !math.IsNaN(float64(n)) && !math.IsInf(float64(n), 0)
	case float64:
		return !math.IsNaN(n) && !math.IsInf(n, 0)
	case json.Number:
		return numericPattern.MatchString(strings.TrimSpace(string(n)))
	case string:
		return numericPattern.MatchString(strings.TrimSpace(n))
	}
	return false
}

// Quote renders v as a SQL literal.
//
//	nil        -> NULL
//	true       -> TRUE
//	42, "42"   -> 42
//	"O'Brien"  -> 'O''Brien'
func Quote(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case string:
		if IsNumeric(x) {
			return strings.TrimSpace(x)
		}
		return QuoteString(x)
	case json.Number:
		return Quote(string(x))
	case float32:
		return Quote(float64(x))
	case float64:
		if !IsNumeric(x) {
			return QuoteString(strconv.FormatFloat(x, 'g', -1, 64))
		}
		return strconv.FormatFloat(x, 'g', -1, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(x)
	}
	return QuoteString(fmt.Sprint(v))
}

// QuoteString renders s as a string literal regardless of its content.
// Backslashes switch to the E'' form.
func QuoteString(s string) string {
	return strings.TrimPrefix(pq.QuoteLiteral(s), " ")
}

// BindValue converts a decoded JSON scalar to a driver argument. Numbers kept
// as json.Number are passed as their text so the server applies the
// parameter's inferred type.
func BindValue(v any) any {
	if n, ok := v.(json.Number); ok {
		return n.String()
	}
	return v
}

// LikePattern normalizes a LIKE operand. Values without a wildcard are
// wrapped as %v%. Values that already contain % are kept, with doubled
// wildcards at either edge collapsed. LikePattern(LikePattern(s)) equals
// LikePattern(s).
func LikePattern(s string) string {
	if s == "" {
		return "%"
	}
	if !strings.Contains(s, "%") {
		return "%" + s + "%"
	}
	for strings.HasPrefix(s, "%%") {
		s = s[1:]
	}
	for strings.HasSuffix(s, "%%") {
		s = s[:len(s)-1]
	}
	return s
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
