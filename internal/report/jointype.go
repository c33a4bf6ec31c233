package report

import "strings"

// JoinType is a normalized SQL join keyword.
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT JOIN"
	RightJoin JoinType = "RIGHT JOIN"
	FullJoin  JoinType = "FULL JOIN"
)

// ParseJoinType accepts the short ("left"), full ("LEFT JOIN") and outer
// ("LEFT OUTER JOIN") spellings, case-insensitively.
func ParseJoinType(s string) (JoinType, bool) {
	t := strings.ToUpper(strings.Join(strings.Fields(s), " "))
	t = strings.TrimSuffix(t, " JOIN")
	t = strings.TrimSuffix(t, " OUTER")
	switch t {
	case "INNER":
		return InnerJoin, true
	case "LEFT":
		return LeftJoin, true
	case "RIGHT":
		return RightJoin, true
	case "FULL":
		return FullJoin, true
	}
	return "", false
}
