package sqldsl

import (
	"fmt"
	"strings"
)

// Optf returns formatted string if condition is true, empty string otherwise.
// Useful for optional SQL clauses.
func Optf(cond bool, format string, args ...any) string {
	if !cond {
		return ""
	}
	return fmt.Sprintf(format, args...)
}

// JoinClause represents a SQL JOIN clause.
type JoinClause struct {
	Type  string // "INNER JOIN", "LEFT", etc.
	Table TableExpr
	On    Expr
}

func (j JoinClause) keyword() string {
	if strings.Contains(j.Type, "JOIN") {
		return j.Type
	}
	return j.Type + " JOIN"
}

// SQL renders the JOIN clause.
func (j JoinClause) SQL() string {
	if j.On == nil {
		return j.keyword() + " " + j.Table.TableSQL()
	}
	return j.keyword() + " " + j.Table.TableSQL() + " ON " + j.On.SQL()
}

// Bind renders the JOIN clause with bound arguments.
func (j JoinClause) Bind(args *Args) string {
	if j.On == nil {
		return j.keyword() + " " + j.Table.TableSQL()
	}
	return j.keyword() + " " + j.Table.TableSQL() + " ON " + Bind(j.On, args)
}

// OrderItem is a single ORDER BY term.
type OrderItem struct {
	Expr Expr
	Desc bool
}

// SQL renders the term with an explicit direction.
func (o OrderItem) SQL() string {
	if o.Desc {
		return o.Expr.SQL() + " DESC"
	}
	return o.Expr.SQL() + " ASC"
}

// SelectStmt represents a report SELECT query. Clauses stay structured until
// rendered.
type SelectStmt struct {
	Columns []Expr
	From    TableExpr
	Joins   []JoinClause
	Where   Conjunction
	GroupBy []Expr
	Having  Expr
	OrderBy []OrderItem
}

// SelectSep separates projection items in the inline rendering.
const SelectSep = ",\n\t"

// SelectSQL renders the projection list, or * when empty.
func (s SelectStmt) SelectSQL() string {
	if len(s.Columns) == 0 {
		return Star{}.SQL()
	}
	return joinExprs(s.Columns, SelectSep, nil)
}

// FromSQL renders the FROM body: the seed table followed by one JOIN per line.
func (s SelectStmt) FromSQL() string {
	if s.From == nil {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(s.From.TableSQL())
	for _, j := range s.Joins {
		sb.WriteString("\n")
		sb.WriteString(j.SQL())
	}
	return sb.String()
}

// WhereSQL renders the WHERE body.
func (s SelectStmt) WhereSQL() string {
	return s.Where.SQL()
}

// GroupBySQL renders the GROUP BY body.
func (s SelectStmt) GroupBySQL() string {
	return joinExprs(s.GroupBy, ", ", nil)
}

// HavingSQL renders the HAVING body.
func (s SelectStmt) HavingSQL() string {
	if s.Having == nil {
		return ""
	}
	return s.Having.SQL()
}

// OrderBySQL renders the ORDER BY body.
func (s SelectStmt) OrderBySQL() string {
	parts := make([]string, len(s.OrderBy))
	for i, o := range s.OrderBy {
		parts[i] = o.SQL()
	}
	return strings.Join(parts, ", ")
}

// SQL renders the SELECT statement, one clause per line, without a trailing
// semicolon.
func (s SelectStmt) SQL() string {
	where := s.WhereSQL()
	groupBy := s.GroupBySQL()
	having := s.HavingSQL()
	orderBy := s.OrderBySQL()

	clauses := []string{
		"SELECT " + s.SelectSQL(),
		"FROM " + s.FromSQL(),
		Optf(where != "", "WHERE %s", where),
		Optf(groupBy != "", "GROUP BY %s", groupBy),
		Optf(having != "", "HAVING %s", having),
		Optf(orderBy != "", "ORDER BY %s", orderBy),
	}
	out := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if c != "" {
			out = append(out, c)
		}
	}
	return strings.Join(out, "\n")
}
