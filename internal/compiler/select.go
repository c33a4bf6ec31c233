package compiler

import (
	"strings"

	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// buildSelect lists aggregations first, then plain columns. Qualified
// columns are aliased table_column so result keys stay unambiguous.
func buildSelect(req report.Request) []sqldsl.Expr {
	out := make([]sqldsl.Expr, 0, len(req.Aggregation)+len(req.Columns))
	for _, a := range req.Aggregation {
		out = append(out, sqldsl.SelectAs(aggregate(a.Func, a.Column), a.Alias()))
	}
	for _, c := range req.Columns {
		col := sqldsl.ParseCol(c)
		if col.Table == "" {
			out = append(out, col)
			continue
		}
		out = append(out, sqldsl.SelectAs(col, strings.ReplaceAll(c, ".", "_")))
	}
	return out
}

// aggregate renders FUNC(arg). SELECT aggregations always name a column;
// the "*" operand only comes from HAVING clauses such as COUNT(*) > 2.
func aggregate(fn, arg string) sqldsl.Func {
	var operand sqldsl.Expr = sqldsl.ParseCol(arg)
	if arg == "*" {
		operand = sqldsl.Star{}
	}
	return sqldsl.Func{Name: fn, Args: []sqldsl.Expr{operand}}
}
