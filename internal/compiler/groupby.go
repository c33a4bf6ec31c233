package compiler

import (
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// buildGroupBy uses the explicit groupBy when given. Otherwise, when any
// aggregation is requested, it groups by every selected column.
func buildGroupBy(req report.Request) []sqldsl.Expr {
	cols := req.GroupBy
	if len(cols) == 0 && len(req.Aggregation) > 0 {
		cols = req.Columns
	}
	out := make([]sqldsl.Expr, len(cols))
	for i, c := range cols {
		out[i] = sqldsl.ParseCol(c)
	}
	return out
}
