package compiler

import (
	"strings"

	"github.com/pthm/sqlreport/internal/codec"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// buildHaving passes a pre-rendered string through, or renders each clause
// as "FUNC(column) op value" joined with AND. Values go through the same
// codec as WHERE values.
func (c *Compiler) buildHaving(h report.Having) sqldsl.Expr {
	if h.Raw != "" {
		return sqldsl.Raw(h.Raw)
	}
	if len(h.Clauses) == 0 {
		return nil
	}

	conds := make([]sqldsl.Expr, 0, len(h.Clauses))
	for _, clause := range h.Clauses {
		fn, arg, _ := codec.ParseAggregate(clause.Aggregation)
		left := aggregate(fn, arg)

		v := c.resolveRef(clause.Value)
		switch {
		case v.Kind() == report.RefValue:
			conds = append(conds, compare(clause.Operator, left, sqldsl.ParseCol(strings.ToLower(v.Ref()))))
		case v.IsNull() && clause.Operator == report.OpEq:
			conds = append(conds, sqldsl.IsNull{Expr: left})
		case v.IsNull() && clause.Operator == report.OpNe:
			conds = append(conds, sqldsl.IsNotNull{Expr: left})
		default:
			conds = append(conds, compare(clause.Operator, left, sqldsl.Value{V: v.Scalar()}))
		}
	}
	return sqldsl.All(conds...)
}
