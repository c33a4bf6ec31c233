package compiler

import (
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// buildOrderBy keeps only terms that name a selected column or an
// aggregation alias.
func buildOrderBy(req report.Request) ([]sqldsl.OrderItem, []Dropped) {
	selected := make(map[string]bool, len(req.Columns)+len(req.Aggregation))
	for _, c := range req.Columns {
		selected[c] = true
	}
	for _, a := range req.Aggregation {
		selected[a.Alias()] = true
	}

	var items []sqldsl.OrderItem
	var dropped []Dropped
	for _, o := range req.OrderBy {
		if !selected[o.Column] {
			dropped = append(dropped, Dropped{Kind: DroppedOrderBy, Name: o.Column, Reason: "column is not selected"})
			continue
		}
		items = append(items, sqldsl.OrderItem{
			Expr: sqldsl.ParseCol(o.Column),
			Desc: o.Direction == "DESC",
		})
	}
	return items, dropped
}
