package compiler

import (
	"fmt"
	"strings"

	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// buildFrom seeds FROM with the first table and joins each following table
// to the tables already included. An explicit ON is used as given.
// Otherwise the included tables are scanned in insertion order and the
// first direct relation wins. Tables without a relation are skipped.
func (c *Compiler) buildFrom(tables []report.TableRef) (sqldsl.TableExpr, []sqldsl.JoinClause, []Dropped) {
	seed := tables[0].Name
	included := []string{seed}
	seen := map[string]bool{seed: true}

	var joins []sqldsl.JoinClause
	var dropped []Dropped
	for _, t := range tables[1:] {
		if seen[t.Name] {
			dropped = append(dropped, Dropped{Kind: DroppedTable, Name: t.Name, Reason: "duplicate table"})
			continue
		}

		var on sqldsl.Expr
		if t.On != nil {
			on = sqldsl.Eq{Left: sqldsl.ParseCol(t.On.Left), Right: sqldsl.ParseCol(t.On.Right)}
		} else if e, ok := c.findEdge(included, t.Name); ok {
			on = sqldsl.Eq{
				Left:  sqldsl.Col{Table: e.Owner, Column: e.Column},
				Right: sqldsl.Col{Table: e.Referenced, Column: e.ReferencedColumn},
			}
		} else {
			reason := c.unjoinableReason(included, t.Name)
			c.logger.Warn("join skipped", "table", t.Name, "reason", reason)
			dropped = append(dropped, Dropped{Kind: DroppedTable, Name: t.Name, Reason: reason})
			continue
		}

		joins = append(joins, sqldsl.JoinClause{
			Type:  string(t.JoinType),
			Table: sqldsl.Table(t.Name),
			On:    on,
		})
		included = append(included, t.Name)
		seen[t.Name] = true
	}
	return sqldsl.Table(seed), joins, dropped
}

func (c *Compiler) findEdge(included []string, table string) (relgraph.Edge, bool) {
	for _, p := range included {
		if e, ok := c.graph.Edge(p, table); ok {
			return e, true
		}
	}
	return relgraph.Edge{}, false
}

// unjoinableReason explains a skipped join and, when the graph connects the
// table indirectly, names the tables that would have to be added.
func (c *Compiler) unjoinableReason(included []string, table string) string {
	reason := fmt.Sprintf("no relation between %s and %s", table, strings.Join(included, ", "))

	var best []relgraph.Edge
	var start string
	for _, p := range included {
		if path := c.graph.Path(p, table); path != nil && (best == nil || len(path) < len(best)) {
			best, start = path, p
		}
	}
	if len(best) < 2 {
		return reason
	}

	// Every edge but the last ends at an intermediate table.
	via := make([]string, 0, len(best)-1)
	cur := start
	for _, e := range best[:len(best)-1] {
		cur = e.Other(cur)
		via = append(via, cur)
	}
	return reason + "; add " + strings.Join(via, ", ") + " first"
}
