package compiler

import (
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// Compile normalizes req and builds its plan. Clauses are built in the order
// SELECT, FROM, WHERE, GROUP BY, HAVING, ORDER BY. Only validation failures
// are returned as errors.
func (c *Compiler) Compile(req report.Request, opts ...CompileOption) (*Plan, error) {
	var settings compileSettings
	for _, opt := range opts {
		opt(&settings)
	}

	norm, err := req.Normalize(c.defaultJoin)
	if err != nil {
		return nil, err
	}

	columns := buildSelect(norm)
	from, joins, dropped := c.buildFrom(norm.Tables)
	where := c.buildWhere(norm.Filters, settings.columnTypes)
	groupBy := buildGroupBy(norm)
	having := c.buildHaving(norm.Having)
	orderBy, ignored := buildOrderBy(norm)

	plan := &Plan{
		Request: norm,
		Stmt: sqldsl.SelectStmt{
			Columns: columns,
			From:    from,
			Joins:   joins,
			Where:   where,
			GroupBy: groupBy,
			Having:  having,
			OrderBy: orderBy,
		},
		Dropped: append(dropped, ignored...),
	}
	c.logger.Debug("report compiled",
		"tables", len(norm.Tables),
		"joins", len(joins),
		"filters", len(where.Exprs),
		"dropped", len(plan.Dropped))
	return plan, nil
}
