package compiler

import (
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// DroppedKind classifies a skipped part of a request.
type DroppedKind string

const (
	// DroppedTable is a table with no join to the tables before it, or a
	// repeated table.
	DroppedTable DroppedKind = "table"
	// DroppedOrderBy is an ORDER BY term whose column is not selected.
	DroppedOrderBy DroppedKind = "order_by"
)

// Dropped records a part of the request that was skipped.
type Dropped struct {
	Kind   DroppedKind `json:"kind"`
	Name   string      `json:"name"`
	Reason string      `json:"reason"`
}

// Plan is a compiled report. Stmt stays structured until one of the render
// methods is called.
type Plan struct {
	// Request is the normalized request the plan was built from. Filter
	// logic flags are kept here.
	Request report.Request
	Stmt    sqldsl.SelectStmt
	Dropped []Dropped
}

// Parts holds each clause body without its keyword.
type Parts struct {
	Select  string `json:"selectPart"`
	From    string `json:"fromPart"`
	Where   string `json:"wherePart"`
	GroupBy string `json:"groupByPart"`
	Having  string `json:"havingPart"`
	OrderBy string `json:"orderByPart"`
}

// Parts renders each clause with literals inline.
func (p *Plan) Parts() Parts {
	return Parts{
		Select:  p.Stmt.SelectSQL(),
		From:    p.Stmt.FromSQL(),
		Where:   p.Stmt.WhereSQL(),
		GroupBy: p.Stmt.GroupBySQL(),
		Having:  p.Stmt.HavingSQL(),
		OrderBy: p.Stmt.OrderBySQL(),
	}
}

// Statement renders the preview form: one clause per line, literals inline,
// trailing semicolon.
func (p *Plan) Statement() string {
	return p.Stmt.SQL() + ";"
}

// DroppedOf returns the dropped entries of the given kind.
func (p *Plan) DroppedOf(kind DroppedKind) []Dropped {
	var out []Dropped
	for _, d := range p.Dropped {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Parameterized renders the statement for execution. Literal values become
// $n bind arguments in clause order.
func (p *Plan) Parameterized() (string, []any, error) {
	s := p.Stmt
	b := sq.Select().PlaceholderFormat(sq.Dollar)

	if len(s.Columns) == 0 {
		b = b.Columns(sqldsl.Star{}.SQL())
	}
	for _, col := range s.Columns {
		text, args := bind(col)
		b = b.Column(text, args...)
	}

	b = b.From(s.From.TableSQL())
	for _, j := range s.Joins {
		text, args := bind(j)
		b = b.JoinClause(text, args...)
	}

	for _, cond := range s.Where.Exprs {
		text, args := bind(cond)
		b = b.Where(text, args...)
	}

	if len(s.GroupBy) > 0 {
		groups := make([]string, len(s.GroupBy))
		for i, g := range s.GroupBy {
			groups[i], _ = bind(g)
		}
		b = b.GroupBy(groups...)
	}

	if s.Having != nil {
		if text, args := bind(s.Having); strings.TrimSpace(text) != "" {
			b = b.Having(text, args...)
		}
	}

	if len(s.OrderBy) > 0 {
		items := make([]string, len(s.OrderBy))
		for i, o := range s.OrderBy {
			items[i] = o.SQL()
		}
		b = b.OrderBy(items...)
	}

	return b.ToSql()
}

func bind(e sqldsl.Expr) (string, []any) {
	var args sqldsl.Args
	text := sqldsl.Bind(e, &args)
	return text, args.Values()
}
