// Package sqlreport compiles ad-hoc report requests into PostgreSQL
// statements.
//
// A request names tables, columns, aggregations, filters, HAVING and ORDER BY
// terms. The compiler joins the tables along known foreign keys, renders each
// clause with identifiers validated and values escaped, and returns a Plan:
//
//	req, err := sqlreport.ParseRequest(body)
//	plan, err := sqlreport.Compile(req)
//	fmt.Println(plan.Statement())       // preview text
//	query, args, err := plan.Parameterized() // for database/sql
//
// Tables that cannot be joined and ORDER BY terms for columns that are not
// selected are skipped and listed in Plan.Dropped.
//
// This is a thin wrapper around the internal packages that exposes the types
// and functions needed by external callers.
package sqlreport

import (
	"io"
	"sync"

	"github.com/pthm/sqlreport/internal/compiler"
	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
)

// Request is a report request.
type Request = report.Request

// TableRef names a table in a request.
type TableRef = report.TableRef

// OnCondition is an explicit join condition.
type OnCondition = report.OnCondition

// ColumnList is a list of column references.
type ColumnList = report.ColumnList

// Aggregation is an aggregate function over a column.
type Aggregation = report.Aggregation

// Filter is a WHERE condition.
type Filter = report.Filter

// Value is a filter or HAVING operand.
type Value = report.Value

// Having is a HAVING clause list or raw string.
type Having = report.Having

// HavingClause is a single HAVING condition.
type HavingClause = report.HavingClause

// OrderClause is an ORDER BY term.
type OrderClause = report.OrderClause

// JoinType is a SQL join keyword.
type JoinType = report.JoinType

// Operator is a comparison operator.
type Operator = report.Operator

// Plan is a compiled report.
type Plan = compiler.Plan

// Parts holds rendered clause bodies.
type Parts = compiler.Parts

// Dropped records a skipped table or ORDER BY term.
type Dropped = compiler.Dropped

// Compiler compiles requests against a relation graph.
type Compiler = compiler.Compiler

// CompilerOption configures a Compiler.
type CompilerOption = compiler.Option

// Graph is a foreign-key relation graph.
type Graph = relgraph.Graph

// ForeignKey is a single relation in a Graph.
type ForeignKey = relgraph.ForeignKey

const (
	InnerJoin = report.InnerJoin
	LeftJoin  = report.LeftJoin
	RightJoin = report.RightJoin
	FullJoin  = report.FullJoin
)

// Scalar, List and Ref build filter values.
var (
	Scalar = report.Scalar
	List   = report.List
	Ref    = report.Ref
)

// NewCompiler creates a Compiler for graph.
var NewCompiler = compiler.New

// WithDefaultJoin sets the fallback join type.
var WithDefaultJoin = compiler.WithDefaultJoin

// WithColumnRefInference toggles "table.column" string inference (on by default).
var WithColumnRefInference = compiler.WithColumnRefInference

// WithLogger sets the compiler's logger.
var WithLogger = compiler.WithLogger

// NewGraph builds a relation graph from foreign keys.
var NewGraph = relgraph.New

// LoadGraph reads a relation artifact file.
var LoadGraph = relgraph.LoadFile

// ParseRequest decodes a JSON request.
func ParseRequest(data []byte) (Request, error) {
	return report.Parse(data)
}

// DecodeRequest reads a JSON request from r.
func DecodeRequest(r io.Reader) (Request, error) {
	return report.Decode(r)
}

var defaultCompiler = sync.OnceValue(func() *compiler.Compiler {
	return compiler.New(relgraph.MustEmbedded())
})

// Compile compiles req with the built-in relation graph.
func Compile(req Request) (*Plan, error) {
	return defaultCompiler().Compile(req)
}

// Preview compiles req and returns the statement text with literals inline.
func Preview(req Request) (string, error) {
	plan, err := Compile(req)
	if err != nil {
		return "", err
	}
	return plan.Statement(), nil
}
