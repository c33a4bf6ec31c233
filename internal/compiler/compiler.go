// Package compiler turns a report request into a structured SELECT plan.
//
// Compilation is pure: the compiler holds a read-only relation graph and
// does no I/O. Tables that cannot be joined and ORDER BY terms that are not
// selected are skipped rather than failing the request; each skip is listed
// in Plan.Dropped.
package compiler

import (
	"log/slog"

	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
)

// Compiler compiles report requests against a relation graph. It is safe
// for concurrent use.
type Compiler struct {
	graph       *relgraph.Graph
	defaultJoin report.JoinType
	inferRefs   bool
	logger      *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithDefaultJoin sets the join type used when neither the request nor the
// table names one.
func WithDefaultJoin(j report.JoinType) Option {
	return func(c *Compiler) {
		c.defaultJoin = j
	}
}

// WithColumnRefInference controls whether string filter values shaped like
// "table.column" are column references. It is on by default; {"ref": ...}
// values are references either way.
func WithColumnRefInference(enabled bool) Option {
	return func(c *Compiler) {
		c.inferRefs = enabled
	}
}

// WithLogger sets the logger for skipped joins.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// New creates a Compiler. A nil graph infers no joins.
func New(graph *relgraph.Graph, opts ...Option) *Compiler {
	if graph == nil {
		graph, _ = relgraph.New(nil)
	}
	c := &Compiler{
		graph:       graph,
		defaultJoin: report.InnerJoin,
		inferRefs:   true,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Graph returns the relation graph used for join inference.
func (c *Compiler) Graph() *relgraph.Graph {
	return c.graph
}

// CompileOption carries per-request inputs.
type CompileOption func(*compileSettings)

type compileSettings struct {
	columnTypes map[string]string
}

// WithColumnTypes supplies catalog data types keyed by "table.column". They
// decide which columns are treated as dates under LIKE; columns without an
// entry fall back to a name check.
func WithColumnTypes(types map[string]string) CompileOption {
	return func(s *compileSettings) {
		s.columnTypes = types
	}
}
