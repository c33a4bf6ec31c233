// Package doctor provides health checks for report infrastructure.
//
// The doctor command validates that the relation graph is well formed, that
// the compiler produces parseable statements over it, and, when a database is
// configured, that the graph matches the foreign keys the database declares.
//
// Example usage:
//
//	d := doctor.New(graph, "embedded", doctor.WithCatalog(catalog.New(db)))
//	report, err := d.Run(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	report.Print(os.Stdout, true) // verbose=true
package doctor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/compiler"
	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqllint"
)

// Status represents the result of a health check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical issue that will cause failures.
	StatusFail
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// Symbol returns a status indicator symbol for terminal output.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return "✓"
	case StatusWarn:
		return "⚠"
	case StatusFail:
		return "✗"
	default:
		return "?"
	}
}

// CheckResult represents the outcome of a single health check.
type CheckResult struct {
	// Category groups related checks (e.g., "Relation Graph", "Database").
	Category string

	// Name is a short identifier for the check.
	Name string

	// Status is the check outcome.
	Status Status

	// Message is a human-readable description of the result.
	Message string

	// Details provides additional information for verbose output.
	Details string

	// FixHint suggests how to resolve issues.
	FixHint string
}

// Report contains all health check results.
type Report struct {
	Checks []CheckResult

	// Summary counts.
	Passed   int
	Warnings int
	Errors   int
}

// AddCheck adds a check result and updates summary counts.
func (r *Report) AddCheck(check CheckResult) {
	r.Checks = append(r.Checks, check)
	switch check.Status {
	case StatusPass:
		r.Passed++
	case StatusWarn:
		r.Warnings++
	case StatusFail:
		r.Errors++
	}
}

// Print writes the report to the given writer.
func (r *Report) Print(w io.Writer, verbose bool) {
	// Group checks by category
	categories := make(map[string][]CheckResult)
	var categoryOrder []string
	for _, check := range r.Checks {
		if _, exists := categories[check.Category]; !exists {
			categoryOrder = append(categoryOrder, check.Category)
		}
		categories[check.Category] = append(categories[check.Category], check)
	}

	// Print each category
	for _, cat := range categoryOrder {
		_, _ = fmt.Fprintf(w, "\n%s\n", cat)
		for _, check := range categories[cat] {
			_, _ = fmt.Fprintf(w, "  %s %s\n", check.Status.Symbol(), check.Message)
			if verbose && check.Details != "" {
				// Indent details
				for _, line := range strings.Split(check.Details, "\n") {
					_, _ = fmt.Fprintf(w, "      %s\n", line)
				}
			}
			if check.Status != StatusPass && check.FixHint != "" {
				_, _ = fmt.Fprintf(w, "      Fix: %s\n", check.FixHint)
			}
		}
	}

	// Print summary
	_, _ = fmt.Fprintf(w, "\nSummary: %d passed, %d warnings, %d errors\n",
		r.Passed, r.Warnings, r.Errors)
}

// HasErrors returns true if any check failed.
func (r *Report) HasErrors() bool {
	return r.Errors > 0
}

// Catalog reads live schema metadata. *catalog.Catalog implements it.
type Catalog interface {
	TableNames(ctx context.Context) ([]string, error)
	Relations(ctx context.Context) ([]catalog.Relation, error)
}

// Doctor performs health checks on a relation graph and, optionally, the
// database it describes.
type Doctor struct {
	graph   *relgraph.Graph
	source  string
	catalog Catalog
}

// Option configures a Doctor.
type Option func(*Doctor)

// WithCatalog enables the database checks.
func WithCatalog(c Catalog) Option {
	return func(d *Doctor) {
		d.catalog = c
	}
}

// New creates a new Doctor for graph. source names where the graph was
// loaded from and is only used in messages.
func New(graph *relgraph.Graph, source string, opts ...Option) *Doctor {
	d := &Doctor{graph: graph, source: source}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes all health checks and returns a report. Database failures are
// reported as failed checks rather than errors.
func (d *Doctor) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	d.checkGraph(report)
	d.checkNaming(report)
	if err := d.checkCompiler(report); err != nil {
		return nil, fmt.Errorf("checking compiler: %w", err)
	}
	if d.catalog != nil {
		d.checkDatabase(ctx, report)
	}

	return report, nil
}

const (
	categoryGraph    = "Relation Graph"
	categoryCompiler = "Compiler"
	categoryDatabase = "Database"
)

// checkGraph reports graph size and connectivity.
func (d *Doctor) checkGraph(report *Report) {
	tables := d.graph.Tables()
	if len(tables) == 0 {
		report.AddCheck(CheckResult{
			Category: categoryGraph,
			Name:     "loaded",
			Status:   StatusFail,
			Message:  fmt.Sprintf("Relation graph from %s is empty", d.source),
			FixHint:  "Declare foreign keys in the relation artifact or set graph.source to catalog",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: categoryGraph,
		Name:     "loaded",
		Status:   StatusPass,
		Message: fmt.Sprintf("Relation graph loaded from %s (%d tables, %d foreign keys)",
			d.source, len(tables), len(d.graph.ForeignKeys())),
	})

	components := d.graph.Components()
	if len(components) > 1 {
		lines := make([]string, len(components))
		for i, c := range components {
			lines[i] = strings.Join(c, ", ")
		}
		report.AddCheck(CheckResult{
			Category: categoryGraph,
			Name:     "connected",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("Graph has %d disconnected groups; tables in different groups never join", len(components)),
			Details:  strings.Join(lines, "\n"),
			FixHint:  "Add the missing foreign keys or use an explicit on condition",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: categoryGraph,
		Name:     "connected",
		Status:   StatusPass,
		Message:  "All tables are reachable from each other",
	})
}

// checkNaming flags foreign key columns that do not follow the
// <singular>_id convention. Legacy artifacts rely on it to infer ownership.
func (d *Doctor) checkNaming(report *Report) {
	var odd []string
	for _, fk := range d.graph.ForeignKeys() {
		if fk.Column != relgraph.ConventionalColumn(fk.References) {
			odd = append(odd, fmt.Sprintf("%s (expected %s)", fk, relgraph.ConventionalColumn(fk.References)))
		}
	}

	if len(odd) > 0 {
		report.AddCheck(CheckResult{
			Category: categoryGraph,
			Name:     "naming",
			Status:   StatusWarn,
			Message:  fmt.Sprintf("%d foreign key columns do not follow the <table>_id convention", len(odd)),
			Details:  strings.Join(odd, "\n"),
			FixHint:  "Keep these keys in foreign_keys form; adjacency form cannot infer their owner",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: categoryGraph,
		Name:     "naming",
		Status:   StatusPass,
		Message:  "Foreign key columns follow the <table>_id convention",
	})
}

// checkCompiler compiles a two-table join for every edge and parses the
// result.
func (d *Doctor) checkCompiler(rep *Report) error {
	c := compiler.New(d.graph)

	var failures []string
	checked := 0
	for _, fk := range d.graph.ForeignKeys() {
		if fk.Table == fk.References {
			continue
		}
		plan, err := c.Compile(report.Request{
			Tables:  []report.TableRef{{Name: fk.Table}, {Name: fk.References}},
			Columns: report.ColumnList{fk.Table + "." + fk.Column},
		})
		if err != nil {
			return fmt.Errorf("%s: %w", fk, err)
		}
		checked++
		if len(plan.Dropped) > 0 {
			failures = append(failures, fmt.Sprintf("%s: %s", fk, plan.Dropped[0].Reason))
			continue
		}
		if err := sqllint.Check(plan.Statement()); err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", fk, err))
		}
	}

	if len(failures) > 0 {
		rep.AddCheck(CheckResult{
			Category: categoryCompiler,
			Name:     "joins",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d of %d join statements failed", len(failures), checked),
			Details:  strings.Join(failures, "\n"),
		})
		return nil
	}

	rep.AddCheck(CheckResult{
		Category: categoryCompiler,
		Name:     "joins",
		Status:   StatusPass,
		Message:  fmt.Sprintf("All %d join statements parse", checked),
	})
	return nil
}

// checkDatabase compares the graph with the database catalog.
func (d *Doctor) checkDatabase(ctx context.Context, report *Report) {
	names, err := d.catalog.TableNames(ctx)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryDatabase,
			Name:     "connection",
			Status:   StatusFail,
			Message:  "Cannot read the database catalog",
			Details:  err.Error(),
			FixHint:  "Check database.url or the discrete database settings",
		})
		return
	}

	report.AddCheck(CheckResult{
		Category: categoryDatabase,
		Name:     "connection",
		Status:   StatusPass,
		Message:  fmt.Sprintf("Connected (%d tables)", len(names)),
	})

	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	var missing []string
	for _, t := range d.graph.Tables() {
		if !present[t] {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		report.AddCheck(CheckResult{
			Category: categoryDatabase,
			Name:     "tables",
			Status:   StatusFail,
			Message:  fmt.Sprintf("%d graph tables do not exist in the database", len(missing)),
			Details:  strings.Join(missing, "\n"),
			FixHint:  "Remove them from the relation artifact or point graph.source at the catalog",
		})
	} else {
		report.AddCheck(CheckResult{
			Category: categoryDatabase,
			Name:     "tables",
			Status:   StatusPass,
			Message:  "Every graph table exists in the database",
		})
	}

	rels, err := d.catalog.Relations(ctx)
	if err != nil {
		report.AddCheck(CheckResult{
			Category: categoryDatabase,
			Name:     "drift",
			Status:   StatusFail,
			Message:  "Cannot read foreign keys",
			Details:  err.Error(),
		})
		return
	}

	onlyDB, onlyGraph := diffKeys(rels, d.graph.ForeignKeys(), present)
	if len(onlyDB) == 0 && len(onlyGraph) == 0 {
		report.AddCheck(CheckResult{
			Category: categoryDatabase,
			Name:     "drift",
			Status:   StatusPass,
			Message:  "Graph matches the database foreign keys",
		})
		return
	}

	var details []string
	for _, k := range onlyDB {
		details = append(details, "database only: "+k)
	}
	for _, k := range onlyGraph {
		details = append(details, "graph only:    "+k)
	}
	report.AddCheck(CheckResult{
		Category: categoryDatabase,
		Name:     "drift",
		Status:   StatusWarn,
		Message: fmt.Sprintf("Graph and database disagree (%d database only, %d graph only)",
			len(onlyDB), len(onlyGraph)),
		Details: strings.Join(details, "\n"),
		FixHint: "Run 'sqlreport graph show --from-db' and update the relation artifact",
	})
}

// diffKeys compares database relations with graph keys. Graph keys whose
// tables are missing from the database are reported by the tables check and
// skipped here.
func diffKeys(rels []catalog.Relation, keys []relgraph.ForeignKey, present map[string]bool) (onlyDB, onlyGraph []string) {
	db := make(map[string]bool, len(rels))
	for _, r := range rels {
		db[r.ForeignKey().String()] = true
	}
	graph := make(map[string]bool, len(keys))
	for _, k := range keys {
		graph[k.String()] = true
	}

	for k := range db {
		if !graph[k] {
			onlyDB = append(onlyDB, k)
		}
	}
	for _, k := range keys {
		if !db[k.String()] && present[k.Table] && present[k.References] {
			onlyGraph = append(onlyGraph, k.String())
		}
	}
	sort.Strings(onlyDB)
	sort.Strings(onlyGraph)
	return onlyDB, onlyGraph
}
