package sqlreport

import (
	"errors"

	"github.com/pthm/sqlreport/internal/catalog"
	"github.com/pthm/sqlreport/internal/executor"
	"github.com/pthm/sqlreport/internal/relgraph"
	"github.com/pthm/sqlreport/internal/report"
)

// Sentinel errors for the failure modes callers are expected to handle.
//
// Skipped joins and ignored ORDER BY terms are not errors; they are listed in
// Plan.Dropped.
//
// Use the Is*Err helper functions to check for specific errors.
var (
	// ErrInvalidRequest is returned when a request fails validation. The
	// concrete error is usually a *report.ValidationError listing each field.
	ErrInvalidRequest = report.ErrInvalidRequest

	// ErrNoTables is returned when a request names no tables. It wraps
	// ErrInvalidRequest.
	ErrNoTables = report.ErrNoTables

	// ErrInvalidGraph is returned when a relation artifact is malformed.
	ErrInvalidGraph = relgraph.ErrInvalidGraph

	// ErrExecution is returned when the database rejects or fails a
	// compiled statement.
	ErrExecution = executor.ErrExecution

	// ErrCatalog is returned when schema metadata cannot be read.
	ErrCatalog = catalog.ErrCatalog
)

// IsInvalidRequestErr returns true if err is or wraps ErrInvalidRequest.
func IsInvalidRequestErr(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// IsNoTablesErr returns true if err is or wraps ErrNoTables.
func IsNoTablesErr(err error) bool {
	return errors.Is(err, ErrNoTables)
}

// IsInvalidGraphErr returns true if err is or wraps ErrInvalidGraph.
func IsInvalidGraphErr(err error) bool {
	return errors.Is(err, ErrInvalidGraph)
}

// IsExecutionErr returns true if err is or wraps ErrExecution.
func IsExecutionErr(err error) bool {
	return errors.Is(err, ErrExecution)
}

// IsCatalogErr returns true if err is or wraps ErrCatalog.
func IsCatalogErr(err error) bool {
	return errors.Is(err, ErrCatalog)
}
