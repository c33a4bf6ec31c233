// Package sqllint checks compiled report statements with the PostgreSQL
// parser before they leave the process.
package sqllint

import (
	"errors"
	"fmt"

	pg_query "github.com/pganalyze/pg_query_go/v5"
)

var (
	// ErrSyntax is returned when the statement does not parse.
	ErrSyntax = errors.New("sqllint: syntax error")

	// ErrNotSingleSelect is returned when the input is not exactly one
	// SELECT statement.
	ErrNotSingleSelect = errors.New("sqllint: expected a single SELECT statement")
)

// Check parses query and verifies it is one SELECT statement.
func Check(query string) error {
	tree, err := pg_query.Parse(query)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	if len(tree.Stmts) != 1 {
		return fmt.Errorf("%w: got %d statements", ErrNotSingleSelect, len(tree.Stmts))
	}
	if tree.Stmts[0].GetStmt().GetSelectStmt() == nil {
		return ErrNotSingleSelect
	}
	return nil
}

// Fingerprint returns the pg_query fingerprint of query. Statements that
// differ only in literal values share a fingerprint.
func Fingerprint(query string) (string, error) {
	fp, err := pg_query.Fingerprint(query)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSyntax, err)
	}
	return fp, nil
}
