// Package sqldsl provides a small typed DSL for building PostgreSQL report
// queries.
//
// # Overview
//
// Report clauses are assembled from typed building blocks rather than string
// concatenation. Every block renders in two ways:
//
//   - SQL() renders inline text where literal values are quoted in place.
//     This is the preview form shown to users.
//   - Bind(args) renders text with "?" placeholders and appends literal
//     values to args. This is the form handed to a driver.
//
// # Expression Types
//
//	Col{Table: "sales", Column: "total"}  // sales.total
//	Value{V: "Centro"}                    // 'Centro' (or ? when bound)
//	Lit("YYYY-MM-DD")                     // 'YYYY-MM-DD' (always inline)
//	Raw("SUM(total) > 10")                // raw text (escape hatch)
//	Func{Name: "SUM", Args: []Expr{col}}  // SUM(sales.total)
//	Alias{Expr: e, Name: "SUM_total"}     // e AS SUM_total
//	Star{}                                // *
//
// Operators:
//
//	Eq{Left: col, Right: Value{V: 5}}     // col = 5
//	Like{Expr: col, Pattern: v}           // col LIKE '%x%'
//	In{Expr: col, Values: vals}           // col IN (1, 2); FALSE when empty
//	IsNull{Expr: col}                     // col IS NULL
//
// # Statements
//
// SelectStmt keeps every clause as a list of expressions until render time.
// Its clause accessors (SelectSQL, FromSQL, ...) return clause bodies without
// keywords so callers can expose individual parts.
package sqldsl
