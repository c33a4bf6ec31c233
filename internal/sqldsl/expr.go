package sqldsl

import (
	"strconv"
	"strings"

	"github.com/pthm/sqlreport/internal/codec"
)

// Expr is the interface that all SQL expression types implement.
type Expr interface {
	SQL() string
}

// Col represents a column reference (e.g., sales.total).
type Col struct {
	Table  string
	Column string
}

// ParseCol splits "table.column" into a Col. A bare name yields a Col
// without table.
func ParseCol(ref string) Col {
	if table, column, ok := strings.Cut(ref, "."); ok {
		return Col{Table: table, Column: column}
	}
	return Col{Column: ref}
}

// SQL renders the column reference.
func (c Col) SQL() string {
	if c.Table == "" {
		return c.Column
	}
	return c.Table + "." + c.Column
}

// String returns the dotted form.
func (c Col) String() string { return c.SQL() }

// Value is a user supplied scalar. It renders as a quoted literal inline and
// as a placeholder when bound.
type Value struct {
	V any
}

// SQL renders the value as a literal.
func (v Value) SQL() string { return codec.Quote(v.V) }

// Bind appends the value to args.
func (v Value) Bind(args *Args) string { return args.Add(codec.BindValue(v.V)) }

// Lit represents a fixed string literal that is always rendered inline.
type Lit string

// SQL renders the literal with single quotes.
func (l Lit) SQL() string {
	return codec.QuoteString(string(l))
}

// Raw is an escape hatch for arbitrary SQL expressions.
type Raw string

// SQL renders the raw SQL as-is.
func (r Raw) SQL() string {
	return string(r)
}

// Int represents an integer literal.
type Int int

// SQL renders the integer.
func (i Int) SQL() string {
	return strconv.Itoa(int(i))
}

// Bool represents a boolean literal.
type Bool bool

// SQL renders the boolean.
func (b Bool) SQL() string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

// Null represents SQL NULL.
type Null struct{}

// SQL renders NULL.
func (Null) SQL() string {
	return "NULL"
}

// Star represents the * projection.
type Star struct{}

// SQL renders *.
func (Star) SQL() string { return "*" }

// Func represents a SQL function call.
type Func struct {
	Name string
	Args []Expr
}

// SQL renders the function call.
func (f Func) SQL() string {
	return f.render(func(e Expr) string { return e.SQL() })
}

// Bind renders the function call with bound arguments.
func (f Func) Bind(args *Args) string {
	return f.render(func(e Expr) string { return Bind(e, args) })
}

func (f Func) render(fn func(Expr) string) string {
	parts := make([]string, len(f.Args))
	for i, arg := range f.Args {
		parts[i] = fn(arg)
	}
	return f.Name + "(" + strings.Join(parts, ", ") + ")"
}

// Alias wraps an expression with an alias (expr AS alias).
type Alias struct {
	Expr Expr
	Name string
}

// SQL renders the aliased expression.
func (a Alias) SQL() string {
	return a.Expr.SQL() + " AS " + a.Name
}

// Bind renders the aliased expression with bound arguments.
func (a Alias) Bind(args *Args) string {
	return Bind(a.Expr, args) + " AS " + a.Name
}

// Paren wraps an expression in parentheses.
type Paren struct {
	Expr Expr
}

// SQL renders the parenthesized expression.
func (p Paren) SQL() string {
	return "(" + p.Expr.SQL() + ")"
}

// Bind renders the parenthesized expression with bound arguments.
func (p Paren) Bind(args *Args) string {
	return "(" + Bind(p.Expr, args) + ")"
}

// SelectAs creates an aliased column expression (expr AS alias).
func SelectAs(expr Expr, alias string) Alias {
	return Alias{Expr: expr, Name: alias}
}
