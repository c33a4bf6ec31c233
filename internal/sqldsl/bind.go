package sqldsl

import "strings"

// Placeholder is the positional marker emitted by Bind. Drivers that need
// numbered placeholders rewrite it (squirrel.Dollar does).
const Placeholder = "?"

// Binder is implemented by expressions that carry bind arguments.
type Binder interface {
	Bind(args *Args) string
}

// Args collects bind arguments in render order.
type Args struct {
	values []any
}

// Add appends v and returns the placeholder for it.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return Placeholder
}

// Values returns the collected arguments.
func (a *Args) Values() []any {
	return a.values
}

// Len returns the number of collected arguments.
func (a *Args) Len() int {
	return len(a.values)
}

// Bind renders e with placeholders. Expressions that do not implement Binder
// render inline with literal question marks escaped as "??".
func Bind(e Expr, args *Args) string {
	if b, ok := e.(Binder); ok {
		return b.Bind(args)
	}
	return strings.ReplaceAll(e.SQL(), Placeholder, Placeholder+Placeholder)
}
