package sqldsl

import (
	"strings"
)

// binary formats "left op right" with either renderer.
func binary(left Expr, op string, right Expr, args *Args) string {
	if args == nil {
		return left.SQL() + " " + op + " " + right.SQL()
	}
	return Bind(left, args) + " " + op + " " + Bind(right, args)
}

// Comparison operators

// Eq represents an equality comparison (=).
type Eq struct {
	Left  Expr
	Right Expr
}

func (e Eq) SQL() string { return binary(e.Left, "=", e.Right, nil) }
func (e Eq) Bind(args *Args) string { return binary(e.Left, "=", e.Right, args) }

// Ne represents a not-equal comparison (<>).
type Ne struct {
	Left  Expr
	Right Expr
}

func (n Ne) SQL() string { return binary(n.Left, "<>", n.Right, nil) }
func (n Ne) Bind(args *Args) string { return binary(n.Left, "<>", n.Right, args) }

// Lt represents a less-than comparison (<).
type Lt struct {
	Left  Expr
	Right Expr
}

func (l Lt) SQL() string { return binary(l.Left, "<", l.Right, nil) }
func (l Lt) Bind(args *Args) string { return binary(l.Left, "<", l.Right, args) }

// Gt represents a greater-than comparison (>).
type Gt struct {
	Left  Expr
	Right Expr
}

func (g Gt) SQL() string { return binary(g.Left, ">", g.Right, nil) }
func (g Gt) Bind(args *Args) string { return binary(g.Left, ">", g.Right, args) }

// Lte represents a less-than-or-equal comparison (<=).
type Lte struct {
	Left  Expr
	Right Expr
}

func (l Lte) SQL() string { return binary(l.Left, "<=", l.Right, nil) }
func (l Lte) Bind(args *Args) string { return binary(l.Left, "<=", l.Right, args) }

// Gte represents a greater-than-or-equal comparison (>=).
type Gte struct {
	Left  Expr
	Right Expr
}

func (g Gte) SQL() string { return binary(g.Left, ">=", g.Right, nil) }
func (g Gte) Bind(args *Args) string { return binary(g.Left, ">=", g.Right, args) }

// Compare builds the comparison for a textual operator. It reports false
// for operators that are not plain comparisons.
func Compare(op string, left, right Expr) (Expr, bool) {
	switch op {
	case "=":
		return Eq{Left: left, Right: right}, true
	case "!=", "<>":
		return Ne{Left: left, Right: right}, true
	case "<":
		return Lt{Left: left, Right: right}, true
	case ">":
		return Gt{Left: left, Right: right}, true
	case "<=":
		return Lte{Left: left, Right: right}, true
	case ">=":
		return Gte{Left: left, Right: right}, true
	}
	return nil, false
}

// Like represents a LIKE or NOT LIKE pattern match.
type Like struct {
	Expr    Expr
	Pattern Expr
	Not     bool
}

func (l Like) op() string {
	if l.Not {
		return "NOT LIKE"
	}
	return "LIKE"
}

func (l Like) SQL() string { return binary(l.Expr, l.op(), l.Pattern, nil) }
func (l Like) Bind(args *Args) string { return binary(l.Expr, l.op(), l.Pattern, args) }

// In represents an IN list. An empty list renders FALSE.
type In struct {
	Expr   Expr
	Values []Expr
}

func (i In) SQL() string { return i.render(nil) }

func (i In) Bind(args *Args) string { return i.render(args) }

func (i In) render(args *Args) string {
	if len(i.Values) == 0 {
		return "FALSE"
	}
	parts := make([]string, len(i.Values))
	for n, v := range i.Values {
		if args == nil {
			parts[n] = v.SQL()
		} else {
			parts[n] = Bind(v, args)
		}
	}
	left := i.Expr.SQL()
	if args != nil {
		left = Bind(i.Expr, args)
	}
	return left + " IN (" + strings.Join(parts, ", ") + ")"
}

// Logical operators

// filterNilExprs removes nil expressions from the slice.
func filterNilExprs(exprs []Expr) []Expr {
	filtered := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if e != nil {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// joinExprs renders expressions joined by sep without wrapping parentheses.
func joinExprs(exprs []Expr, sep string, args *Args) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		if args == nil {
			parts[i] = e.SQL()
		} else {
			parts[i] = Bind(e, args)
		}
	}
	return strings.Join(parts, sep)
}

// Conjunction is a flat AND list as used at the top level of WHERE and
// HAVING. Unlike a nested AND it is never parenthesized.
type Conjunction struct {
	Exprs []Expr
}

// All creates a Conjunction, skipping nil expressions.
func All(exprs ...Expr) Conjunction {
	return Conjunction{Exprs: filterNilExprs(exprs)}
}

func (c Conjunction) SQL() string { return joinExprs(c.Exprs, " AND ", nil) }
func (c Conjunction) Bind(args *Args) string { return joinExprs(c.Exprs, " AND ", args) }

// Empty reports whether the conjunction has no terms.
func (c Conjunction) Empty() bool { return len(c.Exprs) == 0 }

// IsNull represents IS NULL check.
type IsNull struct {
	Expr Expr
}

func (i IsNull) SQL() string { return i.Expr.SQL() + " IS NULL" }
func (i IsNull) Bind(args *Args) string { return Bind(i.Expr, args) + " IS NULL" }

// IsNotNull represents IS NOT NULL check.
type IsNotNull struct {
	Expr Expr
}

func (i IsNotNull) SQL() string { return i.Expr.SQL() + " IS NOT NULL" }
func (i IsNotNull) Bind(args *Args) string { return Bind(i.Expr, args) + " IS NOT NULL" }
