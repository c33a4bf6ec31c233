package compiler

import (
	"fmt"
	"strings"

	"github.com/pthm/sqlreport/internal/codec"
	"github.com/pthm/sqlreport/internal/report"
	"github.com/pthm/sqlreport/internal/sqldsl"
)

// buildWhere renders every filter and joins them with AND. Filter.Logic is
// not applied.
func (c *Compiler) buildWhere(filters []report.Filter, columnTypes map[string]string) sqldsl.Conjunction {
	conds := make([]sqldsl.Expr, 0, len(filters))
	for _, f := range filters {
		conds = append(conds, c.condition(f, columnTypes))
	}
	return sqldsl.All(conds...)
}

func (c *Compiler) condition(f report.Filter, columnTypes map[string]string) sqldsl.Expr {
	var left sqldsl.Expr = sqldsl.ParseCol(f.Column)
	v := c.resolveRef(f.Value)

	switch v.Kind() {
	case report.ListValue:
		values := make([]sqldsl.Expr, len(v.Items()))
		for i, item := range v.Items() {
			values[i] = sqldsl.Value{V: item}
		}
		return sqldsl.In{Expr: left, Values: values}

	case report.RefValue:
		right := sqldsl.ParseCol(strings.ToLower(v.Ref()))
		return compare(f.Operator, left, right)
	}

	if v.IsNull() {
		switch f.Operator {
		case report.OpEq:
			return sqldsl.IsNull{Expr: left}
		case report.OpNe:
			return sqldsl.IsNotNull{Expr: left}
		}
		return compare(f.Operator, left, sqldsl.Null{})
	}

	if f.Operator.IsPattern() {
		if isDateColumn(f.Column, columnTypes) {
			left = sqldsl.Func{Name: "TO_CHAR", Args: []sqldsl.Expr{left, sqldsl.Lit(codec.DateTimeFormat)}}
		}
		pattern := codec.LikePattern(scalarText(v))
		return sqldsl.Like{Expr: left, Pattern: sqldsl.Value{V: pattern}, Not: f.Operator == report.OpNotLike}
	}

	scalar := v.Scalar()
	if s, ok := scalar.(string); ok && f.Operator == report.OpEq && !codec.IsNumeric(s) {
		scalar = codec.Capitalize(s)
	}
	return compare(f.Operator, left, sqldsl.Value{V: scalar})
}

// resolveRef turns "table.column" string scalars into column references.
func (c *Compiler) resolveRef(v report.Value) report.Value {
	if !c.inferRefs || v.Kind() != report.ScalarValue {
		return v
	}
	if s, ok := v.Scalar().(string); ok && codec.LooksLikeColumnRef(s) {
		return report.Ref(s)
	}
	return v
}

func compare(op report.Operator, left, right sqldsl.Expr) sqldsl.Expr {
	switch op {
	case report.OpLike, report.OpNotLike:
		return sqldsl.Like{Expr: left, Pattern: right, Not: op == report.OpNotLike}
	case report.OpIn:
		return sqldsl.In{Expr: left, Values: []sqldsl.Expr{right}}
	}
	if e, ok := sqldsl.Compare(string(op), left, right); ok {
		return e
	}
	// Operators are validated during normalization.
	panic(fmt.Sprintf("compiler: unexpected operator %q", op))
}

func scalarText(v report.Value) string {
	if s, ok := v.String(); ok {
		return s
	}
	return fmt.Sprint(v.Scalar())
}

func isDateColumn(column string, columnTypes map[string]string) bool {
	if t, ok := columnTypes[column]; ok {
		return codec.IsDateType(t)
	}
	return codec.IsDateLikeName(column)
}
