package sqldsl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpr_SQL(t *testing.T) {
	sum := Func{Name: "SUM", Args: []Expr{Col{Table: "sales", Column: "total_amount"}}}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"bare column", Col{Column: "name"}, "name"},
		{"qualified column", Col{Table: "stores", Column: "name"}, "stores.name"},
		{"parsed column", ParseCol("stores.name"), "stores.name"},
		{"string value", Value{V: "Centro"}, "'Centro'"},
		{"numeric value", Value{V: json.Number("5")}, "5"},
		{"null value", Value{V: nil}, "NULL"},
		{"literal", Lit("it's"), "'it''s'"},
		{"function", sum, "SUM(sales.total_amount)"},
		{"alias", SelectAs(sum, "SUM_sales_total_amount"), "SUM(sales.total_amount) AS SUM_sales_total_amount"},
		{"paren", Paren{Expr: Raw("a OR b")}, "(a OR b)"},
		{"star", Star{}, "*"},
		{"int", Int(3), "3"},
		{"bool", Bool(false), "FALSE"},
		{"null", Null{}, "NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.SQL())
		})
	}
}

func TestOperators_SQL(t *testing.T) {
	col := Col{Table: "stores", Column: "id"}

	tests := []struct {
		name string
		expr Expr
		want string
	}{
		{"eq", Eq{Left: col, Right: Value{V: 5}}, "stores.id = 5"},
		{"ne", Ne{Left: col, Right: Value{V: 5}}, "stores.id <> 5"},
		{"lt", Lt{Left: col, Right: Value{V: 5}}, "stores.id < 5"},
		{"gte", Gte{Left: col, Right: Value{V: 5}}, "stores.id >= 5"},
		{"like", Like{Expr: col, Pattern: Value{V: "%a%"}}, "stores.id LIKE '%a%'"},
		{"not like", Like{Expr: col, Pattern: Value{V: "%a%"}, Not: true}, "stores.id NOT LIKE '%a%'"},
		{"in", In{Expr: col, Values: []Expr{Value{V: 1}, Value{V: "x"}}}, "stores.id IN (1, 'x')"},
		{"empty in", In{Expr: col}, "FALSE"},
		{"is null", IsNull{Expr: col}, "stores.id IS NULL"},
		{"is not null", IsNotNull{Expr: col}, "stores.id IS NOT NULL"},
		{"conjunction", All(Eq{Left: col, Right: Int(1)}, nil, IsNull{Expr: col}), "stores.id = 1 AND stores.id IS NULL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.SQL())
		})
	}
}

func TestCompare(t *testing.T) {
	col := Col{Column: "total"}
	for op, want := range map[string]string{
		"=":  "total = 1",
		"!=": "total <> 1",
		"<>": "total <> 1",
		"<":  "total < 1",
		">":  "total > 1",
		"<=": "total <= 1",
		">=": "total >= 1",
	} {
		e, ok := Compare(op, col, Int(1))
		assert.True(t, ok, op)
		assert.Equal(t, want, e.SQL(), op)
	}

	_, ok := Compare("LIKE", col, Int(1))
	assert.False(t, ok)
}
