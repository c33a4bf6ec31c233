package sqldsl

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBind_CollectsArgsInOrder(t *testing.T) {
	col := Col{Table: "sales", Column: "status"}
	expr := All(
		Eq{Left: col, Right: Value{V: "Closed"}},
		In{Expr: Col{Column: "store_id"}, Values: []Expr{Value{V: json.Number("1")}, Value{V: json.Number("2")}}},
		Like{Expr: Func{Name: "TO_CHAR", Args: []Expr{Col{Column: "created_at"}, Lit("YYYY-MM-DD")}}, Pattern: Value{V: "%2024%"}},
	)

	var args Args
	got := Bind(expr, &args)

	assert.Equal(t, "sales.status = ? AND store_id IN (?, ?) AND TO_CHAR(created_at, 'YYYY-MM-DD') LIKE ?", got)
	assert.Equal(t, []any{"Closed", "1", "2", "%2024%"}, args.Values())
	assert.Equal(t, 4, args.Len())
}

func TestBind_EscapesQuestionMarksInRawText(t *testing.T) {
	var args Args
	got := Bind(Raw("note = 'why?'"), &args)
	assert.Equal(t, "note = 'why??'", got)
	assert.Zero(t, args.Len())
}

func TestBind_NullChecksHaveNoArgs(t *testing.T) {
	var args Args
	got := Bind(IsNotNull{Expr: Col{Column: "coupon_id"}}, &args)
	assert.Equal(t, "coupon_id IS NOT NULL", got)
	assert.Empty(t, args.Values())
}
