// Package report defines the report request model: JSON decoding,
// normalization and validation.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Request is a report as submitted by a client. Fields accept the loose
// shapes older clients send; Normalize produces the canonical form.
type Request struct {
	Tables      []TableRef    `json:"tables" validate:"dive"`
	JoinType    JoinType      `json:"joinType,omitempty"`
	Columns     ColumnList    `json:"columns,omitempty" validate:"dive,sqlcolumn"`
	Aggregation []Aggregation `json:"aggregation,omitempty" validate:"dive"`
	Filters     []Filter      `json:"filters,omitempty" validate:"dive"`
	Having      Having        `json:"having,omitempty"`
	OrderBy     []OrderClause `json:"orderBy,omitempty" validate:"dive"`
	GroupBy     ColumnList    `json:"groupBy,omitempty" validate:"dive,sqlcolumn"`
}

// TableRef names a table to include. JoinType overrides the request default
// and On replaces join inference.
type TableRef struct {
	Name     string       `json:"name" validate:"required,sqlident"`
	JoinType JoinType     `json:"joinType,omitempty"`
	On       *OnCondition `json:"on,omitempty"`
}

// UnmarshalJSON accepts a bare table name or an object. "type" is read as
// an alias of "joinType".
func (t *TableRef) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*t = TableRef{Name: name}
		return nil
	}
	var raw struct {
		Name     string       `json:"name"`
		JoinType JoinType     `json:"joinType"`
		Type     JoinType     `json:"type"`
		On       *OnCondition `json:"on"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = TableRef{Name: raw.Name, JoinType: raw.JoinType, On: raw.On}
	if t.JoinType == "" {
		t.JoinType = raw.Type
	}
	return nil
}

// OnCondition is an explicit join condition "left = right".
type OnCondition struct {
	Left  string `json:"left" validate:"required,sqlcolumn"`
	Right string `json:"right" validate:"required,sqlcolumn"`
}

// ColumnList is a list of column references. JSON accepts strings,
// {"column": "..."} objects, or a single comma separated string.
type ColumnList []string

// UnmarshalJSON implements json.Unmarshaler.
func (c *ColumnList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = nil
		for _, part := range strings.Split(s, ",") {
			*c = append(*c, strings.TrimSpace(part))
		}
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	out := make(ColumnList, 0, len(items))
	for i, item := range items {
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var obj struct {
			Column string `json:"column"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			return fmt.Errorf("column %d: %w", i, err)
		}
		out = append(out, obj.Column)
	}
	*c = out
	return nil
}

// Aggregation is an aggregate function applied to a column.
type Aggregation struct {
	Func   string `json:"func" validate:"oneof=SUM AVG COUNT MAX MIN"`
	Column string `json:"column" validate:"required,sqlcolumn"`
}

// Alias is the output name: FUNC_table_column.
func (a Aggregation) Alias() string {
	return a.Func + "_" + strings.ReplaceAll(a.Column, ".", "_")
}

// Expr renders FUNC(column).
func (a Aggregation) Expr() string {
	return a.Func + "(" + a.Column + ")"
}

// Operator is a filter or HAVING comparison operator.
type Operator string

const (
	OpEq      Operator = "="
	OpNe      Operator = "!="
	OpLt      Operator = "<"
	OpGt      Operator = ">"
	OpLte     Operator = "<="
	OpGte     Operator = ">="
	OpLike    Operator = "LIKE"
	OpNotLike Operator = "NOT LIKE"
	OpIn      Operator = "IN"
)

// ParseOperator normalizes case and spacing. "<>" is read as "!=".
func ParseOperator(s string) (Operator, bool) {
	op := Operator(strings.ToUpper(strings.Join(strings.Fields(s), " ")))
	switch op {
	case "<>":
		return OpNe, true
	case OpEq, OpNe, OpLt, OpGt, OpLte, OpGte, OpLike, OpNotLike, OpIn:
		return op, true
	}
	return op, false
}

// IsComparison reports whether op is one of = != < > <= >=.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpGt, OpLte, OpGte:
		return true
	}
	return false
}

// IsPattern reports whether op is LIKE or NOT LIKE.
func (op Operator) IsPattern() bool {
	return op == OpLike || op == OpNotLike
}

// Filter is a single WHERE condition. Logic is carried but conditions are
// always combined with AND.
type Filter struct {
	Column   string   `json:"column" validate:"required,sqlcolumn"`
	Operator Operator `json:"operator" validate:"filterop"`
	Value    Value    `json:"value"`
	Logic    string   `json:"logic,omitempty" validate:"omitempty,oneof=AND OR"`
}

// HavingClause is a single HAVING condition over an aggregate expression.
type HavingClause struct {
	Aggregation string   `json:"aggregation" validate:"required,sqlaggregate"`
	Operator    Operator `json:"operator" validate:"havingop"`
	Value       Value    `json:"value"`
}

// Having is either a list of clauses or a pre-rendered string.
type Having struct {
	Raw     string         `json:"raw" validate:"omitempty,rawsql"`
	Clauses []HavingClause `json:"clauses" validate:"dive"`
}

// Empty reports whether no HAVING was given.
func (h Having) Empty() bool {
	return strings.TrimSpace(h.Raw) == "" && len(h.Clauses) == 0
}

// UnmarshalJSON accepts null, a string, or a list of clauses.
func (h *Having) UnmarshalJSON(data []byte) error {
	*h = Having{}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(data, &h.Raw); err == nil {
		return nil
	}
	return json.Unmarshal(data, &h.Clauses)
}

// MarshalJSON writes the string form when Raw is set.
func (h Having) MarshalJSON() ([]byte, error) {
	if h.Raw != "" {
		return json.Marshal(h.Raw)
	}
	if h.Clauses == nil {
		return []byte("null"), nil
	}
	return json.Marshal(h.Clauses)
}

// OrderClause orders the result by a selected column.
type OrderClause struct {
	Column    string `json:"column" validate:"required,sqlcolumn"`
	Direction string `json:"direction,omitempty" validate:"omitempty,oneof=ASC DESC"`
}

// Decode reads a JSON request from r.
func Decode(r io.Reader) (Request, error) {
	var req Request
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return Request{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return req, nil
}

// Parse decodes a JSON request from data.
func Parse(data []byte) (Request, error) {
	return Decode(bytes.NewReader(data))
}
