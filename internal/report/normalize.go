package report

import (
	"fmt"
	"strings"

	"github.com/pthm/sqlreport/internal/codec"
)

// Normalize validates r and returns its canonical form:
//
//   - join types are resolved against the request default, then defaultJoin
//   - aggregation functions and directions are upper-cased
//   - empty columns and incomplete aggregations are dropped
//   - order directions default to ASC
//
// The receiver is not modified.
func (r Request) Normalize(defaultJoin JoinType) (Request, error) {
	if len(r.Tables) == 0 {
		return Request{}, ErrNoTables
	}

	out := Request{
		Columns: trimList(r.Columns),
		GroupBy: trimList(r.GroupBy),
		Having:  Having{Raw: strings.TrimSpace(r.Having.Raw)},
	}

	join := defaultJoin
	if r.JoinType != "" {
		jt, ok := ParseJoinType(string(r.JoinType))
		if !ok {
			return Request{}, invalid("joinType", "jointype", string(r.JoinType))
		}
		join = jt
	}
	if join == "" {
		join = InnerJoin
	}
	out.JoinType = join

	out.Tables = make([]TableRef, len(r.Tables))
	for i, t := range r.Tables {
		t.Name = strings.TrimSpace(t.Name)
		if t.JoinType == "" {
			t.JoinType = join
		} else {
			jt, ok := ParseJoinType(string(t.JoinType))
			if !ok {
				return Request{}, invalid(fmt.Sprintf("tables[%d].joinType", i), "jointype", string(t.JoinType))
			}
			t.JoinType = jt
		}
		if t.On != nil {
			on := OnCondition{Left: strings.TrimSpace(t.On.Left), Right: strings.TrimSpace(t.On.Right)}
			t.On = &on
		}
		out.Tables[i] = t
	}

	for _, a := range r.Aggregation {
		a.Func = strings.ToUpper(strings.TrimSpace(a.Func))
		a.Column = strings.TrimSpace(a.Column)
		if a.Func == "" || a.Column == "" {
			continue
		}
		out.Aggregation = append(out.Aggregation, a)
	}

	for i, f := range r.Filters {
		f.Column = strings.TrimSpace(f.Column)
		if op, ok := ParseOperator(string(f.Operator)); ok {
			f.Operator = op
		}
		f.Logic = strings.ToUpper(strings.TrimSpace(f.Logic))
		if f.Value.Kind() == ListValue && f.Operator != OpIn {
			return Request{}, invalid(fmt.Sprintf("filters[%d].value", i), "list values require IN", nil)
		}
		if f.Value.Kind() == ScalarValue && f.Operator == OpIn {
			if f.Value.IsNull() {
				f.Value = List()
			} else {
				f.Value = List(f.Value.Scalar())
			}
		}
		if err := checkRef(fmt.Sprintf("filters[%d].value", i), f.Value); err != nil {
			return Request{}, err
		}
		out.Filters = append(out.Filters, f)
	}

	for i, h := range r.Having.Clauses {
		h.Aggregation = strings.TrimSpace(h.Aggregation)
		if op, ok := ParseOperator(string(h.Operator)); ok {
			h.Operator = op
		}
		if h.Value.Kind() == ListValue {
			return Request{}, invalid(fmt.Sprintf("having[%d].value", i), "scalar", nil)
		}
		if err := checkRef(fmt.Sprintf("having[%d].value", i), h.Value); err != nil {
			return Request{}, err
		}
		out.Having.Clauses = append(out.Having.Clauses, h)
	}

	for _, o := range r.OrderBy {
		o.Column = strings.TrimSpace(o.Column)
		o.Direction = strings.ToUpper(strings.TrimSpace(o.Direction))
		if o.Direction == "" {
			o.Direction = "ASC"
		}
		out.OrderBy = append(out.OrderBy, o)
	}

	if err := Validate(out); err != nil {
		return Request{}, err
	}
	return out, nil
}

// TableNames returns the requested table names in order.
func (r Request) TableNames() []string {
	names := make([]string, len(r.Tables))
	for i, t := range r.Tables {
		names[i] = t.Name
	}
	return names
}

func checkRef(field string, v Value) error {
	if v.Kind() == RefValue && !codec.IsColumnRef(v.Ref()) {
		return invalid(field, "sqlcolumn", v.Ref())
	}
	return nil
}

func trimList(in ColumnList) ColumnList {
	var out ColumnList
	for _, c := range in {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
