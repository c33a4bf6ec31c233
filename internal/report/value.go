package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// ScalarValue is a string, number, boolean or null literal.
	ScalarValue ValueKind = iota
	// ListValue is a list of scalars, used with IN.
	ListValue
	// RefValue is a column reference rendered unquoted.
	RefValue
)

func (k ValueKind) String() string {
	switch k {
	case ScalarValue:
		return "scalar"
	case ListValue:
		return "list"
	case RefValue:
		return "ref"
	}
	return fmt.Sprintf("ValueKind(%d)", int(k))
}

// Value is the right-hand side of a filter or HAVING clause.
//
// JSON forms:
//
//	"Centro", 5, true, null   scalar
//	[1, 2, 3]                 list
//	{"ref": "stores.id"}      column reference
//
// Numbers decode as json.Number so they render exactly as sent.
type Value struct {
	kind   ValueKind
	scalar any
	list   []any
	ref    string
}

// Scalar returns a scalar Value.
func Scalar(v any) Value { return Value{kind: ScalarValue, scalar: v} }

// List returns a list Value.
func List(vs ...any) Value { return Value{kind: ListValue, list: vs} }

// Ref returns a column reference Value.
func Ref(column string) Value { return Value{kind: RefValue, ref: column} }

// Kind reports the variant.
func (v Value) Kind() ValueKind { return v.kind }

// Scalar returns the scalar payload (nil for other kinds).
func (v Value) Scalar() any { return v.scalar }

// Items returns the list payload.
func (v Value) Items() []any { return v.list }

// Ref returns the referenced column.
func (v Value) Ref() string { return v.ref }

// IsNull reports whether v is the scalar null.
func (v Value) IsNull() bool { return v.kind == ScalarValue && v.scalar == nil }

// String returns the scalar as text when it is a string or number.
func (v Value) String() (string, bool) {
	switch s := v.scalar.(type) {
	case string:
		return s, true
	case json.Number:
		return s.String(), true
	}
	return "", false
}

func decodeNumber(data []byte, out any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(out)
}

// UnmarshalJSON implements json.Unmarshaler.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0:
		return errors.New("empty value")
	case data[0] == '[':
		var items []any
		if err := decodeNumber(data, &items); err != nil {
			return err
		}
		for i, item := range items {
			switch item.(type) {
			case map[string]any, []any:
				return fmt.Errorf("list item %d: only scalars are allowed", i)
			}
		}
		*v = List(items...)
	case data[0] == '{':
		var obj struct {
			Ref *string `json:"ref"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		if obj.Ref == nil {
			return errors.New(`object values must have the form {"ref": "table.column"}`)
		}
		*v = Ref(*obj.Ref)
	default:
		var s any
		if err := decodeNumber(data, &s); err != nil {
			return err
		}
		*v = Scalar(s)
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case ListValue:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case RefValue:
		return json.Marshal(map[string]string{"ref": v.ref})
	}
	return json.Marshal(v.scalar)
}
