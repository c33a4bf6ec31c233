package report

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/pthm/sqlreport/internal/codec"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "sqlident", func(fl validator.FieldLevel) bool {
			return codec.IsIdentifier(fl.Field().String())
		})
		mustRegister(v, "sqlcolumn", func(fl validator.FieldLevel) bool {
			return codec.IsColumnRef(fl.Field().String())
		})
		mustRegister(v, "sqlaggregate", func(fl validator.FieldLevel) bool {
			fn, _, ok := codec.ParseAggregate(fl.Field().String())
			return ok && IsAggregateFunc(fn)
		})
		mustRegister(v, "filterop", func(fl validator.FieldLevel) bool {
			_, ok := ParseOperator(fl.Field().String())
			return ok
		})
		mustRegister(v, "havingop", func(fl validator.FieldLevel) bool {
			op, ok := ParseOperator(fl.Field().String())
			return ok && op.IsComparison()
		})
		mustRegister(v, "rawsql", func(fl validator.FieldLevel) bool {
			return isSafeFragment(fl.Field().String())
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// IsAggregateFunc reports whether fn is one of the supported aggregate
// functions.
func IsAggregateFunc(fn string) bool {
	switch strings.ToUpper(fn) {
	case "SUM", "AVG", "COUNT", "MAX", "MIN":
		return true
	}
	return false
}

// isSafeFragment rejects text that could end the statement or hide the rest
// of it.
func isSafeFragment(s string) bool {
	return !strings.ContainsAny(s, ";") &&
		!strings.Contains(s, "--") &&
		!strings.Contains(s, "/*")
}

// Validate checks field-level rules on r. It does not apply defaults; call
// Normalize for the full pipeline.
func Validate(r Request) error {
	err := validatorInstance().Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out.Fields = append(out.Fields, FieldError{
			Field: fieldPath(fe.Namespace()),
			Rule:  rule,
			Value: fe.Value(),
		})
	}
	return out
}

// fieldPath turns "Request.filters[0].column" into "filters[0].column".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}
