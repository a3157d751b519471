package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

// validate returns the shared struct validator.
// Field errors are reported under their JSON names.
func validate() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0] //nolint:mnd // name,options
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		//nolint:errcheck // tag name and func are static; registration cannot fail
		v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
			_, ok := parseTimeOfDay(fl.Field().String())
			return ok
		})
		//nolint:errcheck // static registration
		v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
			_, bad := AsInvalid[time.Time](ValidateDate(fl.Field().String(), ""))
			return !bad
		})
		structValidator = v
	})
	return structValidator
}

// Struct validates v against its `validate` struct tags.
//
// The first failing field becomes an Invalid whose Parameter is
// "<parameter>.<json field>".
func Struct[T any](v T, parameter string) Outcome[T] {
	err := validate().Struct(v)
	if err == nil {
		return Success(v, parameter)
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return Failure(parameter,
			fmt.Sprintf("validating %s: %v", parameter, err),
			"invalid request payload",
			"")
	}

	fe := fieldErrs[0]
	name := fe.Field()
	if parameter != "" {
		name = parameter + "." + name
	}
	raw := fmt.Sprintf("%v", fe.Value())
	return Failure(name,
		fmt.Sprintf("field %s failed rule %q (param %q): %s", name, fe.Tag(), fe.Param(), raw),
		fmt.Sprintf("invalid value for %s", fe.Field()),
		raw)
}
