package binding

import (
	stderrors "errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wippyai/nativebind/errors"
)

// validate is shared; validator caches struct metadata per type.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks the `validate` tags of s. The first violation is
// reported as a precondition error on param, with the field as path.
func ValidateStruct(param string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.New(errors.PhaseValidate, errors.KindPrecondition).Param(param).Cause(err).Build()
	}

	fe := fieldErrs[0]
	detail := "failed " + fe.Tag()
	if fe.Param() != "" {
		detail += "=" + fe.Param()
	}
	return errors.New(errors.PhaseValidate, errors.KindPrecondition).
		Param(param).
		Path(fe.Field()).
		Value(fe.Value()).
		Detail("%s, got %v", detail, fe.Value()).
		Build()
}
