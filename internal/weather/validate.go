package weather

import (
	"fmt"
	"reflect"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var iconPattern = regexp.MustCompile(`^\d{2}[dn]$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("iconcode", func(fl validator.FieldLevel) bool {
		return iconPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// Validator returns the validator used for provider and snapshot schemas,
// including the "iconcode" tag.
func Validator() *validator.Validate {
	return validate
}

type checker interface {
	Check() error
}

// ValidateShape validates a decoded value (struct or slice of structs) against
// its struct tags and, when implemented, its Check method. Failures are
// reported as *SchemaError.
func ValidateShape(provider string, v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return &SchemaError{Provider: provider, Details: "empty payload"}
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if err := validateOne(provider, rv.Index(i).Interface()); err != nil {
				var se *SchemaError
				if ok := asSchemaError(err, &se); ok {
					se.Details = fmt.Sprintf("[%d]: %s", i, se.Details)
				}
				return err
			}
		}
		return nil
	default:
		return validateOne(provider, rv.Interface())
	}
}

func validateOne(provider string, v any) error {
	if reflect.Indirect(reflect.ValueOf(v)).Kind() == reflect.Struct {
		if err := validate.Struct(v); err != nil {
			return &SchemaError{Provider: provider, Details: describeValidation(err)}
		}
	}
	if c, ok := v.(checker); ok {
		if err := c.Check(); err != nil {
			return &SchemaError{Provider: provider, Details: err.Error()}
		}
	}
	return nil
}

func asSchemaError(err error, target **SchemaError) bool {
	se, ok := err.(*SchemaError)
	if ok {
		*target = se
	}
	return ok
}

func describeValidation(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msg := ""
	for i, fe := range verrs {
		if i > 0 {
			msg += ", "
		}
		msg += fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return msg
}

// ValidateSnapshot is the final check applied to every assembled snapshot.
func ValidateSnapshot(s WeatherSnapshot) error {
	if err := s.Coordinates.Validate(); err != nil {
		return &SchemaError{Provider: s.Provider, Details: err.Error()}
	}
	if err := validate.Struct(s); err != nil {
		return &SchemaError{Provider: s.Provider, Details: describeValidation(err)}
	}
	return nil
}
