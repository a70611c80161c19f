// internal/resource/validate.go
//
// Request body decoding and validation.
//
// Workflow
// --------
//   1. Read one JSON object (bounded by maxBody).
//   2. Keep declared fields only; coerce each value by Field.Kind and trim
//      strings.
//   3. Run validator.ValidateMap with the field rules.  On update, only the
//      keys present are checked and "required" is relaxed.
//   4. Failures become a ValidationError listing every bad field, which the
//      handler renders as 422 rather than 500.

package resource

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBody = 1 << 20

var validate = func() *validator.Validate {
	v := validator.New()
	// Report JSON names so errors match the request body.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}()

// FieldError is one field-level failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"msg"`
}

// ValidationError wraps []FieldError and satisfies error.
type ValidationError struct{ Fields []FieldError }

func (ValidationError) Error() string { return "validation failed" }

// IsValidationError reports whether err came from Decode or Validate.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// Decode reads r's JSON body into a Row of declared fields.  partial
// selects update semantics.
func Decode(w http.ResponseWriter, r *http.Request, t Table, partial bool) (Row, error) {
	var raw map[string]any
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(&raw); err != nil {
		return nil, ValidationError{Fields: []FieldError{{Field: "body", Message: "must be a JSON object"}}}
	}
	return Validate(t, raw, partial)
}

// Validate coerces and checks raw against t.
func Validate(t Table, raw map[string]any, partial bool) (Row, error) {
	row := Row{}
	rules := map[string]any{}
	var bad []FieldError

	for _, f := range t.Fields {
		v, present := raw[f.Name]
		if partial && !present {
			continue
		}
		if present {
			cv, err := coerce(f.Kind, v)
			if err != nil {
				bad = append(bad, FieldError{Field: f.Name, Message: err.Error()})
				continue
			}
			row[f.Name] = cv
		}
		if rule := ruleFor(f.Rules, partial); rule != "" {
			rules[f.Name] = rule
		}
	}

	for field, e := range validate.ValidateMap(row, rules) {
		bad = append(bad, FieldError{Field: field, Message: message(e)})
	}
	if len(bad) > 0 {
		sort.Slice(bad, func(i, j int) bool { return bad[i].Field < bad[j].Field })
		return nil, ValidationError{Fields: bad}
	}
	return row, nil
}

// CheckStruct validates a struct with `validate` tags.  Field failures
// become a ValidationError keyed by JSON name.
func CheckStruct(v any) error {
	err := validate.Struct(v)
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	bad := make([]FieldError, 0, len(ve))
	for _, fe := range ve {
		bad = append(bad, FieldError{Field: fe.Field(), Message: message(validator.ValidationErrors{fe})})
	}
	return ValidationError{Fields: bad}
}

func coerce(k Kind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch k {
	case Int:
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, errors.New("must be an integer")
		}
		return int64(f), nil
	case Float:
		f, ok := v.(float64)
		if !ok {
			return nil, errors.New("must be a number")
		}
		return f, nil
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return nil, errors.New("must be a boolean")
		}
		return b, nil
	default:
		s, ok := v.(string)
		if !ok {
			return nil, errors.New("must be a string")
		}
		return strings.TrimSpace(s), nil
	}
}

// ruleFor relaxes rules for partial updates: "required" is dropped and
// "omitempty" prepended so an explicit null clears the column.
func ruleFor(rules string, partial bool) string {
	if !partial || rules == "" {
		return rules
	}
	var keep []string
	for _, r := range strings.Split(rules, ",") {
		if r != "required" && r != "omitempty" {
			keep = append(keep, r)
		}
	}
	if len(keep) == 0 {
		return ""
	}
	return "omitempty," + strings.Join(keep, ",")
}

func message(e any) string {
	var ve validator.ValidationErrors
	if err, ok := e.(error); ok && errors.As(err, &ve) && len(ve) > 0 {
		fe := ve[0]
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s", fe.Tag(), fe.Param())
		}
		return "failed " + fe.Tag()
	}
	return fmt.Sprint(e)
}
