// Package validate turns untyped JSON payloads into typed request structs.
// Validation happens in two passes that share one error list: coercion
// (is "title" a string, is "tagIds" an array of integers) and struct-tag
// rules run by go-playground/validator (length, enum membership, ranges).
// Every failing field is reported; nothing stops at the first error.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/keyxmakerx/tasktags/internal/apperror"
)

// hexColorPattern validates 7-character hex color strings (#RRGGBB).
var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

var (
	instance *validator.Validate
	once     sync.Once
)

// get returns the shared validator, configured on first use.
func get() *validator.Validate {
	once.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report JSON field names instead of Go field names.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// "color" accepts exactly #RRGGBB, the only format the UI renders.
		if err := v.RegisterValidation("color", isHexColor); err != nil {
			panic(fmt.Sprintf("registering color validation: %v", err))
		}

		instance = v
	})
	return instance
}

// isHexColor implements the "color" rule.
func isHexColor(fl validator.FieldLevel) bool {
	return hexColorPattern.MatchString(fl.Field().String())
}

// Errors accumulates field failures across coercion and rule checks.
// The zero value is ready to use.
type Errors struct {
	list []apperror.FieldError
	seen map[string]bool
}

// Add records a failure for field. Only the first failure per field is
// kept, so a type error is not followed by a redundant "is required".
func (e *Errors) Add(field, message string) {
	if e.seen == nil {
		e.seen = make(map[string]bool)
	}
	if e.seen[field] {
		return
	}
	e.seen[field] = true
	e.list = append(e.list, apperror.FieldError{Field: field, Message: message})
}

// Has reports whether field already failed.
func (e *Errors) Has(field string) bool {
	return e.seen[field]
}

// Len returns the number of recorded failures.
func (e *Errors) Len() int {
	return len(e.list)
}

// Err returns nil when no failures were recorded, otherwise a 400
// validation error listing all of them.
func (e *Errors) Err() error {
	if len(e.list) == 0 {
		return nil
	}
	return apperror.NewValidation(e.list)
}

// Struct runs the struct-tag rules on s and records each failure. Fields
// that already failed coercion are skipped.
func Struct(errs *Errors, s any) {
	err := get().Struct(s)
	if err == nil {
		return
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("", err.Error())
		return
	}

	for _, fe := range fieldErrs {
		field := fieldPath(fe)
		errs.Add(field, message(field, fe))
	}
}

// fieldPath strips the struct name from the namespace, turning
// "CreateTodoInput.tagIds[1]" into "tagIds[1]".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// message renders a human-readable reason for a failed rule.
func message(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must have at most %s items", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "color":
		return fmt.Sprintf("%s must be a valid hex color (e.g. #ff5733)", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// --- Payload coercion ---

// State describes how a key appeared in a payload.
type State int

const (
	// Absent means the key was not sent.
	Absent State = iota
	// Null means the key was sent with a JSON null.
	Null
	// Set means the key was sent with a value of the expected type.
	Set
	// Invalid means the key was sent with a value of the wrong type. The
	// failure has already been recorded.
	Invalid
)

// Payload is an untyped JSON object decoded from a request body.
type Payload map[string]any

// Decode reads a single JSON object from r. Numbers are kept as
// json.Number so integers are not silently rounded through float64.
func Decode(r io.Reader) (Payload, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var p Payload
	if err := dec.Decode(&p); err != nil {
		return nil, apperror.NewBadRequest("request body must be a JSON object")
	}
	if p == nil {
		return nil, apperror.NewBadRequest("request body must be a JSON object")
	}
	return p, nil
}

// lookup returns the raw value for the first of keys present in p.
// Later keys are aliases for the first.
func (p Payload) lookup(keys ...string) (string, any, bool) {
	for _, k := range keys {
		if v, ok := p[k]; ok {
			return k, v, true
		}
	}
	return keys[0], nil, false
}

// String reads a string under key (or one of its aliases).
func (p Payload) String(errs *Errors, keys ...string) (string, State) {
	key, raw, ok := p.lookup(keys...)
	if !ok {
		return "", Absent
	}
	if raw == nil {
		return "", Null
	}
	s, isString := raw.(string)
	if !isString {
		errs.Add(key, fmt.Sprintf("%s must be a string", key))
		return "", Invalid
	}
	return s, Set
}

// Bool reads a boolean under key.
func (p Payload) Bool(errs *Errors, key string) (bool, State) {
	raw, ok := p[key]
	if !ok {
		return false, Absent
	}
	if raw == nil {
		return false, Null
	}
	b, isBool := raw.(bool)
	if !isBool {
		errs.Add(key, fmt.Sprintf("%s must be a boolean", key))
		return false, Invalid
	}
	return b, Set
}

// Int64Slice reads an array of integers under key. Every element that is
// not an integer is reported with its index and left as 0 in the result, so
// later rule failures keep pointing at the right position.
func (p Payload) Int64Slice(errs *Errors, key string) ([]int64, State) {
	raw, ok := p[key]
	if !ok {
		return nil, Absent
	}
	if raw == nil {
		return nil, Null
	}
	items, isArray := raw.([]any)
	if !isArray {
		errs.Add(key, fmt.Sprintf("%s must be an array of integers", key))
		return nil, Invalid
	}

	out := make([]int64, len(items))
	for i, item := range items {
		n, isNumber := item.(json.Number)
		var v int64
		var err error
		if isNumber {
			v, err = n.Int64()
		}
		if !isNumber || err != nil {
			field := fmt.Sprintf("%s[%d]", key, i)
			errs.Add(field, fmt.Sprintf("%s must be an integer", field))
			continue
		}
		out[i] = v
	}
	return out, Set
}
