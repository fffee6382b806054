// Package validation checks untrusted form payloads against the constraint
// tags declared on domain records and turns violations into visitor-facing
// messages.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	msgInvalidData  = "Invalid form data."
	msgInvalidEmail = "Please enter a valid email address."
	issueSeparator  = ", "
)

// Issue is a single violated constraint.
type Issue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error aggregates every violated constraint of one payload.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msgs := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		msgs = append(msgs, is.Message)
	}
	return strings.Join(msgs, issueSeparator)
}

// Validator wraps a go-playground validator configured to report JSON field
// names.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	return &Validator{v: v}
}

// Struct validates s and returns *Error when any constraint is violated.
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validation: %w", err)
	}

	root := reflect.TypeOf(s)
	out := &Error{Issues: make([]Issue, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Issues = append(out.Issues, Issue{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe, labelFor(root, fe.StructNamespace())),
		})
	}
	return out
}

// Decode unmarshals raw into T and validates it. An empty body decodes to the
// zero record so missing fields surface as their own constraint messages.
func Decode[T any](v *Validator, raw []byte) (T, error) {
	var out T
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, &Error{Issues: []Issue{{Message: msgInvalidData}}}
		}
	}
	if err := v.Struct(out); err != nil {
		return out, err
	}
	return out, nil
}

func message(fe validator.FieldError, label string) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("%s must be at least %s characters.", label, fe.Param())
	case "email":
		return msgInvalidEmail
	case "required":
		return fmt.Sprintf("%s is required.", label)
	default:
		return fmt.Sprintf("%s is invalid.", label)
	}
}

func jsonName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// labelFor walks the Go field path of a violation and returns the label tag
// of the leaf field, falling back to its Go name.
func labelFor(root reflect.Type, structNS string) string {
	parts := strings.Split(structNS, ".")
	if len(parts) < 2 {
		return structNS
	}
	t := root
	var leaf reflect.StructField
	for _, part := range parts[1:] {
		name, _, _ := strings.Cut(part, "[")
		for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return name
		}
		f, ok := t.FieldByName(name)
		if !ok {
			return name
		}
		leaf = f
		t = f.Type
	}
	if label := leaf.Tag.Get("label"); label != "" {
		return label
	}
	return leaf.Name
}
