// Package formstate is the top-level entry point for go-formstate. It aliases
// the core types from pkg/state and wires the schema and submission packages
// together for callers that want a ready form in one call.
package formstate

import (
	"github.com/goliatone/go-formstate/pkg/state"
	"github.com/goliatone/go-formstate/pkg/submission"
	"github.com/goliatone/go-formstate/pkg/validation"
)

// Form aliases state.Form.
type Form = state.Form

// Values, Touched and Errors alias the state maps.
type (
	Values  = state.Values
	Touched = state.Touched
	Errors  = state.Errors
)

// Field aliases state.Field, the per-field view returned by Form.Field.
type Field = state.Field

// Option configures a Form.
type Option = state.Option

// Validator aliases state.Validator.
type Validator = state.Validator

// SubmitFunc aliases state.SubmitFunc.
type SubmitFunc = state.SubmitFunc

// FieldInfo describes a field declared by a schema.
type FieldInfo = validation.FieldInfo

// FormErrorKey is the key under which whole-form errors are stored.
const FormErrorKey = state.FormErrorKey

var (
	// ErrClosed is returned by operations on a closed form.
	ErrClosed = state.ErrClosed
	// ErrSubmitInFlight is returned when Submit is called while a submission runs.
	ErrSubmitInFlight = state.ErrSubmitInFlight
)

// New exposes the form constructor from the top-level module.
func New(options ...Option) *Form {
	return state.New(options...)
}

// NewFromSchema loads a JSON Schema or OpenAPI schema file and returns a form
// validated by it together with the declared fields.
func NewFromSchema(path string, options ...Option) (*Form, []FieldInfo, error) {
	schema, err := validation.LoadSchemaFile(path)
	if err != nil {
		return nil, nil, err
	}
	opts := append([]Option{state.WithValidator(schema)}, options...)
	return state.New(opts...), schema.Fields(), nil
}

// NewFromCUE compiles src, selects definition and returns a form validated by
// it together with the declared fields.
func NewFromCUE(src []byte, definition string, options ...Option) (*Form, []FieldInfo, error) {
	schema, err := validation.NewCUE(src, definition)
	if err != nil {
		return nil, nil, err
	}
	opts := append([]Option{state.WithValidator(schema)}, options...)
	return state.New(opts...), schema.Fields(), nil
}

// WithHTTPSubmit returns an option submitting values as JSON to endpoint.
// Rejections are mapped onto field and form errors.
func WithHTTPSubmit(endpoint string, options ...submission.HTTPOption) (Option, error) {
	handler, err := submission.NewHTTP(endpoint, options...)
	if err != nil {
		return nil, err
	}
	return state.WithOnSubmit(handler.Submit), nil
}

// WithName forwards to state.WithName.
func WithName(name string) Option {
	return state.WithName(name)
}

// WithValidator forwards to state.WithValidator.
func WithValidator(validator Validator) Option {
	return state.WithValidator(validator)
}

// WithInitialValues forwards to state.WithInitialValues.
func WithInitialValues(values Values) Option {
	return state.WithInitialValues(values)
}

// WithOnSubmit forwards to state.WithOnSubmit.
func WithOnSubmit(fn SubmitFunc) Option {
	return state.WithOnSubmit(fn)
}
