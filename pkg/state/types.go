package state

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// FormErrorKey is the reserved Errors key holding the whole-form error.
const FormErrorKey = "__form"

// Values maps field names to their string values. Missing fields read as "".
type Values map[string]string

// Get returns the value for name or "".
func (v Values) Get(name string) string {
	return v[name]
}

// Clone returns a copy of v. The copy is never nil.
func (v Values) Clone() Values {
	out := make(Values, len(v))
	for k, value := range v {
		out[k] = value
	}
	return out
}

// Touched records which fields have been blurred at least once.
type Touched map[string]bool

// Clone returns a copy of t. The copy is never nil.
func (t Touched) Clone() Touched {
	out := make(Touched, len(t))
	for k, value := range t {
		out[k] = value
	}
	return out
}

// Errors maps field names to an error message (string) or to the opaque
// payload reported by a nested form (Errors). The whole-form error lives
// under FormErrorKey.
type Errors map[string]any

// Message returns the string error stored for name. Nested payloads render
// through Errors.String.
func (e Errors) Message(name string) string {
	return errorText(e[name])
}

// Clone deep-copies nested Errors payloads.
func (e Errors) Clone() Errors {
	if e == nil {
		return nil
	}
	out := make(Errors, len(e))
	for k, value := range e {
		if nested, ok := value.(Errors); ok {
			out[k] = nested.Clone()
			continue
		}
		out[k] = value
	}
	return out
}

// String renders the mapping as "field: message" pairs sorted by field.
func (e Errors) String() string {
	if len(e) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		text := errorText(e[k])
		if text == "" {
			continue
		}
		if nested, ok := e[k].(Errors); ok && len(nested) > 0 {
			text = "{" + text + "}"
		}
		parts = append(parts, k+": "+text)
	}
	return strings.Join(parts, "; ")
}

func errorText(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case Errors:
		return typed.String()
	case error:
		return typed.Error()
	default:
		return fmt.Sprint(typed)
	}
}

// Field is a read-only snapshot of one field, ready to be bound to an input.
// Handlers stay valid across snapshots.
type Field struct {
	Name     string
	Value    string
	Disabled bool
	// Error is nil until the field is touched. It holds a string message or
	// the Errors payload of a nested form.
	Error any

	OnChange func(value string)
	OnBlur   func()
	OnError  func(errs Errors)
}

// ErrorText renders Error as a string, "" when there is no visible error.
func (f Field) ErrorText() string {
	return errorText(f.Error)
}

// Validator checks a snapshot of the form values. It returns nil when valid
// and a *validation.Error enumerating path/message issues otherwise. Any
// other error is recorded as a whole-form error.
type Validator interface {
	Validate(values map[string]string) error
}

// SubmitFunc receives a snapshot of the values on Submit. Errors exposing
// Messages() []string or FieldErrors() map[string]string are mapped onto the
// error state; any other error is stored under FormErrorKey.
type SubmitFunc func(ctx context.Context, values Values) error

// ValueFilter rewrites incoming values before they are stored.
type ValueFilter func(name, value string) string
