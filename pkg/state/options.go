package state

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Option configures a Form.
type Option func(*Form)

// WithValidator sets the validator run after every value change.
func WithValidator(validator Validator) Option {
	return func(f *Form) {
		f.validator = validator
	}
}

// WithName identifies the form to a parent and in log output.
func WithName(name string) Option {
	return func(f *Form) {
		f.name = strings.TrimSpace(name)
	}
}

// WithOnChange registers a callback receiving the full values after every
// value mutation.
func WithOnChange(fn func(Values)) Option {
	return func(f *Form) {
		f.onChange = fn
	}
}

// WithOnError registers a callback receiving the error mapping after every
// error mutation. The mapping is nil when the form has no errors, which is
// what a parent field's OnError expects to clear a nested report.
func WithOnError(fn func(Errors)) Option {
	return func(f *Form) {
		f.onError = fn
	}
}

// WithOnSubmit sets the handler awaited by Submit.
func WithOnSubmit(fn SubmitFunc) Option {
	return func(f *Form) {
		f.onSubmit = fn
	}
}

// WithParent nests the form under a parent's field. The child reports its
// errors to the field's OnError, forwards blurs to the field's OnBlur and
// stores its values in the parent field as a JSON object.
func WithParent(field Field) Option {
	return func(f *Form) {
		parent := field
		f.parent = &parent
	}
}

// WithInitialValues seeds the values before the first validation. Seeding
// does not fire OnChange.
func WithInitialValues(values Values) Option {
	return func(f *Form) {
		f.initial = values.Clone()
	}
}

// WithValueFilter rewrites every incoming value before it is stored.
func WithValueFilter(filter ValueFilter) Option {
	return func(f *Form) {
		f.filter = filter
	}
}

// WithLogger sets the logger used for debug output. A nil logger is ignored.
func WithLogger(logger *log.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}
