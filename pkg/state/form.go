package state

import (
	"errors"
	"io"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formstate/pkg/validation"
)

var (
	// ErrClosed is returned by Submit once the form has been closed.
	ErrClosed = errors.New("state: form is closed")
	// ErrSubmitInFlight is returned by Submit while another submission has not
	// resolved yet. The state of the form is left untouched.
	ErrSubmitInFlight = errors.New("state: submission already in flight")
)

// Form holds the values, touched flags, errors and loading flag of one form.
// Create it with New; the zero value is not usable.
type Form struct {
	mu sync.Mutex
	// validateMu orders validation runs so results commit in call order.
	validateMu sync.Mutex

	name      string
	validator Validator
	onChange  func(Values)
	onError   func(Errors)
	onSubmit  SubmitFunc
	parent    *Field
	filter    ValueFilter
	logger    *log.Logger
	initial   Values

	values  Values
	touched Touched
	errors  Errors
	nested  map[string]Errors
	fields  map[string]*fieldHandlers
	loading bool
	closed  bool
}

// New builds a Form. When a validator is configured the form validates once
// before returning so OnError (and a parent form) observe the initial
// validity before any interaction.
func New(opts ...Option) *Form {
	f := &Form{
		values:  make(Values),
		touched: make(Touched),
		errors:  make(Errors),
		nested:  make(map[string]Errors),
		fields:  make(map[string]*fieldHandlers),
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	for name, value := range f.initial {
		f.values[name] = f.filterValue(name, value)
	}
	f.initial = nil
	if f.name != "" {
		f.logger = f.logger.With("form", f.name)
	}

	if f.validator != nil {
		f.validate("initial")
	}
	return f
}

// Name returns the configured name.
func (f *Form) Name() string {
	return f.name
}

// Values returns a copy of the current values.
func (f *Form) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values.Clone()
}

// Value returns the value of one field, "" when unset.
func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// Touched returns a copy of the touched flags.
func (f *Form) Touched() Touched {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.touched.Clone()
}

// Errors returns a copy of the error mapping, including errors of untouched
// fields.
func (f *Form) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors.Clone()
}

// Valid reports whether the error mapping is empty.
func (f *Form) Valid() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.errors) == 0
}

// Loading reports whether a submission is in flight.
func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// UpdateValues merges values into the current values, then fires OnChange
// and re-runs validation.
func (f *Form) UpdateValues(values Values) {
	f.update("update", func(current Values) {
		for name, value := range values {
			current[name] = f.filterValue(name, value)
		}
	})
}

// Setter returns the bound setter for one field. Calling it is equivalent to
// UpdateValues(Values{name: value}).
func (f *Form) Setter(name string) func(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.handlersLocked(name).onChange
}

// UpdateErrors re-runs validation without a value change and reports the
// resulting mapping through OnError, even when nothing changed.
func (f *Form) UpdateErrors() {
	if f.validator != nil {
		f.validate("refresh")
		return
	}
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	report := f.errors.Clone()
	f.mu.Unlock()
	f.emitErrors(report)
}

// Close tears the form down. Later mutations, including the completion of a
// pending Submit, leave the state untouched and fire no callbacks.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	f.closed = true
	f.logger.Debug("form closed")
}

func (f *Form) update(reason string, apply func(Values)) {
	_ = f.mutate(reason, func(current Values) error {
		apply(current)
		return nil
	})
}

// mutate applies compute to the live values under the lock, then fires
// OnChange and re-runs validation. compute must not touch the values when it
// returns an error.
func (f *Form) mutate(reason string, compute func(Values) error) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	if err := compute(f.values); err != nil {
		f.mu.Unlock()
		return err
	}
	snapshot := f.values.Clone()
	f.mu.Unlock()

	f.emitChange(snapshot)
	if f.validator != nil {
		f.validate(reason)
	}
	return nil
}

func (f *Form) validate(reason string) {
	report, ok := f.runValidation()
	if !ok {
		return
	}
	f.logger.Debug("validated", "reason", reason, "errors", len(report))
	f.emitErrors(report)
}

func (f *Form) runValidation() (Errors, bool) {
	f.validateMu.Lock()
	defer f.validateMu.Unlock()

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil, false
	}
	values := f.values.Clone()
	f.mu.Unlock()

	next := errorsFromValidation(f.validator.Validate(values))

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	for name, payload := range f.nested {
		next[name] = payload.Clone()
	}
	f.errors = next
	return f.errors.Clone(), true
}

func errorsFromValidation(err error) Errors {
	next := make(Errors)
	if err == nil {
		return next
	}

	var verr *validation.Error
	if !errors.As(err, &verr) {
		next[FormErrorKey] = err.Error()
		return next
	}
	for name, msg := range verr.Fields() {
		if name == "" {
			name = FormErrorKey
		}
		next[name] = msg
	}
	if len(next) == 0 {
		next[FormErrorKey] = verr.Error()
	}
	return next
}

func (f *Form) emitChange(values Values) {
	if f.onChange != nil {
		f.onChange(values.Clone())
	}
	if f.parent == nil || f.parent.OnChange == nil {
		return
	}
	encoded, err := sonic.ConfigStd.MarshalToString(values)
	if err != nil {
		f.logger.Warn("encode values for parent", "err", err)
		return
	}
	f.parent.OnChange(encoded)
}

func (f *Form) emitErrors(report Errors) {
	var payload Errors
	if len(report) > 0 {
		payload = report
	}
	if f.onError != nil {
		f.onError(payload)
	}
	if f.parent != nil && f.parent.OnError != nil {
		f.parent.OnError(payload.Clone())
	}
}

func (f *Form) filterValue(name, value string) string {
	if f.filter == nil {
		return value
	}
	return f.filter(name, value)
}
