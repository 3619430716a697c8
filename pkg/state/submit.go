package state

import (
	"context"
	"errors"
)

// messagesCarrier is implemented by submission failures carrying a list of
// form-level messages.
type messagesCarrier interface {
	Messages() []string
}

// fieldErrorsCarrier is implemented by submission failures carrying
// per-field messages.
type fieldErrorsCarrier interface {
	FieldErrors() map[string]string
}

// Submit awaits the OnSubmit handler with a snapshot of the values. Loading
// is true exactly while the handler runs.
//
// On failure the error is mapped onto the state and OnError fires before the
// original error is returned: the first of Messages() goes under
// FormErrorKey, FieldErrors() are merged into the field errors (visible once
// each field is touched), and any other error's message goes under
// FormErrorKey.
//
// A second Submit while one is in flight returns ErrSubmitInFlight. If the
// form is closed while the handler runs, the result is still returned but
// the state is left untouched.
func (f *Form) Submit(ctx context.Context) (err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.loading {
		f.mu.Unlock()
		f.logger.Debug("submit rejected", "reason", "in flight")
		return ErrSubmitInFlight
	}
	f.loading = true
	values := f.values.Clone()
	f.mu.Unlock()

	f.logger.Debug("submit started", "fields", len(values))

	settled := false
	defer func() {
		if !settled {
			// the handler panicked; release the loading flag before unwinding.
			f.mu.Lock()
			f.loading = false
			f.mu.Unlock()
		}
	}()

	if f.onSubmit != nil {
		err = f.onSubmit(ctx, values)
	}
	settled = true

	report, emit := f.settleSubmit(err)
	if err != nil {
		f.logger.Debug("submit failed", "err", err)
	} else {
		f.logger.Debug("submit succeeded")
	}
	if emit {
		f.emitErrors(report)
	}
	return err
}

func (f *Form) settleSubmit(err error) (Errors, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, false
	}
	f.loading = false

	if err == nil {
		if _, ok := f.errors[FormErrorKey]; !ok {
			return nil, false
		}
		delete(f.errors, FormErrorKey)
		return f.errors.Clone(), true
	}

	applySubmitError(f.errors, err)
	return f.errors.Clone(), true
}

func applySubmitError(errs Errors, err error) {
	handled := false

	var messages messagesCarrier
	if errors.As(err, &messages) {
		if list := messages.Messages(); len(list) > 0 {
			errs[FormErrorKey] = list[0]
			handled = true
		}
	}

	var fields fieldErrorsCarrier
	if errors.As(err, &fields) {
		for name, msg := range fields.FieldErrors() {
			if name == "" {
				name = FormErrorKey
			}
			errs[name] = msg
			handled = true
		}
	}

	if !handled {
		errs[FormErrorKey] = err.Error()
	}
}
