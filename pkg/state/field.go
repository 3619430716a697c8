package state

import "sort"

type fieldHandlers struct {
	onChange func(string)
	onBlur   func()
	onError  func(Errors)
}

// Field returns a snapshot of the named field, registering it on first
// access. The snapshot's Error is nil unless the field has been touched.
func (f *Form) Field(name string) Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked(name, f.handlersLocked(name))
}

// Fields returns snapshots of every field registered so far.
func (f *Form) Fields() map[string]Field {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]Field, len(f.fields))
	for name, handlers := range f.fields {
		out[name] = f.snapshotLocked(name, handlers)
	}
	return out
}

// FieldNames returns the registered field names, sorted.
func (f *Form) FieldNames() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.fields))
	for name := range f.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *Form) handlersLocked(name string) *fieldHandlers {
	if handlers, ok := f.fields[name]; ok {
		return handlers
	}
	handlers := &fieldHandlers{
		onChange: func(value string) {
			f.update("change", func(current Values) {
				current[name] = f.filterValue(name, value)
			})
		},
		onBlur: func() {
			f.blur(name)
		},
		onError: func(errs Errors) {
			f.recordNested(name, errs)
		},
	}
	f.fields[name] = handlers
	return handlers
}

func (f *Form) snapshotLocked(name string, handlers *fieldHandlers) Field {
	field := Field{
		Name:     name,
		Value:    f.values[name],
		Disabled: f.loading,
		OnChange: handlers.onChange,
		OnBlur:   handlers.onBlur,
		OnError:  handlers.onError,
	}
	if !f.touched[name] {
		return field
	}
	switch value := f.errors[name].(type) {
	case nil:
	case Errors:
		field.Error = value.Clone()
	default:
		field.Error = value
	}
	return field
}

func (f *Form) blur(name string) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.touched[name] = true
	report := f.errors.Clone()
	f.mu.Unlock()

	if f.parent != nil && f.parent.OnBlur != nil {
		f.parent.OnBlur()
	}
	f.emitErrors(report)
}

// recordNested stores a nested form's report verbatim under name. An empty
// report clears the entry.
func (f *Form) recordNested(name string, errs Errors) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if len(errs) == 0 {
		delete(f.nested, name)
		delete(f.errors, name)
	} else {
		payload := errs.Clone()
		f.nested[name] = payload
		f.errors[name] = payload.Clone()
	}
	report := f.errors.Clone()
	f.mu.Unlock()

	f.logger.Debug("nested errors recorded", "field", name, "errors", len(errs))
	f.emitErrors(report)
}
