package state

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
)

const checkpointVersion = "1.0"

type checkpoint struct {
	Version   string         `json:"version"`
	Name      string         `json:"name,omitempty"`
	Values    Values         `json:"values"`
	Touched   Touched        `json:"touched,omitempty"`
	Errors    map[string]any `json:"errors,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Checkpoint serializes the values, touched flags and errors so an
// interrupted session can be resumed with Restore.
func (f *Form) Checkpoint() ([]byte, error) {
	f.mu.Lock()
	cp := checkpoint{
		Version:   checkpointVersion,
		Name:      f.name,
		Values:    f.values.Clone(),
		Touched:   f.touched.Clone(),
		Errors:    f.errors.Clone(),
		Timestamp: time.Now().UTC(),
	}
	f.mu.Unlock()

	data, err := sonic.Marshal(cp)
	if err != nil {
		return nil, fmt.Errorf("state: marshal checkpoint: %w", err)
	}
	return data, nil
}

// Restore replaces the values, touched flags and errors with a checkpoint,
// then reports them through OnChange and OnError. Validation does not run, so
// restored submission errors survive until the next change.
func (f *Form) Restore(data []byte) error {
	var cp checkpoint
	if err := sonic.Unmarshal(data, &cp); err != nil {
		return fmt.Errorf("state: unmarshal checkpoint: %w", err)
	}
	if cp.Version != checkpointVersion {
		return fmt.Errorf("state: incompatible checkpoint version %q (expected %s)", cp.Version, checkpointVersion)
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.values = cp.Values.Clone()
	f.touched = cp.Touched.Clone()
	f.errors = make(Errors, len(cp.Errors))
	f.nested = make(map[string]Errors)
	for name, value := range cp.Errors {
		if nested, ok := toErrors(value); ok {
			f.errors[name] = nested
			f.nested[name] = nested.Clone()
			continue
		}
		f.errors[name] = value
	}
	values := f.values.Clone()
	report := f.errors.Clone()
	f.mu.Unlock()

	f.logger.Debug("checkpoint restored", "fields", len(values), "errors", len(report))
	f.emitChange(values)
	f.emitErrors(report)
	return nil
}

func toErrors(value any) (Errors, bool) {
	raw, ok := value.(map[string]any)
	if !ok {
		return nil, false
	}
	out := make(Errors, len(raw))
	for name, inner := range raw {
		if nested, ok := toErrors(inner); ok {
			out[name] = nested
			continue
		}
		out[name] = inner
	}
	return out, true
}
