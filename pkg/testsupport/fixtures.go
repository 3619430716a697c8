// Package testsupport holds helpers shared by command and integration tests.
package testsupport

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

// ScriptedDriver is a tui.PromptDriver answering from fixed queues. Each
// prompt kind consumes its own queue and fails once the queue is empty.
type ScriptedDriver struct {
	mu sync.Mutex

	Inputs    []string
	Passwords []string
	TextAreas []string
	Selects   []int
	Confirms  []bool

	// Defaults records the default offered by every Input prompt.
	Defaults []string
	// Messages records everything printed through Info.
	Messages []string
}

var _ tui.PromptDriver = (*ScriptedDriver)(nil)

func (d *ScriptedDriver) Input(_ context.Context, cfg tui.InputConfig) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Defaults = append(d.Defaults, cfg.Default)
	return shift(&d.Inputs, "input")
}

func (d *ScriptedDriver) Password(context.Context, tui.InputConfig) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return shift(&d.Passwords, "password")
}

func (d *ScriptedDriver) TextArea(context.Context, tui.TextAreaConfig) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return shift(&d.TextAreas, "textarea")
}

func (d *ScriptedDriver) Select(context.Context, tui.SelectConfig) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Selects) == 0 {
		return -1, errors.New("testsupport: no select scripted")
	}
	val := d.Selects[0]
	d.Selects = d.Selects[1:]
	return val, nil
}

func (d *ScriptedDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.Confirms) == 0 {
		return false, errors.New("testsupport: no confirm scripted")
	}
	val := d.Confirms[0]
	d.Confirms = d.Confirms[1:]
	return val, nil
}

func (d *ScriptedDriver) Info(_ context.Context, msg string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Messages = append(d.Messages, msg)
	return nil
}

func shift(queue *[]string, kind string) (string, error) {
	if len(*queue) == 0 {
		return "", errors.New("testsupport: no " + kind + " scripted")
	}
	val := (*queue)[0]
	*queue = (*queue)[1:]
	return val, nil
}

// WriteFile writes content under dir and returns the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// MustReadGoldenString reads a golden file and returns its content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return string(data)
}
