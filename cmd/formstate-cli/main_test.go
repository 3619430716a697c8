package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
	"github.com/goliatone/go-formstate/pkg/testsupport"
)

const signupSchema = `
type: object
required: [email]
properties:
  email:
    type: string
    title: Email
    minLength: 3
  password:
    type: string
    format: password
`

func execute(t *testing.T, a *app, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := testsupport.WriteFile(t, dir, "formstate.yaml", `
endpoint: http://from-file.local/submit
format: json
retries: 4
headers:
  X-Token: abc
`)
	t.Setenv("FORMSTATE_FORMAT", "form")
	t.Setenv("FORMSTATE_MAX_ATTEMPTS", "5")

	root := newRootCmd(&app{})
	fill, _, err := root.Find([]string{"fill"})
	if err != nil {
		t.Fatalf("find fill: %v", err)
	}
	if err := fill.ParseFlags([]string{"--config", cfgPath, "--endpoint", "http://from-flag.local/submit"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := loadConfig(fill)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	want := DefaultConfig()
	want.Endpoint = "http://from-flag.local/submit"
	want.Format = "form"
	want.Retries = 4
	want.MaxAttempts = 5
	want.Headers = map[string]string{"x-token": "abc"}
	if diff := cmp.Diff(&want, cfg, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	root := newRootCmd(&app{})
	fill, _, _ := root.Find([]string{"fill"})
	if err := fill.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := loadConfig(fill); err == nil {
		t.Fatalf("expected missing config file to fail")
	}
}

func TestFillSubmitsAndRepromptsRejectedFields(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(data))
		first := len(bodies) == 1
		mu.Unlock()

		if r.Header.Get("X-Token") != "abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if first {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"errors":{"email":["already registered"]}}`))
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	dir := t.TempDir()
	schema := testsupport.WriteFile(t, dir, "signup.yaml", signupSchema)
	driver := &testsupport.ScriptedDriver{
		Inputs:    []string{"taken@example.com", "free@example.com"},
		Passwords: []string{"s3cret"},
		Confirms:  []bool{true, true},
	}

	out, err := execute(t, &app{driver: driver}, nil,
		"fill", "--schema", schema, "--endpoint", server.URL,
		"--header", "X-Token: abc", "--format", "json",
	)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}

	want := "{\n  \"email\": \"free@example.com\",\n  \"password\": \"s3cret\"\n}\n"
	if out != want {
		t.Fatalf("unexpected output %q", out)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("expected two submissions, got %d", len(bodies))
	}
	if !strings.Contains(bodies[0], `"email":"taken@example.com"`) {
		t.Fatalf("unexpected first body %s", bodies[0])
	}
}

func TestFillCheckpointResumesAbortedSession(t *testing.T) {
	dir := t.TempDir()
	schema := testsupport.WriteFile(t, dir, "signup.yaml", signupSchema)
	checkpoint := filepath.Join(dir, "session.json")

	first := &testsupport.ScriptedDriver{
		Inputs:    []string{"ada@example.com"},
		Passwords: []string{"s3cret"},
		Confirms:  []bool{false},
	}
	_, err := execute(t, &app{driver: first}, nil, "fill", "--schema", schema, "--checkpoint", checkpoint)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 130 || !errors.Is(err, tui.ErrAborted) {
		t.Fatalf("expected aborted exit error, got %v", err)
	}
	if _, err := os.Stat(checkpoint); err != nil {
		t.Fatalf("expected checkpoint to be saved: %v", err)
	}

	second := &testsupport.ScriptedDriver{
		Inputs:    []string{"ada@example.com"},
		Passwords: []string{"s3cret"},
		Confirms:  []bool{true},
	}
	out, err := execute(t, &app{driver: second}, nil, "fill", "--schema", schema, "--checkpoint", checkpoint)
	if err != nil {
		t.Fatalf("resumed fill: %v", err)
	}
	if diff := cmp.Diff([]string{"ada@example.com"}, second.Defaults); diff != "" {
		t.Fatalf("expected restored value as default (-want +got):\n%s", diff)
	}
	golden := filepath.Join("testdata", "resumed.golden")
	if testsupport.WriteMaybeGolden(t, golden, []byte(out)) {
		return
	}
	if want := testsupport.MustReadGoldenString(t, golden); out != want {
		t.Fatalf("output mismatch:\nwant %q\ngot  %q", want, out)
	}
	if _, err := os.Stat(checkpoint); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected checkpoint to be removed, got %v", err)
	}
}

func TestFillRequiresFields(t *testing.T) {
	_, err := execute(t, &app{driver: &testsupport.ScriptedDriver{}}, nil, "fill")
	if !errors.Is(err, errNoFields) {
		t.Fatalf("expected errNoFields, got %v", err)
	}
}

func TestFillSanitizesNonSecretValues(t *testing.T) {
	driver := &testsupport.ScriptedDriver{
		Inputs:   []string{"<b>Ada</b>", "<i>Lovelace</i>"},
		Confirms: []bool{true},
	}
	out, err := execute(t, &app{driver: driver}, nil,
		"fill", "--field", "first", "--field", "last", "--sanitize", "--format", "form",
	)
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if out != "first=Ada&last=Lovelace" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	schema := testsupport.WriteFile(t, dir, "signup.yaml", signupSchema)

	out, err := execute(t, &app{}, strings.NewReader(`{"email":"ada@example.com"}`), "validate", "--schema", schema)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "valid") {
		t.Fatalf("unexpected output %q", out)
	}

	values := testsupport.WriteFile(t, dir, "values.json", `{"email":"a"}`)
	out, err = execute(t, &app{}, nil, "validate", "--schema", schema, values)
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
	if !strings.Contains(out, "email: ") {
		t.Fatalf("expected email error in output, got %q", out)
	}
}

func TestValidateNeedsSchema(t *testing.T) {
	_, err := execute(t, &app{}, strings.NewReader(`{}`), "validate", "--field", "name")
	if err == nil || !strings.Contains(err.Error(), "--schema or --cue") {
		t.Fatalf("expected schema error, got %v", err)
	}
}
