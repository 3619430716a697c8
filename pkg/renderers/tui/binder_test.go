package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/state"
	"github.com/goliatone/go-formstate/pkg/submission"
	"github.com/goliatone/go-formstate/pkg/validation"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	passwords    []string
	infoMessages []string
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
	passPos      int
	inputConfigs []InputConfig
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.inputConfigs = append(s.inputConfigs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Password(_ context.Context, _ InputConfig) (string, error) {
	if s.passPos >= len(s.passwords) {
		return "", errors.New("no password scripted")
	}
	val := s.passwords[s.passPos]
	s.passPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, _ SelectConfig) (int, error) {
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func TestFillRepromptsUntilValid(t *testing.T) {
	driver := &stubDriver{inputs: []string{"", "filled"}}
	binder := New(WithPromptDriver(driver))
	form := state.New(state.WithValidator(validation.NewRules().Field("test", validation.Required())))

	if err := binder.Fill(context.Background(), form, []FieldSpec{{Name: "test"}}); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	if got := form.Value("test"); got != "filled" {
		t.Fatalf("expected value to be bound, got %q", got)
	}
	want := []string{DefaultTheme.ErrorPrefix + "test is a required field"}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
	if !form.Touched()["test"] {
		t.Fatalf("expected field to be touched")
	}
}

func TestFillGivesUpAfterMaxAttempts(t *testing.T) {
	driver := &stubDriver{inputs: []string{"", ""}}
	binder := New(WithPromptDriver(driver), WithMaxAttempts(2))
	form := state.New(state.WithValidator(validation.NewRules().Field("test", validation.Required())))

	err := binder.Fill(context.Background(), form, []FieldSpec{{Name: "test"}})
	if !errors.Is(err, ErrInvalidField) {
		t.Fatalf("expected ErrInvalidField, got %v", err)
	}
	if driver.inputPos != 2 {
		t.Fatalf("expected two prompts, got %d", driver.inputPos)
	}
}

func TestFillUsesPromptKinds(t *testing.T) {
	driver := &stubDriver{
		inputs:    []string{"Ada"},
		passwords: []string{"s3cret"},
		selectIdx: []int{1},
		textAreas: []string{"line one\nline two"},
	}
	binder := New(WithPromptDriver(driver))
	form := state.New()

	fields := []FieldSpec{
		{Name: "name", Label: "Full name", Default: "anon"},
		{Name: "password", Secret: true},
		{Name: "plan", Options: []string{"free", "pro"}},
		{Name: "bio", Multiline: true},
	}
	if err := binder.Fill(context.Background(), form, fields); err != nil {
		t.Fatalf("Fill: %v", err)
	}

	want := state.Values{
		"name":     "Ada",
		"password": "s3cret",
		"plan":     "pro",
		"bio":      "line one\nline two",
	}
	if diff := cmp.Diff(want, form.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
	if got := driver.inputConfigs[0]; got.Message != "Full name" || got.Default != "anon" {
		t.Fatalf("unexpected input config %+v", got)
	}
}

func TestFillPropagatesAbort(t *testing.T) {
	driver := &stubDriver{}
	binder := New(WithPromptDriver(driver))

	err := binder.Fill(context.Background(), state.New(), []FieldSpec{{Name: "x"}})
	if err == nil || !strings.Contains(err.Error(), "no input scripted") {
		t.Fatalf("expected driver error, got %v", err)
	}
}

func TestFillSkipsHiddenFields(t *testing.T) {
	fields := []FieldSpec{
		{Name: "plan", Options: []string{"free", "pro"}},
		{Name: "company", VisibleWhen: `plan == "pro"`},
		{Name: "email"},
	}

	free := &stubDriver{selectIdx: []int{0}, inputs: []string{"ada@example.com"}}
	form := state.New()
	if err := New(WithPromptDriver(free)).Fill(context.Background(), form, fields); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if diff := cmp.Diff(state.Values{"plan": "free", "email": "ada@example.com"}, form.Values()); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	pro := &stubDriver{selectIdx: []int{1}, inputs: []string{"Acme", "ada@example.com"}}
	form = state.New()
	if err := New(WithPromptDriver(pro)).Fill(context.Background(), form, fields); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if got := form.Value("company"); got != "Acme" {
		t.Fatalf("expected company to be prompted, got %q", got)
	}

	all := &stubDriver{selectIdx: []int{0}, inputs: []string{"Acme", "ada@example.com"}}
	form = state.New()
	if err := New(WithPromptDriver(all), WithVisibility(nil)).Fill(context.Background(), form, fields); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if got := form.Value("company"); got != "Acme" {
		t.Fatalf("expected every field without an evaluator, got %q", got)
	}
}

func TestFillReportsBadVisibilityRule(t *testing.T) {
	driver := &stubDriver{}
	err := New(WithPromptDriver(driver)).Fill(context.Background(), state.New(), []FieldSpec{
		{Name: "company", VisibleWhen: `unknown == "x"`},
	})
	if err == nil || !strings.Contains(err.Error(), "company") {
		t.Fatalf("expected visibility error, got %v", err)
	}
}

func TestRunResubmitsRejectedFields(t *testing.T) {
	calls := 0
	form := state.New(state.WithOnSubmit(func(_ context.Context, values state.Values) error {
		calls++
		if values["email"] == "taken@example.com" {
			return submission.NewFieldErrors(map[string]string{"email": "already registered"})
		}
		return nil
	}))
	driver := &stubDriver{
		inputs:  []string{"taken@example.com", "free@example.com"},
		confirm: []bool{true, true},
	}
	binder := New(WithPromptDriver(driver))

	if err := binder.Run(context.Background(), form, []FieldSpec{{Name: "email"}}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected two submissions, got %d", calls)
	}
	if got := form.Value("email"); got != "free@example.com" {
		t.Fatalf("expected corrected value, got %q", got)
	}
	want := []string{
		DefaultTheme.ErrorPrefix + "email: already registered",
		DefaultTheme.InfoPrefix + "Submitted",
	}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStopsOnFormLevelFailure(t *testing.T) {
	boom := errors.New("service unavailable")
	form := state.New(state.WithOnSubmit(func(context.Context, state.Values) error {
		return boom
	}))
	driver := &stubDriver{inputs: []string{"x"}}
	binder := New(WithPromptDriver(driver), WithConfirmSubmit(false))

	err := binder.Run(context.Background(), form, []FieldSpec{{Name: "name"}})
	if !errors.Is(err, boom) {
		t.Fatalf("expected submission error, got %v", err)
	}
	want := []string{DefaultTheme.ErrorPrefix + "service unavailable"}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestRunDeclinedConfirmation(t *testing.T) {
	submitted := false
	form := state.New(state.WithOnSubmit(func(context.Context, state.Values) error {
		submitted = true
		return nil
	}))
	driver := &stubDriver{inputs: []string{"x"}, confirm: []bool{false}}
	binder := New(WithPromptDriver(driver))

	if err := binder.Run(context.Background(), form, []FieldSpec{{Name: "name"}}); !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if submitted {
		t.Fatalf("expected no submission after declining")
	}
}

func TestRunRefusesInvalidForm(t *testing.T) {
	form := state.New(state.WithValidator(validation.Func(func(values map[string]string) error {
		if values["password"] != values["confirm"] {
			return validation.NewError(validation.Issue{Message: "passwords do not match"})
		}
		return nil
	})))
	driver := &stubDriver{inputs: []string{"a", "b"}}
	binder := New(WithPromptDriver(driver))

	err := binder.Run(context.Background(), form, []FieldSpec{{Name: "password"}, {Name: "confirm"}})
	if !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("expected ErrInvalidForm, got %v", err)
	}
	want := []string{DefaultTheme.ErrorPrefix + "passwords do not match"}
	if diff := cmp.Diff(want, driver.infoMessages); diff != "" {
		t.Fatalf("messages mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldsFromSchema(t *testing.T) {
	got := FieldsFromSchema([]validation.FieldInfo{
		{Name: "name", Title: "Full name", Required: true, Description: "As on your ID"},
		{Name: "plan", Enum: []string{"free", "pro"}, Default: "free"},
		{Name: "password", Secret: true},
		{Name: "company", VisibleWhen: `plan == "pro"`},
	})
	want := []FieldSpec{
		{Name: "name", Label: "Full name *", Help: "As on your ID"},
		{Name: "plan", Label: "plan", Default: "free", Options: []string{"free", "pro"}},
		{Name: "password", Label: "password", Secret: true},
		{Name: "company", Label: "company", VisibleWhen: `plan == "pro"`},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode(t *testing.T) {
	values := state.Values{"name": "Ada", "password": "s3cret"}

	jsonOut, err := Encode(values, OutputFormatJSON)
	if err != nil {
		t.Fatalf("Encode json: %v", err)
	}
	if got := string(jsonOut); got != "{\n  \"name\": \"Ada\",\n  \"password\": \"s3cret\"\n}\n" {
		t.Fatalf("unexpected json %q", got)
	}

	formOut, _ := Encode(values, OutputFormatFormURLEncoded)
	if got := string(formOut); got != "name=Ada&password=s3cret" {
		t.Fatalf("unexpected form encoding %q", got)
	}

	pretty, _ := Encode(values, OutputFormatPrettyText, "password")
	if got := string(pretty); got != "name:     Ada\npassword: ********\n" {
		t.Fatalf("unexpected pretty output %q", got)
	}

	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Fatalf("expected unknown format error")
	}
}
