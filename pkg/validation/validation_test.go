package validation_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-formstate/pkg/validation"
)

func TestFieldName(t *testing.T) {
	cases := map[string]string{
		"test":              "test",
		"owner.email":       "owner",
		"/owner/email":      "owner",
		"#/owner":           "owner",
		"$.tags[0]":         "tags",
		"items[2].name":     "items",
		"/a~1b/c":           "a/b",
		"":                  "",
		"  spaced.path  ":   "spaced",
		"..leading.dots.ok": "leading",
	}
	for input, want := range cases {
		if got := validation.FieldName(input); got != want {
			t.Errorf("FieldName(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestErrorFieldsKeepsFirstMessage(t *testing.T) {
	err := validation.NewError(
		validation.Issue{Path: "owner.email", Message: "email invalid"},
		validation.Issue{Path: "owner.phone", Message: "phone invalid"},
		validation.Issue{Path: "name", Message: "name is a required field"},
		validation.Issue{Path: "ignored", Message: "  "},
	)

	want := map[string]string{
		"owner": "email invalid",
		"name":  "name is a required field",
	}
	if diff := cmp.Diff(want, err.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestRulesRequired(t *testing.T) {
	rules := validation.NewRules().Field("test", validation.Required())

	err := rules.Validate(map[string]string{})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %T", err)
	}
	want := map[string]string{"test": "test is a required field"}
	if diff := cmp.Diff(want, verr.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	if err := rules.Validate(map[string]string{"test": "a"}); err != nil {
		t.Fatalf("expected valid values, got %v", err)
	}
}

func TestRulesFirstFailingRuleWins(t *testing.T) {
	rules := validation.NewRules().
		Field("code", validation.Required(), validation.MinLength(3), validation.Pattern(regexp.MustCompile(`^[A-Z]+$`))).
		Field("size", validation.OneOf("s", "m", "l")).
		Field("bio", validation.MaxLength(4)).
		Label("code", "Code")

	err := rules.Validate(map[string]string{"code": "ab", "size": "xl", "bio": "too long"})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %T", err)
	}
	want := map[string]string{
		"code": "Code must be at least 3 characters",
		"size": "size must be one of the following values: s, m, l",
		"bio":  "bio must be at most 4 characters",
	}
	if diff := cmp.Diff(want, verr.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	err = rules.Validate(map[string]string{"code": "abc"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected pattern failure, got %v", err)
	}
	if got := verr.Fields()["code"]; got != `Code must match the following: "^[A-Z]+$"` {
		t.Fatalf("unexpected pattern message %q", got)
	}

	if diff := cmp.Diff([]string{"code", "size", "bio"}, rules.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestFuncAdapter(t *testing.T) {
	sentinel := errors.New("boom")
	fn := validation.Func(func(map[string]string) error { return sentinel })
	if err := fn.Validate(nil); !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel, got %v", err)
	}
	var empty validation.Func
	if err := empty.Validate(nil); err != nil {
		t.Fatalf("nil func should validate, got %v", err)
	}
}

const signupSchema = `
type: object
required: [name]
properties:
  name:
    type: string
    title: Full name
    minLength: 3
  age:
    type: integer
    minimum: 18
  password:
    type: string
    format: password
  company:
    type: string
    x-visible-when: 'plan == "pro"'
`

func TestSchemaValidate(t *testing.T) {
	schema, err := validation.LoadSchema([]byte(signupSchema))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	err = schema.Validate(map[string]string{"name": ""})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if diff := cmp.Diff(map[string]string{"name": "Full name is a required field"}, verr.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}

	err = schema.Validate(map[string]string{"name": "Alice", "age": "12"})
	if !errors.As(err, &verr) {
		t.Fatalf("expected minimum failure, got %v", err)
	}
	if _, ok := verr.Fields()["age"]; !ok {
		t.Fatalf("expected age issue, got %#v", verr.Fields())
	}

	if err := schema.Validate(map[string]string{"name": "Alice", "age": "30"}); err != nil {
		t.Fatalf("expected valid values, got %v", err)
	}
}

func TestSchemaFieldsKeepDeclarationOrder(t *testing.T) {
	schema, err := validation.LoadSchema([]byte(signupSchema))
	if err != nil {
		t.Fatalf("load schema: %v", err)
	}

	want := []validation.FieldInfo{
		{Name: "name", Title: "Full name", Required: true},
		{Name: "age"},
		{Name: "password", Secret: true},
		{Name: "company", VisibleWhen: `plan == "pro"`},
	}
	if diff := cmp.Diff(want, schema.Fields()); diff != "" {
		t.Fatalf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSchemaRejectsEmptyDocument(t *testing.T) {
	if _, err := validation.LoadSchema([]byte("   ")); err == nil {
		t.Fatal("expected error for empty document")
	}
}

const signupCUE = `
#Signup: {
	name:  string & !=""
	email: string & =~"@"
}
`

func TestCUEValidate(t *testing.T) {
	validator, err := validation.NewCUE([]byte(signupCUE), "#Signup")
	if err != nil {
		t.Fatalf("compile cue: %v", err)
	}

	if err := validator.Validate(map[string]string{"name": "Alice", "email": "alice@example.com"}); err != nil {
		t.Fatalf("expected valid values, got %v", err)
	}

	err = validator.Validate(map[string]string{"name": "Alice", "email": "nope"})
	var verr *validation.Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *validation.Error, got %v", err)
	}
	if _, ok := verr.Fields()["email"]; !ok {
		t.Fatalf("expected email issue, got %#v", verr.Fields())
	}
}

func TestNewCUEUnknownDefinition(t *testing.T) {
	if _, err := validation.NewCUE([]byte(signupCUE), "#Missing"); err == nil {
		t.Fatal("expected error for unknown definition")
	}
}

func TestCUEFields(t *testing.T) {
	src := []byte(`
#Signup: {
	// Shown on your profile.
	name: string @form(title="Full name")
	password: string @form(secret)
	plan: *"free" | "pro"
	bio?: string @form(multiline)
}
`)
	validator, err := validation.NewCUE(src, "#Signup")
	if err != nil {
		t.Fatalf("compile cue: %v", err)
	}

	fields := validator.Fields()
	names := make([]string, 0, len(fields))
	for _, field := range fields {
		names = append(names, field.Name)
	}
	if diff := cmp.Diff([]string{"name", "password", "plan", "bio"}, names); diff != "" {
		t.Fatalf("field order mismatch (-want +got):\n%s", diff)
	}
	if got := fields[0]; got.Title != "Full name" || !got.Required {
		t.Fatalf("unexpected name field %+v", got)
	}
	if got := fields[1]; !got.Secret {
		t.Fatalf("expected password to be secret: %+v", got)
	}
	if got := fields[2]; got.Default != "free" {
		t.Fatalf("expected plan default, got %+v", got)
	}
	if got := fields[3]; got.Required || !got.Multiline {
		t.Fatalf("expected optional multiline bio, got %+v", got)
	}
}
