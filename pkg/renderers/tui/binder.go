package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formstate/pkg/state"
	"github.com/goliatone/go-formstate/pkg/validation"
	"github.com/goliatone/go-formstate/pkg/visibility"
)

const defaultMaxAttempts = 3

// FieldSpec describes how one form field is prompted.
type FieldSpec struct {
	Name      string
	Label     string
	Help      string
	Default   string
	Secret    bool
	Multiline bool
	Options   []string
	// VisibleWhen hides the field unless the rule holds for the values
	// entered so far.
	VisibleWhen string
}

func (f FieldSpec) label() string {
	if f.Label != "" {
		return f.Label
	}
	return f.Name
}

// FieldsFromSchema maps schema properties onto prompts in declaration order.
func FieldsFromSchema(fields []validation.FieldInfo) []FieldSpec {
	out := make([]FieldSpec, 0, len(fields))
	for _, field := range fields {
		label := field.Label()
		if field.Required {
			label += " *"
		}
		out = append(out, FieldSpec{
			Name:      field.Name,
			Label:     label,
			Help:      field.Description,
			Default:   field.Default,
			Secret:    field.Secret,
			Multiline: field.Multiline,
			Options:   append([]string(nil), field.Enum...),

			VisibleWhen: field.VisibleWhen,
		})
	}
	return out
}

// Binder drives a state.Form from terminal prompts. Each answer goes through
// the field's OnChange and OnBlur handlers, so the prompt shows exactly the
// error a bound input would show.
type Binder struct {
	driver      PromptDriver
	theme       Theme
	maxAttempts int
	confirm     bool
	visibility  visibility.Evaluator
	logger      *log.Logger
}

// New constructs a binder with defaults (survey driver, three attempts per
// field, confirmation before submit).
func New(options ...Option) *Binder {
	b := &Binder{
		driver:      newSurveyDriver(),
		theme:       DefaultTheme,
		maxAttempts: defaultMaxAttempts,
		confirm:     true,
		visibility:  visibility.NewCUE(),
		logger:      log.New(io.Discard),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(b)
	}
	return b
}

// Fill prompts for every visible field in order. A field is prompted again
// while it shows an error; after the configured attempts Fill returns an
// error wrapping ErrInvalidField.
func (b *Binder) Fill(ctx context.Context, form *state.Form, fields []FieldSpec) error {
	if ctx == nil {
		return errors.New("tui: context is required")
	}
	if form == nil {
		return errors.New("tui: form is required")
	}
	for _, spec := range fields {
		visible, err := b.visible(form, spec, fields)
		if err != nil {
			return err
		}
		if !visible {
			b.logger.Debug("field hidden", "field", spec.Name, "rule", spec.VisibleWhen)
			continue
		}
		if err := b.fillField(ctx, form, spec); err != nil {
			return err
		}
	}
	return nil
}

// visible evaluates the field rule with every declared field in scope, so
// rules may reference fields that have not been answered yet.
func (b *Binder) visible(form *state.Form, spec FieldSpec, fields []FieldSpec) (bool, error) {
	if strings.TrimSpace(spec.VisibleWhen) == "" || b.visibility == nil {
		return true, nil
	}
	values := make(map[string]string, len(fields))
	for _, field := range fields {
		values[field.Name] = ""
	}
	for name, value := range form.Values() {
		values[name] = value
	}
	return b.visibility.Eval(spec.Name, spec.VisibleWhen, values)
}

// Run fills the form, then submits it. It refuses to submit a form that still
// holds errors after Fill. Fields rejected by a submission are prompted once
// more and the form resubmitted, up to the configured attempts. Whole-form
// errors are printed; the last submission error is returned when nothing can
// be re-prompted.
func (b *Binder) Run(ctx context.Context, form *state.Form, fields []FieldSpec) error {
	if err := b.Fill(ctx, form, fields); err != nil {
		return err
	}

	if errs := form.Errors(); len(errs) > 0 {
		if msg := errs.Message(state.FormErrorKey); msg != "" {
			b.error(ctx, msg)
		}
		return fmt.Errorf("%w: %s", ErrInvalidForm, errs.String())
	}

	for attempt := 1; ; attempt++ {
		if b.confirm {
			ok, err := b.driver.Confirm(ctx, ConfirmConfig{Message: b.theme.PromptPrefix + "Submit?", Default: true})
			if err != nil {
				return err
			}
			if !ok {
				return ErrAborted
			}
		}

		err := form.Submit(ctx)
		if err == nil {
			b.info(ctx, "Submitted")
			return nil
		}
		b.logger.Debug("submission failed", "attempt", attempt, "err", err)

		errs := form.Errors()
		if msg := errs.Message(state.FormErrorKey); msg != "" {
			b.error(ctx, msg)
		}
		retry := rejectedFields(fields, errs)
		if len(retry) == 0 || attempt >= b.maxAttempts {
			return err
		}
		// rejected fields are asked once; the next submission decides.
		for _, spec := range retry {
			if err := b.answer(ctx, form, spec); err != nil {
				return err
			}
		}
	}
}

func (b *Binder) fillField(ctx context.Context, form *state.Form, spec FieldSpec) error {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil
	}
	for attempt := 1; ; attempt++ {
		current := form.Field(name)
		if current.Error != nil {
			b.error(ctx, current.ErrorText())
		}

		fallback := current.Value
		if fallback == "" {
			fallback = spec.Default
		}
		answer, err := b.ask(ctx, spec, fallback)
		if err != nil {
			return err
		}

		current.OnChange(answer)
		current.OnBlur()

		field := form.Field(name)
		if field.Error == nil {
			return nil
		}
		b.logger.Debug("field rejected", "field", name, "attempt", attempt)
		if attempt >= b.maxAttempts {
			b.error(ctx, field.ErrorText())
			return fmt.Errorf("%w: %s: %s", ErrInvalidField, name, field.ErrorText())
		}
	}
}

func (b *Binder) answer(ctx context.Context, form *state.Form, spec FieldSpec) error {
	current := form.Field(spec.Name)
	if current.Error != nil {
		b.error(ctx, spec.label()+": "+current.ErrorText())
	}
	value, err := b.ask(ctx, spec, current.Value)
	if err != nil {
		return err
	}
	current.OnChange(value)
	current.OnBlur()
	return nil
}

func (b *Binder) ask(ctx context.Context, spec FieldSpec, fallback string) (string, error) {
	message := b.theme.PromptPrefix + spec.label()
	switch {
	case len(spec.Options) > 0:
		idx, err := b.driver.Select(ctx, SelectConfig{
			Message:      message,
			Options:      spec.Options,
			DefaultIndex: indexOf(spec.Options, fallback),
			Help:         spec.Help,
		})
		if err != nil {
			return "", err
		}
		if idx < 0 || idx >= len(spec.Options) {
			return "", fmt.Errorf("%w: %s", ErrUnknownOption, spec.Name)
		}
		return spec.Options[idx], nil
	case spec.Secret:
		return b.driver.Password(ctx, InputConfig{Message: message, Default: fallback, Help: spec.Help})
	case spec.Multiline:
		return b.driver.TextArea(ctx, TextAreaConfig{Message: message, Default: fallback, Help: spec.Help})
	default:
		return b.driver.Input(ctx, InputConfig{Message: message, Default: fallback, Help: spec.Help})
	}
}

func (b *Binder) info(ctx context.Context, msg string) {
	if err := b.driver.Info(ctx, b.theme.InfoPrefix+msg); err != nil {
		b.logger.Warn("print message", "err", err)
	}
}

func (b *Binder) error(ctx context.Context, msg string) {
	if err := b.driver.Info(ctx, b.theme.ErrorPrefix+msg); err != nil {
		b.logger.Warn("print error", "err", err)
	}
}

func rejectedFields(fields []FieldSpec, errs state.Errors) []FieldSpec {
	var out []FieldSpec
	for _, spec := range fields {
		if _, ok := errs[spec.Name]; ok {
			out = append(out, spec)
		}
	}
	return out
}
