package tui

import (
	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formstate/pkg/visibility"
)

// Theme captures optional prefixes the binder applies when printing
// messages. Keep minimal to avoid coupling binder logic to ANSI specifics.
type Theme struct {
	PromptPrefix string
	InfoPrefix   string
	ErrorPrefix  string
}

// DefaultTheme is used when no theme is configured.
var DefaultTheme = Theme{
	InfoPrefix:  "› ",
	ErrorPrefix: "✗ ",
}

// Option configures a Binder.
type Option func(*Binder)

// WithPromptDriver overrides the prompt driver used by the binder.
func WithPromptDriver(driver PromptDriver) Option {
	return func(b *Binder) {
		if driver != nil {
			b.driver = driver
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(b *Binder) {
		b.theme = theme
	}
}

// WithMaxAttempts bounds how many times one field is prompted while it shows
// an error, and how many submissions Run attempts.
func WithMaxAttempts(n int) Option {
	return func(b *Binder) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// WithConfirmSubmit asks for confirmation before each submission.
func WithConfirmSubmit(enabled bool) Option {
	return func(b *Binder) {
		b.confirm = enabled
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *log.Logger) Option {
	return func(b *Binder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithVisibility replaces the evaluator for FieldSpec.VisibleWhen rules. A
// nil evaluator shows every field.
func WithVisibility(evaluator visibility.Evaluator) Option {
	return func(b *Binder) {
		b.visibility = evaluator
	}
}
