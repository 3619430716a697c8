package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule inspects a single value and returns a message when it fails. The label
// is the human readable field name used in messages.
type Rule func(label, value string) string

// Rules is a declarative rule set keyed by field name. Fields are evaluated
// in declaration order and only the first failing rule per field is reported.
type Rules struct {
	order  []string
	rules  map[string][]Rule
	labels map[string]string
}

// NewRules returns an empty rule set.
func NewRules() *Rules {
	return &Rules{
		rules:  make(map[string][]Rule),
		labels: make(map[string]string),
	}
}

// Field appends rules for the named field.
func (r *Rules) Field(name string, rules ...Rule) *Rules {
	name = strings.TrimSpace(name)
	if name == "" {
		return r
	}
	if _, exists := r.rules[name]; !exists {
		r.order = append(r.order, name)
	}
	r.rules[name] = append(r.rules[name], rules...)
	return r
}

// Label overrides the label used in messages for the named field.
func (r *Rules) Label(name, label string) *Rules {
	r.labels[strings.TrimSpace(name)] = strings.TrimSpace(label)
	return r
}

// Names returns the declared field names in order.
func (r *Rules) Names() []string {
	return append([]string(nil), r.order...)
}

// Validate implements the state.Validator contract.
func (r *Rules) Validate(values map[string]string) error {
	var issues []Issue
	for _, name := range r.order {
		label := r.labels[name]
		if label == "" {
			label = name
		}
		value := values[name]
		for _, rule := range r.rules[name] {
			if rule == nil {
				continue
			}
			if msg := rule(label, value); msg != "" {
				issues = append(issues, Issue{Path: name, Message: msg})
				break
			}
		}
	}
	if len(issues) == 0 {
		return nil
	}
	return NewError(issues...)
}

// Required rejects empty or whitespace-only values.
func Required() Rule {
	return func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s is a required field", label)
		}
		return ""
	}
}

// MinLength rejects non-empty values shorter than n runes. Combine with
// Required to reject empty values.
func MinLength(n int) Rule {
	return func(label, value string) string {
		if value == "" {
			return ""
		}
		if utf8.RuneCountInString(value) < n {
			return fmt.Sprintf("%s must be at least %d characters", label, n)
		}
		return ""
	}
}

// MaxLength rejects values longer than n runes.
func MaxLength(n int) Rule {
	return func(label, value string) string {
		if utf8.RuneCountInString(value) > n {
			return fmt.Sprintf("%s must be at most %d characters", label, n)
		}
		return ""
	}
}

// Pattern rejects non-empty values that do not match re.
func Pattern(re *regexp.Regexp) Rule {
	return func(label, value string) string {
		if value == "" || re == nil {
			return ""
		}
		if !re.MatchString(value) {
			return fmt.Sprintf("%s must match the following: %q", label, re.String())
		}
		return ""
	}
}

// OneOf rejects non-empty values outside the allowed set.
func OneOf(allowed ...string) Rule {
	set := make(map[string]struct{}, len(allowed))
	for _, value := range allowed {
		set[value] = struct{}{}
	}
	return func(label, value string) string {
		if value == "" {
			return ""
		}
		if _, ok := set[value]; !ok {
			return fmt.Sprintf("%s must be one of the following values: %s", label, strings.Join(allowed, ", "))
		}
		return ""
	}
}

// Func adapts a plain function to the validator contract.
type Func func(values map[string]string) error

// Validate calls f.
func (f Func) Validate(values map[string]string) error {
	if f == nil {
		return nil
	}
	return f(values)
}
