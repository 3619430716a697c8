// Package sanitize provides value filters for state.WithValueFilter.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// Text removes every HTML element from value and keeps the text content.
// Values without markup are returned unchanged.
func Text(value string) string {
	if !strings.ContainsRune(value, '<') {
		return value
	}
	return html.UnescapeString(strictSanitizer().Sanitize(value))
}

// StrictText returns a filter applying Text to every field.
func StrictText() func(name, value string) string {
	return func(_ string, value string) string {
		return Text(value)
	}
}

// StrictTextExcept applies Text to every field except the named ones, for
// fields such as passwords whose raw value must survive.
func StrictTextExcept(names ...string) func(name, value string) string {
	skip := make(map[string]struct{}, len(names))
	for _, name := range names {
		skip[strings.TrimSpace(name)] = struct{}{}
	}
	return func(name string, value string) string {
		if _, ok := skip[name]; ok {
			return value
		}
		return Text(value)
	}
}

func strictSanitizer() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}
