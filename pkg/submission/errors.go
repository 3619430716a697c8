// Package submission provides the failure type understood by state.Form's
// Submit, a mapper from server error payloads onto form fields, and an HTTP
// submit handler built on go-retryablehttp.
package submission

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
)

// Error is a rejected submission. Form holds whole-form messages and Fields
// holds one message per field. state.Form stores Messages()[0] under its
// form error key and merges FieldErrors() into the field errors.
type Error struct {
	Status  int
	Message string
	Form    []string
	Fields  map[string]string
}

// NewMessages builds an Error carrying a list of whole-form messages.
func NewMessages(messages ...string) *Error {
	return &Error{Form: normalizeMessages(messages)}
}

// NewFieldErrors builds an Error carrying one message per field.
func NewFieldErrors(fields map[string]string) *Error {
	out := make(map[string]string, len(fields))
	for name, msg := range fields {
		msg = strings.TrimSpace(msg)
		if msg == "" {
			continue
		}
		out[strings.TrimSpace(name)] = msg
	}
	if len(out) == 0 {
		out = nil
	}
	return &Error{Fields: out}
}

func (e *Error) Error() string {
	if e == nil {
		return "submission failed"
	}
	var text string
	switch {
	case len(e.Form) > 0:
		text = strings.Join(e.Form, "; ")
	case strings.TrimSpace(e.Message) != "":
		text = strings.TrimSpace(e.Message)
	case len(e.Fields) > 0:
		names := make([]string, 0, len(e.Fields))
		for name := range e.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, name+": "+e.Fields[name])
		}
		text = strings.Join(parts, "; ")
	default:
		text = http.StatusText(e.Status)
	}
	if e.Status != 0 {
		if text == "" {
			return fmt.Sprintf("submission failed with status %d", e.Status)
		}
		return fmt.Sprintf("submission failed with status %d: %s", e.Status, text)
	}
	if text == "" {
		return "submission failed"
	}
	return text
}

// Messages returns the whole-form messages, falling back to Message.
func (e *Error) Messages() []string {
	if e == nil {
		return nil
	}
	if len(e.Form) > 0 {
		return append([]string(nil), e.Form...)
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		return []string{msg}
	}
	return nil
}

// FieldErrors returns a copy of the per-field messages.
func (e *Error) FieldErrors() map[string]string {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Fields))
	for name, msg := range e.Fields {
		out[name] = msg
	}
	return out
}

// MapFieldErrors folds a server error payload keyed by dotted paths or JSON
// pointers onto root field names. Only the first message of each field is
// kept. Form-level keys ("", "form", "__all__", "non_field_errors", ...) and
// paths that resolve to nothing are returned as whole-form messages so none
// are lost. Leading wrapper segments such as "body" or "data" are skipped.
func MapFieldErrors(payload map[string][]string) (map[string]string, []string) {
	if len(payload) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fields := make(map[string]string)
	var form []string
	for _, raw := range keys {
		messages := normalizeMessages(payload[raw])
		if len(messages) == 0 {
			continue
		}
		name, formLevel := mapErrorPath(raw)
		if formLevel {
			form = append(form, messages...)
			continue
		}
		if _, exists := fields[name]; !exists {
			fields[name] = messages[0]
		}
	}

	if len(fields) == 0 {
		fields = nil
	}
	return fields, normalizeMessages(form)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))
	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

func mapErrorPath(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if isFormLevelKey(trimmed) {
		return "", true
	}
	segments := stripNumericSegments(dropWrapperSegments(parsePathSegments(trimmed)))
	if len(segments) == 0 {
		return "", true
	}
	return segments[0], false
}

func parsePathSegments(path string) []string {
	clean := strings.TrimSpace(path)
	for clean != "" && strings.ContainsRune("#$/.", rune(clean[0])) {
		clean = clean[1:]
	}

	replacer := strings.NewReplacer("[", ".", "]", "", "//", "/")
	clean = strings.Trim(replacer.Replace(clean), "./")
	if clean == "" {
		return nil
	}

	parts := strings.FieldsFunc(clean, func(r rune) bool {
		return r == '.' || r == '/'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		segment := strings.TrimSpace(part)
		if segment == "" {
			continue
		}
		segment = strings.ReplaceAll(segment, "~1", "/")
		segment = strings.ReplaceAll(segment, "~0", "~")
		out = append(out, segment)
	}
	return out
}

var wrapperSegments = map[string]struct{}{
	"body":       {},
	"request":    {},
	"payload":    {},
	"data":       {},
	"attributes": {},
	"values":     {},
}

func dropWrapperSegments(segments []string) []string {
	out := segments
	for len(out) > 1 {
		if _, ok := wrapperSegments[strings.ToLower(out[0])]; !ok {
			break
		}
		out = out[1:]
	}
	return out
}

func stripNumericSegments(segments []string) []string {
	out := make([]string, 0, len(segments))
	for _, segment := range segments {
		if _, err := strconv.Atoi(segment); err == nil {
			continue
		}
		out = append(out, segment)
	}
	return out
}

func isFormLevelKey(key string) bool {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "", ".", "/", "#", "$", "form", "__form", "base", "__all__", "non_field_errors", "non-field-errors":
		return true
	default:
		return false
	}
}
