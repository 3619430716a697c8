package validation

import (
	"fmt"
	"strings"
)

// Issue describes a single failing path. Path uses dotted notation
// ("owner.email") although JSON pointers ("/owner/email") are accepted by
// FieldName.
type Issue struct {
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Error is the structured failure returned by validators.
type Error struct {
	Issues []Issue `json:"issues"`
}

// NewError builds an Error from the provided issues, dropping entries without
// a message.
func NewError(issues ...Issue) *Error {
	out := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		msg := strings.TrimSpace(issue.Message)
		if msg == "" {
			continue
		}
		out = append(out, Issue{Path: strings.TrimSpace(issue.Path), Message: msg})
	}
	return &Error{Issues: out}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil || len(e.Issues) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		if issue.Path == "" {
			parts = append(parts, issue.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", issue.Path, issue.Message))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Fields collapses the issues into a field -> message map, keeping the first
// message reported for each root field. Issues without a resolvable field are
// returned under the empty key.
func (e *Error) Fields() map[string]string {
	if e == nil || len(e.Issues) == 0 {
		return nil
	}
	out := make(map[string]string, len(e.Issues))
	for _, issue := range e.Issues {
		name := FieldName(issue.Path)
		if _, exists := out[name]; exists {
			continue
		}
		out[name] = issue.Message
	}
	return out
}

// FieldName returns the root field addressed by a dotted path, JSON pointer
// or bracketed index path. "owner.email", "/owner/email", "#/owner" and
// "owner[0].email" all resolve to "owner".
func FieldName(path string) string {
	clean := strings.TrimSpace(path)
	for clean != "" && strings.ContainsRune("#$/.", rune(clean[0])) {
		clean = clean[1:]
	}
	if clean == "" {
		return ""
	}
	end := strings.IndexAny(clean, "./[")
	if end >= 0 {
		clean = clean[:end]
	}
	clean = strings.ReplaceAll(clean, "~1", "/")
	clean = strings.ReplaceAll(clean, "~0", "~")
	return strings.TrimSpace(clean)
}
