package submission

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

// FromPayload decodes the body of a rejected submission. It understands
//
//	"plain message"
//	["first message", "second message"]
//	{"message": "...", "errors": {"email": ["taken"]}}
//	{"errors": [{"path": "/email", "message": "taken"}, {"message": "form level"}]}
//	{"email": "taken", "non_field_errors": ["..."]}
//
// Bodies that are not JSON are used verbatim as the message. An empty body
// falls back to the status text.
func FromPayload(status int, body []byte) *Error {
	out := &Error{Status: status}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		out.Message = http.StatusText(status)
		return out
	}

	var decoded any
	if err := sonic.Unmarshal(trimmed, &decoded); err != nil {
		out.Message = string(trimmed)
		return out
	}

	switch typed := decoded.(type) {
	case string:
		out.Message = strings.TrimSpace(typed)
	case []any:
		out.Form = collectIssueList(typed, out)
	case map[string]any:
		fromObject(typed, out)
	default:
		out.Message = fmt.Sprint(typed)
	}

	if out.Message == "" && len(out.Form) == 0 && len(out.Fields) == 0 {
		out.Message = http.StatusText(status)
	}
	return out
}

func fromObject(obj map[string]any, out *Error) {
	envelope := false
	for _, key := range []string{"message", "error", "detail", "title"} {
		if text, ok := obj[key].(string); ok {
			envelope = true
			if out.Message == "" {
				out.Message = strings.TrimSpace(text)
			}
		}
	}

	if raw, ok := obj["errors"]; ok {
		envelope = true
		switch typed := raw.(type) {
		case []any:
			out.Form = append(out.Form, collectIssueList(typed, out)...)
		case map[string]any:
			mergeFieldPayload(typed, out)
		case string:
			out.Form = append(out.Form, typed)
		}
	}

	if !envelope {
		mergeFieldPayload(obj, out)
	}
	out.Form = normalizeMessages(out.Form)
}

// collectIssueList returns the form-level messages of a list and merges the
// entries that name a field into out.Fields.
func collectIssueList(items []any, out *Error) []string {
	var form []string
	payload := make(map[string][]string)
	for _, item := range items {
		switch typed := item.(type) {
		case string:
			form = append(form, typed)
		case map[string]any:
			msg := firstString(typed, "message", "msg", "error", "detail")
			if msg == "" {
				continue
			}
			path := firstString(typed, "path", "field", "pointer", "loc")
			if path == "" {
				form = append(form, msg)
				continue
			}
			payload[path] = append(payload[path], msg)
		}
	}
	fields, formLevel := MapFieldErrors(payload)
	mergeFields(out, fields)
	return normalizeMessages(append(form, formLevel...))
}

func mergeFieldPayload(obj map[string]any, out *Error) {
	payload := make(map[string][]string, len(obj))
	for key, value := range obj {
		payload[key] = stringList(value)
	}
	fields, form := MapFieldErrors(payload)
	mergeFields(out, fields)
	out.Form = append(out.Form, form...)
}

func mergeFields(out *Error, fields map[string]string) {
	if len(fields) == 0 {
		return
	}
	if out.Fields == nil {
		out.Fields = make(map[string]string, len(fields))
	}
	for name, msg := range fields {
		if _, exists := out.Fields[name]; !exists {
			out.Fields[name] = msg
		}
	}
}

func stringList(value any) []string {
	switch typed := value.(type) {
	case string:
		return []string{typed}
	case []any:
		out := make([]string, 0, len(typed))
		for _, item := range typed {
			if text, ok := item.(string); ok {
				out = append(out, text)
			}
		}
		return out
	case map[string]any:
		if msg := firstString(typed, "message", "msg", "error"); msg != "" {
			return []string{msg}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var out []string
		for _, key := range keys {
			out = append(out, stringList(typed[key])...)
		}
		return out
	default:
		return nil
	}
}

func firstString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		switch typed := obj[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(typed); trimmed != "" {
				return trimmed
			}
		case []any:
			parts := make([]string, 0, len(typed))
			for _, item := range typed {
				parts = append(parts, fmt.Sprint(item))
			}
			if len(parts) > 0 {
				return strings.Join(parts, ".")
			}
		}
	}
	return ""
}
