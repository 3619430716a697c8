package tui

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/goliatone/go-formstate/pkg/state"
)

// OutputFormat controls how collected values are serialized.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits a human-friendly text summary.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// ParseOutputFormat resolves a format name, defaulting to JSON.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(name))) {
	case "", OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatFormURLEncoded:
		return OutputFormatFormURLEncoded, nil
	case OutputFormatPrettyText:
		return OutputFormatPrettyText, nil
	default:
		return "", fmt.Errorf("tui: unknown output format %q", name)
	}
}

// ContentType reports the media type of the format.
func (f OutputFormat) ContentType() string {
	switch f {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Encode serializes values in the given format. Secret fields are masked in
// pretty output only.
func Encode(values state.Values, format OutputFormat, secret ...string) ([]byte, error) {
	switch format {
	case OutputFormatFormURLEncoded:
		form := make(url.Values, len(values))
		for name, value := range values {
			form.Set(name, value)
		}
		return []byte(form.Encode()), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values, secret)), nil
	default:
		out, err := sonic.ConfigStd.MarshalIndent(values, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("tui: encode values: %w", err)
		}
		return append(out, '\n'), nil
	}
}

func prettyPrint(values state.Values, secret []string) string {
	masked := make(map[string]struct{}, len(secret))
	for _, name := range secret {
		masked[name] = struct{}{}
	}
	names := make([]string, 0, len(values))
	width := 0
	for name := range values {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		value := values[name]
		if _, ok := masked[name]; ok && value != "" {
			value = "********"
		}
		fmt.Fprintf(&b, "%-*s %s\n", width+1, name+":", value)
	}
	return b.String()
}
