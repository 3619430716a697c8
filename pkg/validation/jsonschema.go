package validation

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// FieldInfo describes a top-level property declared by a schema. Binders use
// it to decide prompt order and labels.
type FieldInfo struct {
	Name        string
	Title       string
	Description string
	Default     string
	Required    bool
	Secret      bool
	Multiline   bool
	Enum        []string
	// VisibleWhen is a visibility rule; empty means always shown.
	VisibleWhen string
}

// Label returns the title when present, otherwise the field name.
func (f FieldInfo) Label() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Name
}

// Schema validates form values against a JSON Schema / OpenAPI schema object
// using kin-openapi. Empty values are treated as absent so "required" carries
// the same meaning as for Rules. Values addressed at integer, number or
// boolean properties are coerced before validation when they parse cleanly.
type Schema struct {
	schema *openapi3.Schema
	order  []string
}

// NewSchema wraps an already decoded schema. Property order follows the
// sorted property names.
func NewSchema(schema *openapi3.Schema) (*Schema, error) {
	if schema == nil {
		return nil, errors.New("validation: schema is required")
	}
	return &Schema{schema: schema, order: schemaPropertyNames(schema, nil)}, nil
}

// LoadSchema decodes a JSON or YAML schema document. JSON is valid YAML so a
// single yaml.v3 pass handles both while keeping the declared property order.
func LoadSchema(data []byte) (*Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errors.New("validation: schema document is empty")
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("validation: parse schema: %w", err)
	}

	var raw map[string]any
	if err := node.Decode(&raw); err != nil {
		return nil, fmt.Errorf("validation: decode schema: %w", err)
	}
	encoded, err := sonic.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("validation: encode schema: %w", err)
	}

	schema := &openapi3.Schema{}
	if err := schema.UnmarshalJSON(encoded); err != nil {
		return nil, fmt.Errorf("validation: load schema: %w", err)
	}

	return &Schema{schema: schema, order: schemaPropertyNames(schema, &node)}, nil
}

// LoadSchemaFile reads and decodes a schema from disk.
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("validation: read schema %s: %w", path, err)
	}
	return LoadSchema(data)
}

// Fields lists the top-level properties in declaration order.
func (s *Schema) Fields() []FieldInfo {
	if s == nil || s.schema == nil {
		return nil
	}
	required := make(map[string]struct{}, len(s.schema.Required))
	for _, name := range s.schema.Required {
		required[name] = struct{}{}
	}

	out := make([]FieldInfo, 0, len(s.order))
	for _, name := range s.order {
		info := FieldInfo{Name: name}
		if _, ok := required[name]; ok {
			info.Required = true
		}
		if ref := s.schema.Properties[name]; ref != nil && ref.Value != nil {
			prop := ref.Value
			info.Title = strings.TrimSpace(prop.Title)
			info.Description = strings.TrimSpace(prop.Description)
			info.Secret = prop.Format == "password"
			info.Multiline = prop.Format == "textarea"
			if prop.Default != nil {
				info.Default = fmt.Sprint(prop.Default)
			}
			if rule, ok := prop.Extensions["x-visible-when"].(string); ok {
				info.VisibleWhen = strings.TrimSpace(rule)
			}
			for _, value := range prop.Enum {
				info.Enum = append(info.Enum, fmt.Sprint(value))
			}
		}
		out = append(out, info)
	}
	return out
}

// Validate implements the state.Validator contract.
func (s *Schema) Validate(values map[string]string) error {
	if s == nil || s.schema == nil {
		return nil
	}

	doc := make(map[string]any, len(values))
	for name, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		doc[name] = s.coerce(name, value)
	}

	err := s.schema.VisitJSON(doc, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	issues := s.collectIssues(err, nil)
	if len(issues) == 0 {
		return NewError(Issue{Message: err.Error()})
	}
	return NewError(issues...)
}

func (s *Schema) coerce(name, value string) any {
	ref := s.schema.Properties[name]
	if ref == nil || ref.Value == nil || ref.Value.Type == nil {
		return value
	}
	switch firstSchemaType(ref.Value.Type) {
	case openapi3.TypeInteger:
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return float64(n)
		}
	case openapi3.TypeNumber:
		if n, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return n
		}
	case openapi3.TypeBoolean:
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return value
}

func (s *Schema) collectIssues(err error, out []Issue) []Issue {
	switch typed := err.(type) {
	case openapi3.MultiError:
		for _, inner := range typed {
			out = s.collectIssues(inner, out)
		}
		return out
	case *openapi3.SchemaError:
		path := strings.Join(typed.JSONPointer(), ".")
		return append(out, Issue{Path: path, Message: s.schemaMessage(path, typed)})
	default:
		return append(out, Issue{Message: err.Error()})
	}
}

func (s *Schema) schemaMessage(path string, err *openapi3.SchemaError) string {
	if err.SchemaField != "required" {
		return err.Reason
	}
	name := FieldName(path)
	label := name
	if ref := s.schema.Properties[name]; ref != nil && ref.Value != nil && strings.TrimSpace(ref.Value.Title) != "" {
		label = strings.TrimSpace(ref.Value.Title)
	}
	return fmt.Sprintf("%s is a required field", label)
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	if values := types.Slice(); len(values) > 0 {
		return values[0]
	}
	return ""
}

func schemaPropertyNames(schema *openapi3.Schema, node *yaml.Node) []string {
	seen := make(map[string]struct{}, len(schema.Properties))
	var out []string
	for _, name := range declaredPropertyOrder(node) {
		if _, ok := schema.Properties[name]; !ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	rest := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		if _, ok := seen[name]; ok {
			continue
		}
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func declaredPropertyOrder(node *yaml.Node) []string {
	if node == nil {
		return nil
	}
	root := node
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "properties" {
			continue
		}
		props := root.Content[i+1]
		if props.Kind != yaml.MappingNode {
			return nil
		}
		names := make([]string, 0, len(props.Content)/2)
		for j := 0; j+1 < len(props.Content); j += 2 {
			names = append(names, props.Content[j].Value)
		}
		return names
	}
	return nil
}
