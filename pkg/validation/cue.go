package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// CUE validates form values by unifying them with a CUE definition. Empty
// values are treated as absent, so a field declared without a default reports
// an incomplete value until it is filled in.
//
//	#Signup: {
//		email: string & =~"@"
//		name:  string & !=""
//	}
type CUE struct {
	mu     sync.Mutex
	schema cue.Value
}

// NewCUE compiles src and selects definition (for example "#Signup"). An empty
// definition validates against the root value.
func NewCUE(src []byte, definition string) (*CUE, error) {
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, errors.New("validation: cue source is empty")
	}

	ctx := cuecontext.New()
	root := ctx.CompileBytes(src, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("validation: compile cue: %w", err)
	}

	schema := root
	if definition = strings.TrimSpace(definition); definition != "" {
		schema = root.LookupPath(cue.ParsePath(definition))
		if err := schema.Err(); err != nil {
			return nil, fmt.Errorf("validation: cue definition %s: %w", definition, err)
		}
	}
	return &CUE{schema: schema}, nil
}

// Validate implements the state.Validator contract.
func (c *CUE) Validate(values map[string]string) error {
	doc := make(map[string]string, len(values))
	for name, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		doc[name] = value
	}

	// cue values are not safe for concurrent evaluation.
	c.mu.Lock()
	defer c.mu.Unlock()

	unified := c.schema.Unify(c.schema.Context().Encode(doc))
	err := unified.Validate(cue.Concrete(true), cue.All())
	if err == nil {
		return nil
	}

	var issues []Issue
	for _, cueErr := range cueerrors.Errors(err) {
		full := cueerrors.Path(cueErr)
		msg := strings.TrimSpace(cueErr.Error())
		if prefix := strings.Join(full, "."); prefix != "" && strings.HasPrefix(msg, prefix) {
			msg = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(msg, prefix), ":"))
		}
		// definition selectors such as #Signup are not form fields.
		segments := full
		for len(segments) > 0 && strings.HasPrefix(segments[0], "#") {
			segments = segments[1:]
		}
		path := strings.Join(segments, ".")
		issues = append(issues, Issue{Path: path, Message: msg})
	}
	if len(issues) == 0 {
		return NewError(Issue{Message: err.Error()})
	}
	return NewError(issues...)
}

// Fields lists the regular fields of the definition in declaration order.
// Optional fields (name?: string) are not required. A field attribute such as
//
//	password: string @form(title="Password",secret)
//
// supplies the title and the secret or multiline flags; visible="expr" sets
// the visibility rule. A leading comment
// becomes the description, a disjunction of strings becomes the options.
func (c *CUE) Fields() []FieldInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	iter, err := c.schema.Fields(cue.Optional(true))
	if err != nil {
		return nil
	}
	var out []FieldInfo
	for iter.Next() {
		sel := iter.Selector()
		if sel.IsDefinition() || !sel.IsString() {
			continue
		}
		value := iter.Value()
		info := FieldInfo{
			Name:     sel.Unquoted(),
			Required: !iter.IsOptional(),
		}

		attr := value.Attribute("form")
		if attr.Err() == nil {
			if title, found, _ := attr.Lookup(0, "title"); found {
				info.Title = strings.TrimSpace(title)
			}
			info.Secret, _ = attr.Flag(0, "secret")
			info.Multiline, _ = attr.Flag(0, "multiline")
			if rule, found, _ := attr.Lookup(0, "visible"); found {
				info.VisibleWhen = strings.TrimSpace(rule)
			}
		}
		for _, group := range value.Doc() {
			if text := strings.TrimSpace(group.Text()); text != "" {
				info.Description = text
				break
			}
		}
		if def, ok := value.Default(); ok && def.IsConcrete() {
			if text, err := def.String(); err == nil {
				info.Default = text
			}
		}
		if op, args := value.Expr(); op == cue.OrOp {
			for _, arg := range args {
				if text, err := arg.String(); err == nil {
					info.Enum = append(info.Enum, text)
				}
			}
		}
		out = append(out, info)
	}
	return out
}
