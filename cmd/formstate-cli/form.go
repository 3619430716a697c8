package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formstate/pkg/sanitize"
	"github.com/goliatone/go-formstate/pkg/state"
	"github.com/goliatone/go-formstate/pkg/validation"
)

var errNoFields = errors.New("no fields to fill: pass --schema, --cue or --field")

// formDefinition is what a schema source contributes to a command.
type formDefinition struct {
	validator state.Validator
	fields    []validation.FieldInfo
}

func (d formDefinition) secretFields() []string {
	var out []string
	for _, field := range d.fields {
		if field.Secret {
			out = append(out, field.Name)
		}
	}
	return out
}

func loadDefinition(cfg *Config) (formDefinition, error) {
	var def formDefinition

	switch {
	case cfg.Schema != "" && cfg.CUE != "":
		return def, errors.New("use either --schema or --cue, not both")
	case cfg.Schema != "":
		schema, err := validation.LoadSchemaFile(cfg.Schema)
		if err != nil {
			return def, err
		}
		def.validator = schema
		def.fields = schema.Fields()
	case cfg.CUE != "":
		src, err := os.ReadFile(cfg.CUE)
		if err != nil {
			return def, fmt.Errorf("read cue file: %w", err)
		}
		schema, err := validation.NewCUE(src, cfg.Definition)
		if err != nil {
			return def, err
		}
		def.validator = schema
		def.fields = schema.Fields()
	}

	known := make(map[string]struct{}, len(def.fields))
	for _, field := range def.fields {
		known[field.Name] = struct{}{}
	}
	for _, name := range cfg.Fields {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := known[name]; ok {
			continue
		}
		known[name] = struct{}{}
		def.fields = append(def.fields, validation.FieldInfo{Name: name})
	}

	if len(def.fields) == 0 {
		return def, errNoFields
	}
	return def, nil
}

func newForm(cfg *Config, def formDefinition, logger *log.Logger, extra ...state.Option) *state.Form {
	opts := []state.Option{
		state.WithName(cfg.Name),
		state.WithLogger(logger),
	}
	if def.validator != nil {
		opts = append(opts, state.WithValidator(def.validator))
	}
	if cfg.Sanitize {
		opts = append(opts, state.WithValueFilter(sanitize.StrictTextExcept(def.secretFields()...)))
	}
	return state.New(append(opts, extra...)...)
}
