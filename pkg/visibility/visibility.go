// Package visibility decides whether a field is shown given the values
// entered so far.
package visibility

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// Evaluator determines whether a field should be visible based on a rule
// string and the current form values.
type Evaluator interface {
	Eval(field, rule string, values map[string]string) (bool, error)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(field, rule string, values map[string]string) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(field, rule string, values map[string]string) (bool, error) {
	return fn(field, rule, values)
}

// CUE evaluates rules as CUE boolean expressions. Every value is in scope as
// an identifier, so rules read like `plan == "pro"` or
// `country == "US" && state != ""`. An empty rule is always visible.
type CUE struct {
	mu  sync.Mutex
	ctx *cue.Context
}

// NewCUE returns an evaluator with its own CUE runtime.
func NewCUE() *CUE {
	return &CUE{ctx: cuecontext.New()}
}

// Eval implements Evaluator.
func (c *CUE) Eval(field, rule string, values map[string]string) (bool, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return true, nil
	}
	if c == nil || c.ctx == nil {
		return false, errors.New("visibility: evaluator is not initialised")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if values == nil {
		values = map[string]string{}
	}
	scope := c.ctx.Encode(values)
	if err := scope.Err(); err != nil {
		return false, fmt.Errorf("visibility: %s: encode values: %w", field, err)
	}
	result := c.ctx.CompileString(rule, cue.Scope(scope), cue.Filename(field))
	if err := result.Err(); err != nil {
		return false, fmt.Errorf("visibility: %s: %w", field, err)
	}
	visible, err := result.Bool()
	if err != nil {
		return false, fmt.Errorf("visibility: %s: rule %q is not a boolean: %w", field, rule, err)
	}
	return visible, nil
}
