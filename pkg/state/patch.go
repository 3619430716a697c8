package state

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// Patch operation names accepted by ApplyPatch.
const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
	OperationMove    = "move"
	OperationCopy    = "copy"
	OperationTest    = "test"
)

// PatchOperation is one RFC 6902 operation over the values document, where
// each field is addressed as "/<name>".
type PatchOperation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	From  string `json:"from,omitempty"`
	Value any    `json:"value"`
}

// ApplyPatch applies RFC 6902 operations to the values and runs the normal
// update cycle. A replace on a missing field is treated as an add and a
// remove of a missing field is skipped, so patches built against a stale
// snapshot still apply.
func (f *Form) ApplyPatch(ops []PatchOperation) error {
	if len(ops) == 0 {
		return nil
	}
	return f.mutate("patch", func(current Values) error {
		doc, err := sonic.Marshal(current)
		if err != nil {
			return fmt.Errorf("state: marshal values: %w", err)
		}
		encoded, err := sonic.Marshal(fixOperations(current, ops))
		if err != nil {
			return fmt.Errorf("state: marshal patch operations: %w", err)
		}
		patch, err := jsonpatch.DecodePatch(encoded)
		if err != nil {
			return fmt.Errorf("state: decode patch: %w", err)
		}
		modified, err := patch.Apply(doc)
		if err != nil {
			return fmt.Errorf("state: apply patch: %w", err)
		}
		return f.replaceValues(current, modified)
	})
}

// ApplyMergePatch applies an RFC 7386 merge patch to the values and runs the
// normal update cycle. A null member removes the field.
func (f *Form) ApplyMergePatch(patch []byte) error {
	if len(strings.TrimSpace(string(patch))) == 0 {
		return nil
	}
	return f.mutate("merge-patch", func(current Values) error {
		doc, err := sonic.Marshal(current)
		if err != nil {
			return fmt.Errorf("state: marshal values: %w", err)
		}
		modified, err := jsonpatch.MergePatch(doc, patch)
		if err != nil {
			return fmt.Errorf("state: apply merge patch: %w", err)
		}
		return f.replaceValues(current, modified)
	})
}

// replaceValues decodes a patched values document into current. It only
// writes once the whole document has been checked.
func (f *Form) replaceValues(current Values, modified []byte) error {
	var raw map[string]any
	if err := sonic.Unmarshal(modified, &raw); err != nil {
		return fmt.Errorf("state: decode patched values: %w", err)
	}
	next := make(Values, len(raw))
	for name, value := range raw {
		switch typed := value.(type) {
		case nil:
		case string:
			next[name] = f.filterValue(name, typed)
		default:
			return fmt.Errorf("state: field %q: value must be a string, got %T", name, value)
		}
	}
	for name := range current {
		delete(current, name)
	}
	for name, value := range next {
		current[name] = value
	}
	return nil
}

func fixOperations(current Values, ops []PatchOperation) []PatchOperation {
	fixed := make([]PatchOperation, 0, len(ops))
	for _, op := range ops {
		switch op.Op {
		case OperationReplace:
			if !fieldExists(current, op.Path) {
				op.Op = OperationAdd
			}
			fixed = append(fixed, op)
		case OperationRemove:
			if fieldExists(current, op.Path) {
				fixed = append(fixed, op)
			}
		default:
			fixed = append(fixed, op)
		}
	}
	return fixed
}

func fieldExists(current Values, path string) bool {
	if !strings.HasPrefix(path, "/") {
		return false
	}
	name := path[1:]
	if strings.Contains(name, "/") {
		return false
	}
	name = strings.ReplaceAll(name, "~1", "/")
	name = strings.ReplaceAll(name, "~0", "~")
	_, ok := current[name]
	return ok
}
