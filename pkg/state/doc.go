// Package state implements the form state machine: string values keyed by
// field name, touched flags, an error mapping with a reserved whole-form key,
// and a submission lifecycle. Views bind to Field snapshots, which carry the
// current value, a touch-gated error and the OnChange/OnBlur/OnError handlers
// for one field.
//
// Field names are discovered on first access. Field, Setter and the update
// helpers create and cache a field's handlers the first time its name is
// requested, so no schema needs to be declared upfront.
//
// Validation is delegated to a Validator and always runs after a value
// change, including for untouched fields; only the display of an error is
// gated by the touched flag. That lets a parent form observe a child's
// invalidity before the user has interacted with the child:
//
//	parent := state.New(state.WithValidator(rules))
//	child := state.New(
//		state.WithValidator(childRules),
//		state.WithParent(parent.Field("address")),
//	)
//
// The child reports its full error mapping to the parent's "address" field on
// every validation, and a nil mapping once it is clean.
//
// A Form serializes its own updates. Handlers (OnChange, OnError) run outside
// the internal lock in call order, so they may call back into the form.
package state
