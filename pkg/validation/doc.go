// Package validation provides the validator collaborators consumed by
// pkg/state. A validator receives a snapshot of the form values and either
// returns nil or a *Error enumerating one Issue per invalid path. The state
// machine keys errors by the first segment of each issue path, so nested
// schema paths such as "owner.email" or "/owner/email" land on the "owner"
// field.
//
// Three implementations ship with the package: Rules (a small declarative
// rule set with required/length/pattern checks), Schema (JSON Schema and
// OpenAPI schema objects evaluated through kin-openapi) and CUE (a CUE
// definition evaluated through cuelang.org/go). Func adapts a plain function.
package validation
