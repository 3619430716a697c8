package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C) or declined to
	// submit.
	ErrAborted = errors.New("tui: aborted")
	// ErrInvalidField is returned when a field still shows an error after the
	// configured number of attempts.
	ErrInvalidField = errors.New("tui: field is invalid")
	// ErrInvalidForm is returned when the form holds errors no prompt can fix,
	// such as a whole-form validation error.
	ErrInvalidForm = errors.New("tui: form is invalid")
	// ErrUnknownOption is returned when a select prompt answers outside its
	// options.
	ErrUnknownOption = errors.New("tui: unknown option")
)
