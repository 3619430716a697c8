package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
)

// ExitError signals a non-zero exit code without calling os.Exit in RunE.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// app carries the collaborators commands share. Tests replace the driver.
type app struct {
	driver tui.PromptDriver
	stdin  io.Reader
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "formstate-cli",
		Short: "Fill, validate and submit forms from the terminal",
		Long: titleStyle.Render("formstate-cli") + subtitleStyle.Render(" - terminal forms backed by go-formstate") + `

Fields come from a JSON Schema/OpenAPI document (--schema) or a CUE
definition (--cue/--definition). Answers are validated as they are typed,
server rejections are mapped back onto fields, and an interrupted session
can resume from a checkpoint file.

` + subtitleStyle.Render("Examples:") + `
  formstate-cli fill --schema signup.yaml
  formstate-cli fill --cue signup.cue --definition '#Signup' --endpoint https://api.local/signup
  formstate-cli validate --schema signup.yaml values.json`,
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file (default is ./formstate.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("schema", "", "JSON Schema or OpenAPI schema file describing the form")
	root.PersistentFlags().String("cue", "", "CUE file describing the form")
	root.PersistentFlags().String("definition", "", "CUE definition to validate against, for example #Signup")
	root.PersistentFlags().StringSlice("field", nil, "extra free-text field to prompt for (repeatable)")
	root.PersistentFlags().Bool("sanitize", false, "strip HTML from every non-secret value")

	root.AddCommand(newFillCmd(a))
	root.AddCommand(newValidateCmd(a))
	return root
}

// Execute runs the root command and exits with the command's status.
func Execute() {
	root := newRootCmd(&app{stdin: os.Stdin})
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(versionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func versionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s)", Version, Commit)
}

func newLogger(w io.Writer, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{Prefix: "formstate"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
