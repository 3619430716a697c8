package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
	"github.com/goliatone/go-formstate/pkg/state"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [values.json]",
		Short: "Validate a JSON object of values without prompting",
		Long: `Read a JSON object of field values from a file (or stdin when the
argument is omitted or "-") and report every error the form would show.
The command exits with status 1 when any field is invalid.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			source := "-"
			if len(args) == 1 {
				source = args[0]
			}
			return a.runValidate(cmd, cfg, source)
		},
	}
}

func (a *app) runValidate(cmd *cobra.Command, cfg *Config, source string) error {
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	def, err := loadDefinition(cfg)
	if err != nil && !errors.Is(err, errNoFields) {
		return err
	}
	if def.validator == nil {
		return errors.New("validate needs --schema or --cue")
	}

	data, err := a.readSource(cmd, source)
	if err != nil {
		return err
	}

	form := newForm(cfg, def, logger)
	defer form.Close()
	if err := form.ApplyMergePatch(data); err != nil {
		return fmt.Errorf("read values: %w", err)
	}

	out := cmd.OutOrStdout()
	errs := form.Errors()
	if len(errs) == 0 {
		fmt.Fprintln(out, successStyle.Render("valid"))
		return nil
	}
	printErrors(out, "", errs)
	return &ExitError{Code: 1, Err: fmt.Errorf("%d invalid field(s)", len(errs))}
}

func (a *app) readSource(cmd *cobra.Command, source string) ([]byte, error) {
	if source == "-" {
		in := a.stdin
		if in == nil {
			in = cmd.InOrStdin()
		}
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	return data, nil
}

func printErrors(w io.Writer, prefix string, errs state.Errors) {
	names := make([]string, 0, len(errs))
	for name := range errs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if nested, ok := errs[name].(state.Errors); ok {
			printErrors(w, prefix+name+".", nested)
			continue
		}
		fmt.Fprintf(w, "%s%s: %s\n", errorStyle.Render(tui.DefaultTheme.ErrorPrefix), prefix+name, errs.Message(name))
	}
}
