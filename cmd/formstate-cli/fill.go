package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/renderers/tui"
	"github.com/goliatone/go-formstate/pkg/state"
	"github.com/goliatone/go-formstate/pkg/submission"
)

func newFillCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Prompt for every field, then submit the form",
		Long: `Prompt for every field in declaration order. A rejected answer is shown
with its error and asked again. Once the form is valid it is submitted to
--endpoint (when set) and the values are written to --output or stdout.

With --checkpoint, an aborted or failed session is saved and the next run
resumes from it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			headers, _ := cmd.Flags().GetStringArray("header")
			for _, raw := range headers {
				key, value, ok := strings.Cut(raw, ":")
				if !ok {
					return fmt.Errorf("invalid header %q: expected key:value", raw)
				}
				if cfg.Headers == nil {
					cfg.Headers = make(map[string]string)
				}
				cfg.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
			}
			return a.runFill(cmd.Context(), cmd, cfg)
		},
	}

	cmd.Flags().String("name", "", "form name used in logs and checkpoints")
	cmd.Flags().String("endpoint", "", "URL the values are submitted to as JSON")
	cmd.Flags().String("method", "POST", "HTTP method used for submission")
	cmd.Flags().StringArray("header", nil, "request header as key:value (repeatable)")
	cmd.Flags().Int("retries", 2, "retries for transient submission failures")
	cmd.Flags().String("checkpoint", "", "file used to save and resume an unfinished session")
	cmd.Flags().String("format", "pretty", "output format: json, form or pretty")
	cmd.Flags().StringP("output", "o", "", "output file (stdout if empty)")
	cmd.Flags().Int("max-attempts", 3, "attempts per field before giving up")
	cmd.Flags().Bool("confirm", true, "ask for confirmation before submitting")
	return cmd
}

func (a *app) runFill(ctx context.Context, cmd *cobra.Command, cfg *Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Verbose)

	format, err := tui.ParseOutputFormat(cfg.Format)
	if err != nil {
		return err
	}
	def, err := loadDefinition(cfg)
	if err != nil {
		return err
	}

	var extra []state.Option
	if cfg.Endpoint != "" {
		handler, err := newSubmitter(cfg, logger)
		if err != nil {
			return err
		}
		extra = append(extra, state.WithOnSubmit(handler.Submit))
	}
	form := newForm(cfg, def, logger, extra...)
	defer form.Close()

	if cfg.Checkpoint != "" {
		if err := restoreCheckpoint(form, cfg.Checkpoint); err != nil {
			return err
		}
	}

	binderOpts := []tui.Option{
		tui.WithTheme(promptTheme()),
		tui.WithMaxAttempts(cfg.MaxAttempts),
		tui.WithConfirmSubmit(cfg.Confirm),
		tui.WithLogger(logger),
	}
	if a.driver != nil {
		binderOpts = append(binderOpts, tui.WithPromptDriver(a.driver))
	}
	binder := tui.New(binderOpts...)

	if err := binder.Run(ctx, form, tui.FieldsFromSchema(def.fields)); err != nil {
		if cfg.Checkpoint != "" {
			if saveErr := saveCheckpoint(form, cfg.Checkpoint); saveErr != nil {
				logger.Warn("save checkpoint", "path", cfg.Checkpoint, "err", saveErr)
			} else {
				logger.Info("session saved", "path", cfg.Checkpoint)
			}
		}
		if errors.Is(err, tui.ErrAborted) {
			return &ExitError{Code: 130, Err: err}
		}
		return err
	}

	if cfg.Checkpoint != "" {
		if err := os.Remove(cfg.Checkpoint); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("remove checkpoint", "path", cfg.Checkpoint, "err", err)
		}
	}

	out, err := tui.Encode(form.Values(), format, def.secretFields()...)
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), cfg.Output, out)
}

func newSubmitter(cfg *Config, logger *log.Logger) (*submission.HTTP, error) {
	opts := []submission.HTTPOption{
		submission.WithMethod(cfg.Method),
		submission.WithRetry(cfg.Retries, 0, 0),
		submission.WithHTTPLogger(logger),
	}
	for key, value := range cfg.Headers {
		opts = append(opts, submission.WithHeader(key, value))
	}
	return submission.NewHTTP(cfg.Endpoint, opts...)
}

func restoreCheckpoint(form *state.Form, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read checkpoint: %w", err)
	}
	if err := form.Restore(data); err != nil {
		return fmt.Errorf("restore checkpoint %s: %w", path, err)
	}
	return nil
}

func saveCheckpoint(form *state.Form, path string) error {
	data, err := form.Checkpoint()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err := fmt.Fprintf(stdout, "Form written to %s\n", path)
	return err
}
