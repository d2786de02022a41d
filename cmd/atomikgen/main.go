// Package main provides the CLI entrypoint for atomikgen.
//
// atomikgen validates ATOMiK delta-state schemas and generates accumulator
// SDKs for every supported target:
//   - generate: validate a schema and write every target's sources
//   - validate: report schema diagnostics without generating
//   - info: summarize a schema
//   - batch: generate a directory of schemas
//   - list: print the available targets
//   - verify: generate and run every backend against the reference model
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"atomikgen/internal/config"
	"atomikgen/internal/diagnostic"
)

// Process exit codes.
const (
	exitOK         = 0
	exitValidation = 1
	exitGeneration = 2
	exitFile       = 3
)

const version = "0.1.0"

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps an error returned by a command to a process exit code.
// Errors without an explicit code are usage errors.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}

	return exitValidation
}

// loadError classifies a schema load failure by its diagnostics: unreadable
// files are file errors, undecodable documents are validation failures.
func loadError(diags *diagnostic.Diagnostics, err error) error {
	if diags != nil && diags.HasKind(diagnostic.KindIO) {
		return withCode(exitFile, err)
	}

	return withCode(exitValidation, err)
}

// app is the state shared by every subcommand.
type app struct {
	configPath string
	logLevel   string
	logFormat  string

	cfg config.Config
	log *slog.Logger
}

// load reads the configuration file and applies the global flags.
func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return withCode(exitFile, err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}

	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	if err := cfg.Check(); err != nil {
		return withCode(exitValidation, err)
	}

	a.cfg = cfg
	a.log = cfg.NewLogger(cmd.ErrOrStderr())

	return nil
}

// override applies per-command flags that shadow configuration keys.
func (a *app) override(cmd *cobra.Command, outputDir string, targets []string) error {
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		a.cfg.OutputDir = outputDir
	}

	if flags.Changed("languages") {
		a.cfg.Targets = targets
	}

	if err := a.cfg.Check(); err != nil {
		return withCode(exitValidation, err)
	}

	return nil
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "atomikgen",
		Short:         "ATOMiK schema validation and multi-target accumulator code generation",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", config.DefaultFile, "configuration file")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newValidateCmd(a))
	root.AddCommand(newInfoCmd(a))
	root.AddCommand(newBatchCmd(a))
	root.AddCommand(newListCmd())
	root.AddCommand(newVerifyCmd(a))

	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)

	err := newRootCmd().ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}

	os.Exit(exitCode(err))
}
