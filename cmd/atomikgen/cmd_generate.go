package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"atomikgen/internal/diagnostic"
	"atomikgen/internal/emit"
	"atomikgen/internal/engine"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		outputDir string
		languages []string
		report    string
	)

	cmd := &cobra.Command{
		Use:   "generate <schema>",
		Short: "Generate SDK code from a schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.override(cmd, outputDir, languages); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			e := engine.New(a.cfg, engine.WithLogger(a.log))

			diags, err := e.LoadSchema(args[0])
			if err != nil {
				return loadError(diags, err)
			}

			if !diags.IsValid() {
				printFailures(cmd.ErrOrStderr(), args[0], diags)
				return withCode(exitValidation, fmt.Errorf("%w: %s", engine.ErrInvalidSchema, filepath.Base(args[0])))
			}

			ns, err := e.ExtractMetadata()
			if err != nil {
				return withCode(exitValidation, err)
			}

			a.log.Info("generating", "schema", args[0], "namespace", ns.Path().String())

			results, err := e.Generate(a.cfg.Targets...)
			if err != nil {
				return withCode(exitGeneration, err)
			}

			files, writeErr := e.WriteOutput(results)

			failed := printResults(out, results)
			fmt.Fprintf(out, "Generated %d file(s) in %s/\n", len(files), a.cfg.OutputDir)

			if report != "" {
				if err := engine.WriteReport(report, e.Report(diags, results, files)); err != nil {
					return withCode(exitFile, err)
				}

				fmt.Fprintf(out, "Report written to %s\n", report)
			}

			switch {
			case writeErr != nil:
				return withCode(exitFile, writeErr)
			case failed > 0:
				return withCode(exitGeneration, fmt.Errorf("%d target(s) failed", failed))
			}

			return nil
		},
	}

	addOutputFlags(cmd, &outputDir, &languages)
	cmd.Flags().StringVar(&report, "report", "", "write a JSON report to `FILE`")

	return cmd
}

func addOutputFlags(cmd *cobra.Command, outputDir *string, languages *[]string) {
	cmd.Flags().StringVar(outputDir, "output-dir", "generated", "output directory")
	cmd.Flags().StringSliceVar(languages, "languages", nil, "target languages (default: all)")
}

// printResults prints one status line per target and returns the number of
// failed targets.
func printResults(w io.Writer, results map[string]*emit.Result) int {
	failed := 0

	for _, t := range sortedTargets(results) {
		r := results[t]

		status := "OK"
		if !r.Success {
			status = "FAIL"
			failed++
		}

		fmt.Fprintf(w, "  %s: %s (%d files)\n", t, status, len(r.Files))

		for _, msg := range r.Errors {
			fmt.Fprintf(w, "    - %s\n", msg)
		}

		for _, msg := range r.Warnings {
			fmt.Fprintf(w, "    warning: %s\n", msg)
		}
	}

	return failed
}

func sortedTargets(results map[string]*emit.Result) []string {
	var out []string

	for _, t := range emit.DefaultRegistry().Targets() {
		if _, ok := results[t]; ok {
			out = append(out, t)
		}
	}

	return out
}

func printFailures(w io.Writer, path string, diags *diagnostic.Diagnostics) {
	fmt.Fprintf(w, "Validation failed for %s:\n", filepath.Base(path))

	for _, d := range diags.Errors {
		fmt.Fprintf(w, "  - %s\n", d)
	}
}
