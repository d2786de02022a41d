package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"atomikgen/internal/engine"
)

func newBatchCmd(a *app) *cobra.Command {
	var (
		outputDir string
		languages []string
		report    string
	)

	cmd := &cobra.Command{
		Use:   "batch <directory>",
		Short: "Generate every schema in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.override(cmd, outputDir, languages); err != nil {
				return err
			}

			if cmd.Flags().Changed("report") {
				a.cfg.Report = report
			}

			dir := args[0]

			paths, err := engine.Discover(dir)
			if err != nil {
				return withCode(exitFile, err)
			}

			if len(paths) == 0 {
				return withCode(exitFile, fmt.Errorf("no schemas found in %s", dir))
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Found %d schema(s) in %s\n\n", len(paths), dir)

			res, err := engine.Batch(cmd.Context(), dir, a.cfg, engine.WithLogger(a.log))
			if err != nil {
				return withCode(exitFile, err)
			}

			for _, sr := range res.Schemas {
				printSchemaReport(cmd, sr)
			}

			fmt.Fprintf(out, "\nProcessed: %d schema(s), %d file(s), %d failure(s)\n",
				len(res.Schemas), res.TotalFiles(), res.Failures())

			if a.cfg.Report != "" {
				if err := res.WriteJSON(a.cfg.Report); err != nil {
					return withCode(exitFile, err)
				}

				fmt.Fprintf(out, "Report written to %s\n", a.cfg.Report)
			}

			if !res.OK() {
				return withCode(exitGeneration, fmt.Errorf("%d schema(s) failed", res.Failures()))
			}

			return nil
		},
	}

	addOutputFlags(cmd, &outputDir, &languages)
	cmd.Flags().StringVar(&report, "report", "", "write a JSON report to `FILE`")

	return cmd
}

func printSchemaReport(cmd *cobra.Command, sr *engine.SchemaReport) {
	out := cmd.OutOrStdout()
	name := filepath.Base(sr.Path)

	if !sr.Valid {
		fmt.Fprintf(out, "  %s: VALIDATION FAILED\n", name)

		if sr.Diagnostics == nil || !sr.Diagnostics.HasErrors() {
			fmt.Fprintf(out, "    - %s\n", sr.Error)
			return
		}

		for _, d := range sr.Diagnostics.Errors {
			fmt.Fprintf(out, "    - %s\n", d)
		}

		return
	}

	status := "OK"
	if !sr.OK() {
		status = "FAIL"
	}

	fmt.Fprintf(out, "  %s: %s (%s, %d files)\n", name, status, sr.Namespace, len(sr.Files))

	if sr.Error != "" {
		fmt.Fprintf(out, "    - %s\n", sr.Error)
	}

	for _, r := range sr.Results {
		for _, msg := range r.Errors {
			fmt.Fprintf(out, "    - %s: %s\n", r.Target, msg)
		}
	}
}
