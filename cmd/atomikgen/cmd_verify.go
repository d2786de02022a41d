package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"atomikgen/internal/consistency"
	"atomikgen/internal/engine"
)

// maxShownMismatches bounds the mismatches printed per target.
const maxShownMismatches = 5

func newVerifyCmd(a *app) *cobra.Command {
	var (
		outputDir string
		languages []string
		report    string
	)

	cmd := &cobra.Command{
		Use:   "verify <schema>",
		Short: "Generate a schema and run every backend against the reference model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.override(cmd, outputDir, languages); err != nil {
				return err
			}

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

			results, _, err := e.GenerateAndWrite(a.cfg.Targets...)
			if err != nil {
				return verifyError(err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", filepath.Base(args[0]), ns.Path())

			var targets []string

			for _, t := range sortedTargets(results) {
				r := results[t]
				if r.Success {
					targets = append(targets, t)
					continue
				}

				fmt.Fprintf(out, "  %s: not generated\n", t)

				for _, msg := range r.Errors {
					fmt.Fprintf(out, "    - %s\n", msg)
				}
			}

			h := consistency.New(
				consistency.WithLogger(a.log),
				consistency.WithParallelism(a.cfg.Parallelism),
			)

			res, err := h.Check(cmd.Context(), a.cfg.OutputDir, e.Schema(), ns, targets)
			if err != nil {
				return withCode(exitGeneration, err)
			}

			printConsistency(out, res)

			if report != "" {
				if err := engine.WriteReport(report, res); err != nil {
					return withCode(exitFile, err)
				}

				fmt.Fprintf(out, "Report written to %s\n", report)
			}

			switch failed := len(results) - len(targets); {
			case failed > 0:
				return withCode(exitGeneration, fmt.Errorf("%d target(s) failed to generate", failed))
			case !res.Consistent():
				return withCode(exitGeneration, errors.New("backends are not consistent"))
			}

			return nil
		},
	}

	addOutputFlags(cmd, &outputDir, &languages)
	cmd.Flags().StringVar(&report, "report", "", "write a JSON consistency report to `FILE`")

	return cmd
}

// verifyError classifies a GenerateAndWrite failure: write failures are
// file errors, everything else is a generation failure.
func verifyError(err error) error {
	var (
		we *engine.WriteError
		pe *fs.PathError
	)
	if errors.As(err, &we) || errors.As(err, &pe) {
		return withCode(exitFile, err)
	}

	return withCode(exitGeneration, err)
}

func printConsistency(w io.Writer, res *consistency.Report) {
	for _, tr := range res.Targets {
		switch tr.Outcome {
		case consistency.Ran:
			fmt.Fprintf(w, "  %s: ran (%d steps)\n", tr.Target, tr.Steps)
		default:
			fmt.Fprintf(w, "  %s: %s (%s)\n", tr.Target, tr.Outcome, tr.Reason)
		}

		for i, m := range tr.Mismatches {
			if i == maxShownMismatches {
				fmt.Fprintf(w, "    ... %d more\n", len(tr.Mismatches)-i)
				break
			}

			fmt.Fprintf(w, "    #%d want %s\n", m.Index, m.Want)
			fmt.Fprintf(w, "    #%d got  %s\n", m.Index, m.Got)
		}

		if tr.Replay != "" {
			fmt.Fprintf(w, "    replay of %s:\n", tr.Mismatches[0].Vector)

			for _, line := range strings.Split(strings.TrimSuffix(tr.Replay, "\n"), "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}

	fmt.Fprintf(w, "Consistent: %t (%d of %d targets ran)\n", res.Consistent(), res.Ran(), len(res.Targets))
}
