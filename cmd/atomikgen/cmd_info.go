package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"atomikgen/internal/engine"
	"atomikgen/internal/namespace"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	SortKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

func newInfoCmd(a *app) *cobra.Command {
	var asJSON, dump bool

	cmd := &cobra.Command{
		Use:   "info <schema>",
		Short: "Show a schema summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := engine.New(a.cfg, engine.WithLogger(a.log))

			diags, err := e.LoadSchema(args[0])
			if err != nil {
				return loadError(diags, err)
			}

			if !diags.IsValid() {
				printFailures(cmd.ErrOrStderr(), args[0], diags)
				return withCode(exitValidation, engine.ErrInvalidSchema)
			}

			sum, err := e.Summary()
			if err != nil {
				return withCode(exitValidation, err)
			}

			out := cmd.OutOrStdout()

			switch {
			case dump:
				dumper.Fdump(out, e.Schema())
			case asJSON:
				data, err := json.MarshalIndent(sum, "", "  ")
				if err != nil {
					return err
				}

				fmt.Fprintln(out, string(data))
			default:
				printSummary(out, sum)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the summary as JSON")
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the compiled schema")

	return cmd
}

func printSummary(w io.Writer, sum *engine.Summary) {
	hardware := "no"
	if sum.HasHardware {
		hardware = "yes"
	}

	fmt.Fprintf(w, "Schema:     %s\n", filepath.Base(sum.Source))
	fmt.Fprintf(w, "Namespace:  %s\n", sum.Namespace)
	fmt.Fprintf(w, "Version:    %s\n", sum.Version)

	if sum.Description != "" {
		fmt.Fprintf(w, "About:      %s\n", sum.Description)
	}

	fmt.Fprintf(w, "Width:      %d bits (%s)\n", sum.DataWidth, sum.Layout)
	fmt.Fprintf(w, "Hardware:   %s\n", hardware)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Delta Fields:")

	for _, f := range sum.Fields {
		fmt.Fprintf(w, "  %s: %s (%d-bit, offset %d)\n", f.Name, f.Type, f.Width, f.Offset)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Operations: %s\n", strings.Join(sum.Operations, ", "))

	if sum.History > 0 {
		fmt.Fprintf(w, "History:    %d\n", sum.History)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Imports:")

	for _, t := range orderedTargets(sum) {
		fmt.Fprintf(w, "  %-10s %s\n", t+":", sum.Targets[t].Import)
	}
}

func orderedTargets(sum *engine.Summary) []string {
	var out []string

	for _, t := range namespace.Targets() {
		if _, ok := sum.Targets[t]; ok {
			out = append(out, t)
		}
	}

	return out
}
