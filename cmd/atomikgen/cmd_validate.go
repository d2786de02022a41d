package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"atomikgen/internal/engine"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <schema>",
		Short: "Validate a schema without generating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e := engine.New(a.cfg, engine.WithLogger(a.log))

			diags, err := e.LoadSchema(args[0])
			if err != nil {
				return loadError(diags, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s\n", filepath.Base(args[0]), diags)

			for _, d := range diags.Errors {
				fmt.Fprintf(out, "  ERROR: %s\n", d)
			}

			for _, d := range diags.Warnings {
				fmt.Fprintf(out, "  WARN:  %s\n", d)
			}

			for _, d := range diags.Infos {
				fmt.Fprintf(out, "  INFO:  %s\n", d)
			}

			if !diags.IsValid() {
				return withCode(exitValidation, engine.ErrInvalidSchema)
			}

			return nil
		},
	}
}
