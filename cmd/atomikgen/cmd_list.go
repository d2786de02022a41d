package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"atomikgen/internal/emit"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available target languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Available target languages:")

			for _, t := range emit.DefaultRegistry().Targets() {
				fmt.Fprintf(out, "  %s\n", t)
			}

			return nil
		},
	}
}
