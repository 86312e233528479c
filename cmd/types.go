package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/mergedoc-generator/internal/registry"
)

// newTypesCmd lists the registered document types.
func newTypesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the available document types",
		Long: `List every registered document type: the built-in ones and those declared
by manifests in the plugins directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available document types:")
			for _, d := range a.registry.Descriptors() {
				fmt.Fprintf(out, "  %-16s %s\n", d.Name, d.DisplayName)
				if d.Description != "" {
					fmt.Fprintf(out, "  %-16s %s\n", "", d.Description)
				}
				if d.Source != registry.SourceBuiltin {
					fmt.Fprintf(out, "  %-16s from %s\n", "", d.Source)
				}
			}
			return nil
		},
	}
}
