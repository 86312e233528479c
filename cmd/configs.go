package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// newConfigsCmd shows where config files are looked up for a type.
func newConfigsCmd(a *app) *cobra.Command {
	var docType string

	cmd := &cobra.Command{
		Use:   "configs",
		Short: "Show the config file search paths for a document type",
		Long: `Show, in priority order, the locations searched for a document type's
config file. The first existing file is used; --config overrides the search.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(docType)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Config search paths for %s:\n", desc.Name)
			if a.cfgFile != "" {
				fmt.Fprintf(out, "  %s %s (--config)\n", existsMark(a.fs, a.cfgFile), a.cfgFile)
			}
			for _, path := range a.loc.SearchPaths(desc.Name) {
				fmt.Fprintf(out, "  %s %s\n", existsMark(a.fs, path), path)
			}
			fmt.Fprintf(out, "\nCreate one with: mergedoc setup -t %s\n", desc.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", "", "Document type")
	cmd.MarkFlagRequired("type")
	return cmd
}

func existsMark(fs afero.Fs, path string) string {
	if ok, _ := afero.Exists(fs, path); ok {
		return "✓"
	}
	return "✗"
}
