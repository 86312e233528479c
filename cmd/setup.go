// =============================================================================
// mergedoc - Setup Command
// =============================================================================
//
// COMMAND USAGE:
//   mergedoc setup -t <type> [--location user|local|<dir>] [--samples]
//
// Writes <type>_config.yaml with the type's defaults so it can be edited,
// and optionally sample data files to try the type out:
//   sample_<type>_data.csv
//   sample_<type>_data.xlsx
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/loader"
)

// sampleExtensions are the formats written by --samples.
var sampleExtensions = []string{".csv", ".xlsx"}

func newSetupCmd(a *app) *cobra.Command {
	var (
		docType    string
		location   string
		samples    bool
		samplesDir string
	)

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Write a config template (and sample data) for a document type",
		Long: `Write a config template containing the document type's defaults.

Locations:
  user   the per-user config directory (default)
  local  the current directory
  <dir>  any other directory

Every key in the template may be removed to fall back to the default.`,
		Example: `  mergedoc setup -t invoice
  mergedoc setup -t sales_order --location local --samples`,
		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			desc, err := a.lookup(docType)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			dir, err := a.loc.TemplateDir(location)
			if err != nil {
				return err
			}
			path, err := config.SaveTemplate(a.fs, desc.DefaultConfig(), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Config template written to %s\n", path)

			if !samples {
				return nil
			}
			if samplesDir == "" {
				samplesDir = a.loc.WorkDir
			}
			data := desc.SampleData()
			for _, ext := range sampleExtensions {
				path := filepath.Join(samplesDir, fmt.Sprintf("sample_%s_data%s", desc.Name, ext))
				if err := loader.Write(a.fs, path, data); err != nil {
					return fmt.Errorf("failed to write sample data: %w", err)
				}
				fmt.Fprintf(out, "✓ Sample data written to %s\n", path)
			}
			fmt.Fprintf(out, "\nTry it: mergedoc generate -t %s -s %s\n", desc.Name,
				filepath.Join(samplesDir, fmt.Sprintf("sample_%s_data.csv", desc.Name)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&docType, "type", "t", "", "Document type")
	flags.StringVar(&location, "location", "user", "Where to write the template: user, local or a directory")
	flags.BoolVar(&samples, "samples", false, "Also write sample data files")
	flags.StringVar(&samplesDir, "samples-dir", "", "Directory for sample data (default: current directory)")
	cmd.MarkFlagRequired("type")
	return cmd
}
