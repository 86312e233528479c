// =============================================================================
// mergedoc - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (mergedoc)
//   ├── generateCmd (mergedoc generate)
//   ├── typesCmd    (mergedoc types)
//   ├── setupCmd    (mergedoc setup)
//   ├── configsCmd  (mergedoc configs)
//   └── versionCmd  (mergedoc version)
//
// CONFIGURATION:
//   Before any subcommand runs, the root command:
//   1. Loads the application settings (defaults, then MERGEDOC_* variables,
//      then the global flags below)
//   2. Sets up logging
//   3. Builds the document type registry (built-in types plus manifests
//      found in the plugins directory)
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/mergedoc-generator/internal/config"
	"github.com/ginjaninja78/mergedoc-generator/internal/doctypes"
	"github.com/ginjaninja78/mergedoc-generator/internal/logger"
	"github.com/ginjaninja78/mergedoc-generator/internal/registry"
)

// =============================================================================
// APPLICATION STATE
// =============================================================================

// app holds what the commands share: the filesystem, the resolved settings,
// the logger and the registry. It is filled in by the root command's
// PersistentPreRunE.
type app struct {
	fs  afero.Fs
	loc config.Locations

	settings *config.Settings
	log      logger.Logger
	registry *registry.Registry

	// Global flags.
	cfgFile    string
	verbose    bool
	logLevel   string
	logJSON    bool
	pluginsDir string
}

func newApp() *app {
	return &app{
		fs:  afero.NewOsFs(),
		loc: config.DefaultLocations(),
	}
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "mergedoc",
		Short: "mergedoc - Merge spreadsheet rows into invoices, sales orders and other documents",
		Long: `mergedoc turns rows of a CSV, TSV or XLSX file into formatted PDF documents.
Rows sharing a document number (for example an invoice number) become one
document with a line-item table, computed totals and tax.

Key Features:
  - Built-in invoice and sales order layouts
  - Extra document types declared as YAML manifests
  - Per-type YAML configuration with sensible defaults
  - One bad document never stops the batch; failures go to an error log
  - Optional merged output file and XML output

Example Usage:
  mergedoc setup -t invoice --samples            # Write a config template and sample data
  mergedoc generate -t invoice -s invoices.csv   # Generate one PDF per invoice
  mergedoc generate -t sales_order -s orders.xlsx -r SO-1001..SO-1010
  mergedoc types                                 # List the available document types`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},

		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "",
		"Path to a document config file (default: search ./, the user config directory and ~/.mergedoc)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false,
		"Enable verbose output for debugging (same as --log-level debug)")
	flags.StringVar(&a.logLevel, "log-level", "info",
		"Log level: debug, info, warn or error")
	flags.BoolVar(&a.logJSON, "log-json", false,
		"Write logs as JSON lines")
	flags.StringVar(&a.pluginsDir, "plugins-dir", "",
		"Directory scanned for document type manifests")

	rootCmd.AddCommand(
		newGenerateCmd(a),
		newTypesCmd(a),
		newSetupCmd(a),
		newConfigsCmd(a),
		newVersionCmd(),
	)
	return rootCmd
}

// setup resolves settings, logging and the registry for the running command.
func (a *app) setup(cmd *cobra.Command) error {
	settings, err := config.LoadSettings()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		settings.LogLevel = a.logLevel
	}
	if a.verbose {
		settings.LogLevel = string(logger.DebugLevel)
	}
	if flags.Changed("log-json") {
		settings.LogJSON = a.logJSON
	}
	if flags.Changed("plugins-dir") {
		settings.PluginsDir = a.pluginsDir
	}
	if settings.PluginsDir == "" {
		settings.PluginsDir = a.loc.PluginsDir()
	}
	if err := settings.Validate(); err != nil {
		return err
	}
	a.settings = settings

	a.log = logger.New(logger.Config{
		Level:  logger.Level(settings.LogLevel),
		JSON:   settings.LogJSON,
		Output: cmd.ErrOrStderr(),
	})

	// Skipped types are logged by Discover and do not stop the command.
	a.registry, _ = registry.Discover(a.fs, doctypes.Builtin(), settings.PluginsDir, a.log)
	return nil
}

// lookup resolves a document type name, listing the known names on failure.
func (a *app) lookup(name string) (registry.Descriptor, error) {
	if name == "" {
		return registry.Descriptor{}, fmt.Errorf("document type is required (available: %v)", a.registry.List())
	}
	return a.registry.Lookup(name)
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute builds the command tree and runs it. This is called by main.main().
// An interrupt cancels the running batch; documents that have not started
// are reported as failed.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
