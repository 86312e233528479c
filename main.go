// =============================================================================
// mergedoc - Main Entry Point
// =============================================================================
//
// USAGE:
//   mergedoc generate   - Generate documents from a data file
//   mergedoc types      - List the available document types
//   mergedoc setup      - Write a config template and sample data
//   mergedoc configs    - Show where config files are looked up
//   mergedoc version    - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core logic (grouping, calculation, registry, generators,
//                      rendering, the batch pipeline)
//   - pkg/           : Shared utilities (output file management)
//
// =============================================================================

package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/ginjaninja78/mergedoc-generator/cmd"
)

func main() {
	cmd.Execute()
}
