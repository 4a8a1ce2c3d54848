package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dustat/dustat/pkg/dustat/agg"
	"github.com/dustat/dustat/pkg/dustat/csvrow"
)

// Build-time variables set by goreleaser or go build -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and data-format information",
	Long: `Display the dustat build plus the exact CSV headers of the two file
formats it produces, so downstream consumers can verify compatibility.`,
	Run: runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// runVersion prints build and wire-format information.
func runVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("dustat %s (commit %s, built %s)\n", version, commit, date)
	fmt.Printf("  runtime:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	fmt.Printf("  scan format:   %s\n", strings.TrimSuffix(csvrow.Header, "\n"))
	fmt.Printf("  rollup format: %s\n", strings.TrimSuffix(agg.OutputHeader, "\n"))
}
