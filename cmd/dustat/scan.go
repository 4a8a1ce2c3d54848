package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dustat/dustat/pkg/dustat/scan"
	"github.com/dustat/dustat/pkg/dustat/types"
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory tree into a per-entry metadata CSV",
	Long: `Scan walks the tree below the given root (default ".") with a pool of
parallel workers and writes one CSV row per entry, files and directories
both. Per-entry stat failures are counted and skipped; only output-file
errors are fatal.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringP("output", "o", "", "output CSV path (default: derived from canonical root)")
	scanCmd.Flags().IntP("threads", "t", 0, "worker count (0=auto: 2x CPUs, at least 4, capped at 48)")
	scanCmd.Flags().StringSlice("skip", nil, "skip entries whose path contains this substring (repeatable)")
	scanCmd.Flags().Bool("sort", false, "buffer and sort all rows (testing only, does not scale)")
	scanCmd.Flags().Bool("no-atime", false, "write ATIME as 0 for reproducible output")
	scanCmd.Flags().Int("batch", 0, "file names per stat task")
	scanCmd.Flags().String("flush-bytes", "", "staging flush threshold per worker (e.g. 8MiB)")

	_ = viper.BindPFlag("threads", scanCmd.Flags().Lookup("threads"))
	_ = viper.BindPFlag("skip", scanCmd.Flags().Lookup("skip"))
	_ = viper.BindPFlag("batch", scanCmd.Flags().Lookup("batch"))

	rootCmd.AddCommand(scanCmd)
}

// runScan is the scan command handler.
func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}

	flushStr, _ := cmd.Flags().GetString("flush-bytes")
	if flushStr == "" {
		flushStr = viper.GetString("flush_bytes")
	}
	flushBytes, err := types.ParseSize(flushStr)
	if err != nil {
		return fmt.Errorf("invalid --flush-bytes %q: %w", flushStr, err)
	}

	output, _ := cmd.Flags().GetString("output")
	sortRows, _ := cmd.Flags().GetBool("sort")
	noAtime, _ := cmd.Flags().GetBool("no-atime")

	opts := scan.Options{
		Root:       root,
		Output:     output,
		Workers:    viper.GetInt("threads"),
		Skip:       viper.GetStringSlice("skip"),
		Sort:       sortRows,
		NoAtime:    noAtime,
		Batch:      viper.GetInt("batch"),
		FlushBytes: int(flushBytes),
		Quiet:      getQuiet(),
	}
	_ = opts.Validate()

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	printInfo("Local time   : %s", time.Now().Format("2006-01-02 15:04:05"))
	printInfo("Host         : %s", hostname)
	printInfo("Input        : %s", root)
	printInfo("Workers      : %d", opts.Workers)

	start := time.Now()
	result, err := scan.New(opts).Scan()
	if err != nil {
		return err
	}

	elapsed := time.Since(start).Seconds()
	rate := float64(result.Entries) / elapsed

	printInfo("Output       : %s", result.Output)
	printInfo("Total entries: %d", result.Entries)
	printInfo("Total errors : %d", result.Errors)
	printInfo("Total disk   : %s", humanize.IBytes(result.DiskBytes))
	printInfo("Elapsed time : %s", result.Elapsed.Round(time.Millisecond))
	printInfo("Entries/s    : %.0f", rate)
	return nil
}
