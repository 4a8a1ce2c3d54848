// Package scan implements the parallel metadata scanner: a pool of workers
// draining a shared task queue, an in-flight counter driving termination,
// per-worker shard files and a final streaming merge. The output is the
// per-entry CSV consumed by package agg.
package scan

import (
	"github.com/dustat/dustat/pkg/dustat/config"
)

// Options configures a scan.
type Options struct {
	// Root is the directory to scan. It is canonicalized (absolute,
	// symlinks resolved) before traversal.
	Root string

	// Output is the final CSV path. Empty derives a name from the
	// canonical root in the current directory.
	Output string

	// Workers is the number of scanner workers. Zero or negative uses
	// config.DefaultWorkers().
	Workers int

	// Skip lists substrings; any entry whose full path contains one is
	// skipped. Matching is byte-wise, so non-UTF-8 path bytes are
	// compared verbatim.
	Skip []string

	// Sort buffers all data lines in memory and emits them in bytewise
	// ascending order. Intended for testing and small runs only.
	Sort bool

	// NoAtime writes every ATIME field as 0, for reproducible outputs.
	NoAtime bool

	// Batch is the number of file names per stat task.
	Batch int

	// FlushBytes is the staging-buffer flush threshold per worker.
	FlushBytes int

	// Quiet disables periodic progress logging.
	Quiet bool
}

// DefaultOptions returns options with sensible defaults for most systems.
func DefaultOptions() Options {
	return Options{
		Root:       config.DefaultPath,
		Workers:    config.DefaultWorkers(),
		Batch:      config.DefaultBatch,
		FlushBytes: config.DefaultFlushBytes,
	}
}

// Validate applies defaults for unset or invalid values.
func (o *Options) Validate() error {
	if o.Root == "" {
		o.Root = config.DefaultPath
	}
	if o.Workers < 1 {
		o.Workers = config.DefaultWorkers()
	}
	if o.Batch < 1 {
		o.Batch = config.DefaultBatch
	}
	if o.FlushBytes < 1 {
		o.FlushBytes = config.DefaultFlushBytes
	}
	return nil
}
