package scan

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/dustat/dustat/pkg/dustat/config"
	"github.com/dustat/dustat/pkg/dustat/csvrow"
	"github.com/dustat/dustat/pkg/dustat/logging"
)

// watchInterval is how often the shutdown watcher samples the in-flight
// counter.
const watchInterval = 10 * time.Millisecond

// Scanner coordinates a parallel scan: it seeds the queue with the root,
// tracks in-flight tasks, broadcasts shutdown when the counter reaches zero
// and merges the per-worker shards into the final output.
type Scanner struct {
	opts Options

	queue    *taskQueue
	inflight atomic.Int64

	entries   atomic.Uint64
	errors    atomic.Uint64
	diskBytes atomic.Uint64

	shardWriterBytes int

	log *logging.Logger
}

// Result summarizes a completed scan.
type Result struct {
	// Root is the canonical root that was scanned.
	Root string

	// Output is the path of the merged CSV.
	Output string

	// Entries is the number of records written (files and directories).
	Entries uint64

	// Errors is the number of entries skipped on stat or read failures.
	Errors uint64

	// DiskBytes is the summed on-disk consumption of all records.
	DiskBytes uint64

	// Elapsed is the wall time of traversal and merge.
	Elapsed time.Duration
}

// New creates a Scanner with the given options. Options are validated and
// defaults applied.
func New(opts Options) *Scanner {
	_ = opts.Validate()
	return &Scanner{
		opts:             opts,
		queue:            newTaskQueue(),
		shardWriterBytes: config.ShardWriterBytes,
		log:              logging.Get("scan"),
	}
}

// Scan runs the traversal to completion and returns a summary. Per-entry
// failures are counted, never fatal; output-file errors abort with a
// non-nil error and the output left undefined.
func (s *Scanner) Scan() (*Result, error) {
	start := time.Now()

	root, err := canonicalRoot(s.opts.Root)
	if err != nil {
		return nil, err
	}

	output, err := s.resolveOutput(root)
	if err != nil {
		return nil, err
	}
	outDir := filepath.Dir(output)
	if err := probeWritable(outDir); err != nil {
		return nil, err
	}

	runID := uuid.NewString()[:8]
	workers := s.opts.Workers
	s.log.Info("scan starting", "root", root, "output", output, "workers", workers, "run", runID)

	// Seed the queue. The counter is raised before the enqueue so the
	// watcher can never observe zero while work exists.
	s.inflight.Add(1)
	s.queue.push(task{kind: taskDir, dir: root})

	go s.watch(workers)

	stopProgress := make(chan struct{})
	if !s.opts.Quiet {
		go s.reportProgress(start, stopProgress)
	}

	ws := make([]*worker, workers)
	var wg sync.WaitGroup
	for i := range ws {
		w := newWorker(s, i, filepath.Join(outDir, shardName(runID, i)))
		ws[i] = w
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.run()
		}()
	}
	wg.Wait()
	close(stopProgress)

	for _, w := range ws {
		if w.err != nil {
			removeShards(ws)
			return nil, fmt.Errorf("writing shard %s: %w", w.shardPath, w.err)
		}
	}

	if err := s.merge(output, ws); err != nil {
		removeShards(ws)
		return nil, err
	}

	res := &Result{
		Root:      root,
		Output:    output,
		Entries:   s.entries.Load(),
		Errors:    s.errors.Load(),
		DiskBytes: s.diskBytes.Load(),
		Elapsed:   time.Since(start),
	}
	s.log.Info("scan complete",
		"entries", res.Entries,
		"errors", res.Errors,
		"disk", humanize.IBytes(res.DiskBytes),
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// watch samples the in-flight counter and broadcasts one shutdown task per
// worker once it observes zero. Every producer raises the counter before
// enqueueing, so zero means no worker holds unenqueued successor work.
func (s *Scanner) watch(workers int) {
	for s.inflight.Load() != 0 {
		time.Sleep(watchInterval)
	}
	for i := 0; i < workers; i++ {
		s.queue.push(task{kind: taskShutdown})
	}
}

// reportProgress logs traversal throughput once per second until stopped.
func (s *Scanner) reportProgress(start time.Time, stop <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n := s.entries.Load()
			elapsed := time.Since(start).Seconds()
			rate := uint64(float64(n) / elapsed)
			s.log.Info("scanning", "entries", humanize.Comma(int64(n)), "per_sec", humanize.Comma(int64(rate)))
		}
	}
}

// merge concatenates the shards into the final output behind a single
// header. In sort mode all data lines are buffered and emitted in bytewise
// ascending order instead; that mode does not scale beyond memory and is
// meant for testing.
func (s *Scanner) merge(output string, ws []*worker) error {
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	out := bufio.NewWriterSize(f, config.MergeWriterBytes)

	if _, err := out.WriteString(csvrow.Header); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing header: %w", err)
	}

	var mergeErr error
	if s.opts.Sort {
		mergeErr = mergeSorted(out, ws)
	} else {
		mergeErr = mergeStream(out, ws)
	}
	if mergeErr == nil {
		mergeErr = out.Flush()
	}

	if closeErr := f.Close(); mergeErr == nil {
		mergeErr = closeErr
	}
	if mergeErr != nil {
		return fmt.Errorf("merging shards: %w", mergeErr)
	}
	return nil
}

// mergeStream copies each shard into the output and deletes it.
func mergeStream(out io.Writer, ws []*worker) error {
	for _, w := range ws {
		in, err := os.Open(w.shardPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		_, err = io.Copy(out, bufio.NewReaderSize(in, 2*1024*1024))
		_ = in.Close()
		if err != nil {
			return err
		}
		if err := os.Remove(w.shardPath); err != nil {
			return err
		}
	}
	return nil
}

// mergeSorted buffers every shard line, sorts the full lines bytewise and
// writes them back.
func mergeSorted(out io.Writer, ws []*worker) error {
	var lines []string
	for _, w := range ws {
		data, err := os.ReadFile(w.shardPath)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		for _, line := range strings.SplitAfter(string(data), "\n") {
			line = strings.TrimSuffix(line, "\n")
			if line != "" {
				lines = append(lines, line)
			}
		}
		if err := os.Remove(w.shardPath); err != nil {
			return err
		}
	}

	sort.Strings(lines)
	for _, line := range lines {
		if _, err := io.WriteString(out, line); err != nil {
			return err
		}
		if _, err := io.WriteString(out, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// resolveOutput returns the absolute final output path, deriving a name
// from the canonical root when none was configured.
func (s *Scanner) resolveOutput(root string) (string, error) {
	if s.opts.Output != "" {
		return filepath.Abs(s.opts.Output)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, config.DefaultOutputName(root)), nil
}

// canonicalRoot expands, absolutizes and resolves the scan root, and
// verifies it is a directory.
func canonicalRoot(root string) (string, error) {
	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("scan root: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("scan root is not a directory: %s", abs)
	}
	return stripVerbatim(abs), nil
}

// stripVerbatim removes Windows verbatim prefixes for display and output
// naming. A no-op on POSIX paths.
func stripVerbatim(p string) string {
	if strings.HasPrefix(p, `\\?\UNC\`) {
		return `\\` + p[len(`\\?\UNC\`):]
	}
	if strings.HasPrefix(p, `\\?\`) {
		return p[len(`\\?\`):]
	}
	return p
}

// probeWritable verifies the output directory exists and accepts writes.
func probeWritable(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path is not a directory: %s", dir)
	}
	probe := filepath.Join(dir, ".dustat_write_test")
	f, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("no write access to %s: %w", dir, err)
	}
	_ = f.Close()
	return os.Remove(probe)
}

// shardName names a per-worker temporary shard file.
func shardName(runID string, tid int) string {
	return fmt.Sprintf("shard_%s_%d.tmp", runID, tid)
}

// removeShards best-effort deletes any shard files left by a failed run.
func removeShards(ws []*worker) {
	for _, w := range ws {
		_ = os.Remove(w.shardPath)
	}
}
