package scan

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/dustat/dustat/pkg/dustat/csvrow"
	"github.com/dustat/dustat/pkg/dustat/stat"
	"github.com/dustat/dustat/pkg/dustat/types"
)

// worker drains tasks from the shared queue and appends rows to its own
// shard file. Rows accumulate in a staging buffer that is written through
// a large buffered writer once it crosses the flush threshold.
type worker struct {
	s         *Scanner
	id        int
	shardPath string

	file *os.File
	out  *bufio.Writer
	buf  []byte

	// err records the first fatal shard-write error. Once set the worker
	// keeps draining tasks (so the in-flight counter still reaches zero)
	// but stops traversing and emitting.
	err error
}

func newWorker(s *Scanner, id int, shardPath string) *worker {
	return &worker{
		s:         s,
		id:        id,
		shardPath: shardPath,
		buf:       make([]byte, 0, s.opts.FlushBytes+4096),
	}
}

// run is the worker loop: Running until a shutdown task arrives, then a
// final flush and exit.
func (w *worker) run() {
	f, err := os.Create(w.shardPath)
	if err != nil {
		w.err = err
		w.out = bufio.NewWriter(io.Discard)
	} else {
		w.file = f
		w.out = bufio.NewWriterSize(f, w.s.shardWriterBytes)
	}

	for {
		t := w.s.queue.pop()
		switch t.kind {
		case taskShutdown:
			w.flushStaging()
			if err := w.out.Flush(); err != nil && w.err == nil {
				w.err = err
			}
			if w.file != nil {
				if err := w.file.Close(); err != nil && w.err == nil {
					w.err = err
				}
			}
			return

		case taskDir:
			if w.err == nil {
				w.scanDir(t.dir)
			}
			w.s.inflight.Add(-1)

		case taskFiles:
			if w.err == nil {
				w.statBatch(t.dir, t.names)
			}
			w.s.inflight.Add(-1)
		}
	}
}

// scanDir emits the directory's own record, then enumerates children:
// subdirectories become new directory tasks, everything else accumulates
// into fixed-size name pages that become stat batches. The in-flight
// counter is incremented before every enqueue.
func (w *worker) scanDir(dir string) {
	if rec, err := stat.Lstat(dir); err != nil {
		w.s.errors.Add(1)
	} else {
		w.emit(&rec)
	}

	f, err := os.Open(dir)
	if err != nil {
		w.s.errors.Add(1)
		return
	}
	ents, err := f.ReadDir(-1)
	_ = f.Close()
	if err != nil {
		// Keep whatever entries were returned before the failure.
		w.s.errors.Add(1)
	}

	var page []string
	for _, ent := range ents {
		full := joinPath(dir, ent.Name())
		if w.s.skipped(full) {
			continue
		}

		if ent.IsDir() {
			// Symlinks to directories report as symlinks here, so they
			// fall through to the stat batch and are never expanded.
			w.s.inflight.Add(1)
			w.s.queue.push(task{kind: taskDir, dir: full})
			continue
		}

		if page == nil {
			page = make([]string, 0, min(w.s.opts.Batch, len(ents)))
		}
		page = append(page, ent.Name())
		if len(page) == w.s.opts.Batch {
			w.s.inflight.Add(1)
			w.s.queue.push(task{kind: taskFiles, dir: dir, names: page})
			page = nil
		}
	}

	if len(page) > 0 {
		w.s.inflight.Add(1)
		w.s.queue.push(task{kind: taskFiles, dir: dir, names: page})
	}
}

// statBatch stats each name joined with base and emits one record per
// success. Stat failures are counted and skipped.
func (w *worker) statBatch(base string, names []string) {
	for _, name := range names {
		rec, err := stat.Lstat(joinPath(base, name))
		if err != nil {
			w.s.errors.Add(1)
			continue
		}
		w.emit(&rec)
	}
}

// emit appends one record to the staging buffer and flushes it through the
// shard writer when the threshold is reached.
func (w *worker) emit(rec *types.Record) {
	if w.s.opts.NoAtime {
		rec.Atime = 0
	}
	w.buf = csvrow.AppendRecord(w.buf, rec)
	w.s.entries.Add(1)
	w.s.diskBytes.Add(rec.Disk)

	if len(w.buf) >= w.s.opts.FlushBytes {
		w.flushStaging()
	}
}

// flushStaging writes the staging buffer through the shard writer.
func (w *worker) flushStaging() {
	if len(w.buf) == 0 {
		return
	}
	if w.err == nil {
		if _, err := w.out.Write(w.buf); err != nil {
			w.err = err
		}
	}
	w.buf = w.buf[:0]
}

// joinPath joins a directory and a child name without cleaning either.
func joinPath(dir, name string) string {
	if len(dir) > 0 {
		last := dir[len(dir)-1]
		if last == '/' || last == os.PathSeparator {
			return dir + name
		}
	}
	return dir + string(os.PathSeparator) + name
}

// skipped reports whether the path contains any configured skip substring.
func (s *Scanner) skipped(path string) bool {
	for _, sub := range s.opts.Skip {
		if sub != "" && strings.Contains(path, sub) {
			return true
		}
	}
	return false
}
