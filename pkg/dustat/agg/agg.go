// Package agg implements the streaming reducer that collapses the scanner's
// per-entry CSV into per-(folder, user, age) rollups. The input is processed
// as raw bytes so non-UTF-8 paths survive untouched; conversion to UTF-8
// (with replacement) happens only at final emission. Output ordering is
// fully deterministic: rows sort bytewise by folder, then user, then age.
package agg

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dustat/dustat/pkg/dustat/csvrow"
	"github.com/dustat/dustat/pkg/dustat/logging"
	"github.com/dustat/dustat/pkg/dustat/types"
)

// Age bucket boundaries and clock-skew tolerance, in the units the
// reduction uses.
const (
	AgeRecentDays = 60
	AgeMidDays    = 730

	// FutureToleranceSeconds is how far past "now" a timestamp may sit
	// before it is treated as unknown.
	FutureToleranceSeconds = 86400

	secondsPerDay = 86400
)

// UnknownUser is the owner name recorded when uid resolution fails.
const UnknownUser = "UNK"

// OutputHeader is the exact header line of the rollup CSV.
const OutputHeader = "path,user,age,files,disk,accessed,modified\n"

// Options configures one reduction pass.
type Options struct {
	// Input is the scanner CSV to reduce.
	Input string

	// Output is the rollup CSV path. Empty derives "<input stem>.agg.csv".
	Output string

	// UnknownOutput is the companion file listing unresolved uids.
	// Empty derives "<input stem>.unk.csv".
	UnknownOutput string

	// Now is the reference timestamp (Unix seconds) for age bucketing
	// and future-clamping. Zero uses the wall clock.
	Now int64

	// LookupUser overrides uid resolution. Nil uses the platform default
	// (the system user database on POSIX).
	LookupUser func(uid uint32) (string, bool)

	// Quiet disables the newline pre-count and progress logging.
	Quiet bool
}

// Validate applies derived defaults and checks required fields.
func (o *Options) Validate() error {
	if o.Input == "" {
		return errors.New("input path required")
	}
	stem := strings.TrimSuffix(o.Input, filepath.Ext(o.Input))
	if o.Output == "" {
		o.Output = stem + ".agg.csv"
	}
	if o.UnknownOutput == "" {
		o.UnknownOutput = stem + ".unk.csv"
	}
	if o.Now == 0 {
		o.Now = time.Now().Unix()
	}
	if o.LookupUser == nil {
		o.LookupUser = lookupUser
	}
	return nil
}

// groupKey identifies one rollup row.
type groupKey struct {
	folder string // raw folder bytes, separators normalized
	user   string
	age    uint8
}

// groupStats accumulates the statistics of one rollup row.
type groupStats struct {
	files uint64
	disk  uint64
	atime int64
	mtime int64
}

// Result summarizes a completed reduction.
type Result struct {
	Output        string
	UnknownOutput string

	// Records is the number of input rows aggregated; Skipped counts
	// malformed rows that were dropped.
	Records uint64
	Skipped uint64

	// Groups is the number of distinct (folder, user, age) triples.
	Groups int

	Elapsed time.Duration
}

// Reducer performs one single-threaded reduction pass. It owns the
// aggregate map, the uid name cache and the unknown-uid set for the
// duration of the pass.
type Reducer struct {
	opts Options

	groups    map[groupKey]*groupStats
	userCache map[uint32]string
	unknown   map[uint32]struct{}

	records uint64
	skipped uint64

	log *logging.Logger
}

// New creates a Reducer with the given options.
func New(opts Options) (*Reducer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Reducer{
		opts:      opts,
		groups:    make(map[groupKey]*groupStats),
		userCache: make(map[uint32]string),
		unknown:   make(map[uint32]struct{}),
		log:       logging.Get("agg"),
	}, nil
}

// Run reduces the input and writes the sorted rollup and the unknown-uid
// companion file.
func (r *Reducer) Run() (*Result, error) {
	start := time.Now()

	var totalLines uint64
	if !r.opts.Quiet {
		n, err := countLines(r.opts.Input)
		if err != nil {
			return nil, fmt.Errorf("counting lines: %w", err)
		}
		totalLines = n
		r.log.Info("reducing", "input", r.opts.Input, "lines", totalLines)
	}

	if err := r.reduce(totalLines); err != nil {
		return nil, err
	}

	if err := r.emit(); err != nil {
		return nil, err
	}
	if err := r.emitUnknown(); err != nil {
		return nil, err
	}

	res := &Result{
		Output:        r.opts.Output,
		UnknownOutput: r.opts.UnknownOutput,
		Records:       r.records,
		Skipped:       r.skipped,
		Groups:        len(r.groups),
		Elapsed:       time.Since(start),
	}
	r.log.Info("reduction complete",
		"records", res.Records,
		"skipped", res.Skipped,
		"groups", res.Groups,
		"elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// reduce streams the input CSV and folds every row into the aggregate map.
func (r *Reducer) reduce(totalLines uint64) error {
	f, err := os.Open(r.opts.Input)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)

	// Discard the header line.
	if !scanner.Scan() {
		return scanner.Err()
	}

	var progressStep uint64
	if totalLines >= 10 {
		progressStep = totalLines / 10
	}

	fields := make([][]byte, 0, csvrow.FieldCount)
	ancestors := make([]string, 0, 32)
	var line uint64

	for scanner.Scan() {
		line++
		if progressStep > 0 && line%progressStep == 0 {
			r.log.Info("progress", "rows", line, "pct", line*100/totalLines)
		}

		row := scanner.Bytes()
		if len(row) == 0 {
			continue
		}

		var ok bool
		fields, ok = csvrow.SplitFields(row, fields)
		if !ok || len(fields) != csvrow.FieldCount {
			r.skipped++
			continue
		}

		path := fields[8]
		if len(path) == 0 {
			r.skipped++
			continue
		}

		atime := sanitizeTime(csvrow.ParseInt(fields[1]), r.opts.Now)
		mtime := sanitizeTime(csvrow.ParseInt(fields[2]), r.opts.Now)
		uid := parseUID(fields[3])
		mode := csvrow.ParseUint(fields[5])
		disk := csvrow.ParseUint(fields[7])

		bucket := ageBucket(r.opts.Now, mtime)
		user := r.resolveUser(uid)
		isDir := uint32(mode)&types.ModeTypeMask == types.ModeTypeDir

		ancestors = appendAncestors(ancestors[:0], path, isDir)
		for _, folder := range ancestors {
			key := groupKey{folder: folder, user: user, age: bucket}
			st := r.groups[key]
			if st == nil {
				st = &groupStats{}
				r.groups[key] = st
			}
			st.files++
			st.disk += disk
			if mtime > st.mtime {
				st.mtime = mtime
			}
			if atime > st.atime {
				st.atime = atime
			}
		}
		r.records++
	}
	return scanner.Err()
}

// sanitizeTime clamps timestamps further than the tolerance past now to
// zero, the "unknown" sentinel.
func sanitizeTime(t, now int64) int64 {
	if t > now+FutureToleranceSeconds {
		return 0
	}
	return t
}

// ageBucket classifies an mtime against the reference now: 0 within 60
// days, 1 within 730 days, 2 beyond that or when the mtime is unknown.
func ageBucket(now, mtime int64) uint8 {
	if mtime <= 0 {
		return 2
	}
	age := now - mtime
	switch {
	case age <= AgeRecentDays*secondsPerDay:
		return 0
	case age <= AgeMidDays*secondsPerDay:
		return 1
	default:
		return 2
	}
}

// parseUID parses the UID field; values that cannot be a uid collapse to 0.
func parseUID(b []byte) uint32 {
	v := csvrow.ParseUint(b)
	if v > math.MaxUint32 {
		return 0
	}
	return uint32(v)
}

// resolveUser returns the owner name for a uid through the process-local
// cache, recording unresolvable uids in the unknown set.
func (r *Reducer) resolveUser(uid uint32) string {
	if name, ok := r.userCache[uid]; ok {
		if name == UnknownUser {
			r.unknown[uid] = struct{}{}
		}
		return name
	}

	name, ok := r.opts.LookupUser(uid)
	if !ok {
		name = UnknownUser
	}
	if name == UnknownUser {
		r.unknown[uid] = struct{}{}
	}
	r.userCache[uid] = name
	return name
}

// emit writes the sorted rollup CSV.
func (r *Reducer) emit() error {
	keys := make([]groupKey, 0, len(r.groups))
	for k := range r.groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.folder != b.folder {
			return a.folder < b.folder
		}
		if a.user != b.user {
			return a.user < b.user
		}
		return a.age < b.age
	})

	f, err := os.Create(r.opts.Output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	out := bufio.NewWriterSize(f, 4*1024*1024)

	var writeErr error
	if _, err := out.WriteString(OutputHeader); err != nil {
		writeErr = err
	}

	buf := make([]byte, 0, 512)
	for _, k := range keys {
		if writeErr != nil {
			break
		}
		st := r.groups[k]
		buf = buf[:0]
		buf = csvrow.AppendQuoted(buf, strings.ToValidUTF8(k.folder, "�"))
		buf = append(buf, ',')
		buf = csvrow.AppendQuoted(buf, k.user)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, uint64(k.age), 10)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, st.files, 10)
		buf = append(buf, ',')
		buf = strconv.AppendUint(buf, st.disk, 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, st.atime, 10)
		buf = append(buf, ',')
		buf = strconv.AppendInt(buf, st.mtime, 10)
		buf = append(buf, '\n')
		if _, err := out.Write(buf); err != nil {
			writeErr = err
		}
	}

	if writeErr == nil {
		writeErr = out.Flush()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("writing output: %w", writeErr)
	}
	return nil
}

// emitUnknown writes the unresolved uids, one ascending decimal per line.
func (r *Reducer) emitUnknown() error {
	uids := make([]uint32, 0, len(r.unknown))
	for uid := range r.unknown {
		uids = append(uids, uid)
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })

	f, err := os.Create(r.opts.UnknownOutput)
	if err != nil {
		return fmt.Errorf("creating unknown-uid file: %w", err)
	}
	out := bufio.NewWriter(f)

	var writeErr error
	buf := make([]byte, 0, 16)
	for _, uid := range uids {
		buf = strconv.AppendUint(buf[:0], uint64(uid), 10)
		buf = append(buf, '\n')
		if _, err := out.Write(buf); err != nil {
			writeErr = err
			break
		}
	}

	if writeErr == nil {
		writeErr = out.Flush()
	}
	if closeErr := f.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		return fmt.Errorf("writing unknown-uid file: %w", writeErr)
	}
	return nil
}

// countLines counts newline bytes in the file, counting a final unterminated
// line as one.
func countLines(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	buf := make([]byte, 1024*1024)
	var count uint64
	var lastByte byte = '\n'
	hasContent := false

	for {
		n, err := f.Read(buf)
		if n > 0 {
			hasContent = true
			count += uint64(bytes.Count(buf[:n], []byte{'\n'}))
			lastByte = buf[n-1]
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
	}

	if hasContent && lastByte != '\n' {
		count++
	}
	return count, nil
}
