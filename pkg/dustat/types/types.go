// Package types provides core data types for the dustat metadata pipeline.
// It defines the per-entry scan record shared by the scanner and aggregator,
// along with size constants and parsing helpers for byte-size flags.
package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// Size constants for binary (IEC) units.
const (
	KiB uint64 = 1024
	MiB uint64 = 1024 * KiB
	GiB uint64 = 1024 * MiB
	TiB uint64 = 1024 * GiB
)

// Record is one filesystem entry as observed by the scanner. Both files and
// directories produce a record. The record describes the path's own inode;
// symlink targets are never consulted.
type Record struct {
	// Dev and Ino identify the inode. Both are zero on platforms that
	// do not expose them.
	Dev uint64
	Ino uint64

	// Atime and Mtime are seconds since the Unix epoch.
	Atime int64
	Mtime int64

	// UID and GID are the owning user and group. Zero where the platform
	// has no native notion of numeric ownership.
	UID uint32
	GID uint32

	// Mode holds POSIX-style type and permission bits. On platforms
	// without a native mode it is synthesized (see package stat).
	Mode uint32

	// Size is the logical length in bytes; Disk is on-disk consumption,
	// blocks times 512.
	Size uint64
	Disk uint64

	// Path is the entry's path. On POSIX it may contain arbitrary
	// non-UTF-8 bytes; it is carried verbatim and never decoded.
	Path string
}

// IsDir reports whether the record's mode type bits describe a directory.
func (r *Record) IsDir() bool {
	return r.Mode&ModeTypeMask == ModeTypeDir
}

// POSIX mode type bits used across the pipeline.
const (
	ModeTypeMask uint32 = 0o170000
	ModeTypeDir  uint32 = 0o040000
	ModeTypeReg  uint32 = 0o100000
)

// ErrInvalidSize indicates that the size string could not be parsed.
var ErrInvalidSize = errors.New("invalid size format")

// unitMultipliers maps a bare unit letter to its byte multiplier. The "B"
// and "iB" suffix variants are stripped before lookup.
var unitMultipliers = map[string]uint64{
	"":  1,
	"K": KiB,
	"M": MiB,
	"G": GiB,
	"T": TiB,
}

// ParseSize parses a human-readable size string and returns the size in
// bytes. It supports plain bytes ("1024"), and K/M/G/T with optional B or
// iB suffixes in any case ("8M", "16MiB", "2g"). Decimal values are
// truncated to the nearest byte.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidSize)
	}
	if s[0] == '-' {
		return 0, fmt.Errorf("%w: negative size", ErrInvalidSize)
	}

	// Split the numeric prefix from the unit suffix.
	i := 0
	for i < len(s) && (s[i] >= '0' && s[i] <= '9' || s[i] == '.') {
		i++
	}
	if i == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}
	value, err := strconv.ParseFloat(s[:i], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSize, s)
	}

	unit := strings.ToUpper(strings.TrimSpace(s[i:]))
	unit = strings.TrimSuffix(unit, "IB")
	unit = strings.TrimSuffix(unit, "B")
	multiplier, ok := unitMultipliers[unit]
	if !ok {
		return 0, fmt.Errorf("%w: unknown suffix %q", ErrInvalidSize, unit)
	}

	return uint64(value * float64(multiplier)), nil
}

// FormatSize converts a byte count to a human-readable string using binary
// (IEC) units, for consistency with common filesystem tools.
func FormatSize(bytes uint64) string {
	return humanize.IBytes(bytes)
}
