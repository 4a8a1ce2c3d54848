// Package csvrow implements the byte-level CSV codec shared by the scanner
// and the aggregator. The emitter appends formatted records to a caller-owned
// buffer and performs no heap allocation of its own; the parsers are
// deliberately tolerant, mapping malformed numeric fields to zero so that a
// damaged row never aborts a multi-billion-line reduction.
//
// Quoting operates on raw bytes. Paths on POSIX systems are byte sequences
// with no encoding guarantee, and the codec round-trips them exactly.
package csvrow

import (
	"strconv"

	"github.com/dustat/dustat/pkg/dustat/types"
)

// Header is the exact header line of the scanner output CSV.
const Header = "INODE,ATIME,MTIME,UID,GID,MODE,SIZE,DISK,PATH\n"

// FieldCount is the number of comma-separated fields per data row.
const FieldCount = 9

// AppendRecord appends one scan record to dst as a nine-field CSV row
// terminated by '\n' and returns the extended buffer. Integer fields are
// formatted with strconv's append variants directly into dst, so a caller
// reusing its buffer pays no per-record allocation.
func AppendRecord(dst []byte, r *types.Record) []byte {
	// INODE is "<device>-<inode>".
	dst = strconv.AppendUint(dst, r.Dev, 10)
	dst = append(dst, '-')
	dst = strconv.AppendUint(dst, r.Ino, 10)
	dst = append(dst, ',')

	dst = strconv.AppendInt(dst, r.Atime, 10)
	dst = append(dst, ',')
	dst = strconv.AppendInt(dst, r.Mtime, 10)
	dst = append(dst, ',')

	dst = strconv.AppendUint(dst, uint64(r.UID), 10)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(r.GID), 10)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, uint64(r.Mode), 10)
	dst = append(dst, ',')

	dst = strconv.AppendUint(dst, r.Size, 10)
	dst = append(dst, ',')
	dst = strconv.AppendUint(dst, r.Disk, 10)
	dst = append(dst, ',')

	dst = AppendQuoted(dst, r.Path)
	return append(dst, '\n')
}

// AppendQuoted appends field to dst with RFC4180-style quoting applied at
// byte level: if the field contains a comma, double quote, newline or
// carriage return it is wrapped in double quotes with embedded quotes
// doubled; otherwise it is appended verbatim.
func AppendQuoted(dst []byte, field string) []byte {
	if !needsQuoting(field) {
		return append(dst, field...)
	}

	dst = append(dst, '"')
	for i := 0; i < len(field); i++ {
		b := field[i]
		if b == '"' {
			dst = append(dst, '"', '"')
		} else {
			dst = append(dst, b)
		}
	}
	return append(dst, '"')
}

// needsQuoting reports whether any byte of the field requires CSV quoting.
func needsQuoting(field string) bool {
	for i := 0; i < len(field); i++ {
		switch field[i] {
		case ',', '"', '\n', '\r':
			return true
		}
	}
	return false
}
