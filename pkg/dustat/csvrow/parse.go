package csvrow

import "math"

// SplitFields splits one CSV line (without its trailing newline) into
// fields, honoring double-quoted fields with doubled-quote escapes. The
// returned slices alias line; a quoted field containing escaped quotes is
// decoded in place, which is safe because the decoded form is never longer
// than the source. dst is reused to avoid per-line allocation.
//
// The second return value is false when the line is structurally malformed
// (unterminated quote, or bytes trailing a closing quote).
func SplitFields(line []byte, dst [][]byte) ([][]byte, bool) {
	dst = dst[:0]
	i := 0
	for {
		if i < len(line) && line[i] == '"' {
			field, next, ok := scanQuoted(line, i)
			if !ok {
				return dst, false
			}
			dst = append(dst, field)
			if next == len(line) {
				return dst, true
			}
			i = next + 1
			if i == len(line) {
				return append(dst, line[len(line):]), true
			}
			continue
		}

		j := i
		for j < len(line) && line[j] != ',' {
			j++
		}
		dst = append(dst, line[i:j])
		if j == len(line) {
			return dst, true
		}
		i = j + 1
		if i == len(line) {
			return append(dst, line[len(line):]), true
		}
	}
}

// scanQuoted decodes a quoted field starting at line[start] == '"'.
// It returns the field content, the index of the byte after the closing
// quote (which must be ',' or end of line), and whether the field was
// well formed.
func scanQuoted(line []byte, start int) (field []byte, next int, ok bool) {
	j := start + 1
	w := start + 1
	for j < len(line) {
		c := line[j]
		if c == '"' {
			if j+1 < len(line) && line[j+1] == '"' {
				line[w] = '"'
				w++
				j += 2
				continue
			}
			// Closing quote: the next byte must be a separator or EOL.
			if j+1 < len(line) && line[j+1] != ',' {
				return nil, 0, false
			}
			return line[start+1 : w], j + 1, true
		}
		line[w] = c
		w++
		j++
	}
	return nil, 0, false
}

// ParseUint parses an unsigned ASCII decimal. Malformed input (empty,
// non-digit bytes) and overflow both yield 0; surrounding ASCII spaces
// and tabs are ignored.
func ParseUint(b []byte) uint64 {
	b = trimSpace(b)
	if len(b) == 0 {
		return 0
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0
		}
		d := uint64(c - '0')
		if n > (math.MaxUint64-d)/10 {
			return 0
		}
		n = n*10 + d
	}
	return n
}

// ParseInt parses a signed ASCII decimal with the same tolerance rules as
// ParseUint: anything malformed or out of range yields 0.
func ParseInt(b []byte) int64 {
	b = trimSpace(b)
	if len(b) == 0 {
		return 0
	}
	neg := false
	if b[0] == '-' || b[0] == '+' {
		neg = b[0] == '-'
		b = b[1:]
		if len(b) == 0 {
			return 0
		}
	}
	var n uint64
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0
		}
		d := uint64(c - '0')
		if n > (math.MaxUint64-d)/10 {
			return 0
		}
		n = n*10 + d
		if n > uint64(math.MaxInt64)+1 {
			return 0
		}
	}
	if neg {
		if n == 0 {
			return 0
		}
		return -int64(n-1) - 1
	}
	if n > uint64(math.MaxInt64) {
		return 0
	}
	return int64(n)
}

// trimSpace trims ASCII spaces and tabs from both ends of b.
func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
