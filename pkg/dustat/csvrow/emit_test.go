package csvrow

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dustat/dustat/pkg/dustat/types"
)

func TestAppendRecord_FieldLayout(t *testing.T) {
	rec := types.Record{
		Dev:   1,
		Ino:   42,
		Atime: 1609459200,
		Mtime: 1609545600,
		UID:   1000,
		GID:   1000,
		Mode:  33188,
		Size:  1024,
		Disk:  4096,
		Path:  "/test/path",
	}

	row := AppendRecord(nil, &rec)
	require.True(t, bytes.HasSuffix(row, []byte{'\n'}))

	line := strings.TrimSuffix(string(row), "\n")
	fields := strings.Split(line, ",")
	require.Len(t, fields, FieldCount)

	assert.Equal(t, "1-42", fields[0])
	assert.Equal(t, "1609459200", fields[1])
	assert.Equal(t, "1609545600", fields[2])
	assert.Equal(t, "1000", fields[3])
	assert.Equal(t, "1000", fields[4])
	assert.Equal(t, "33188", fields[5])
	assert.Equal(t, "1024", fields[6])
	assert.Equal(t, "4096", fields[7])
	assert.Equal(t, "/test/path", fields[8])
}

func TestAppendRecord_NegativeTimes(t *testing.T) {
	rec := types.Record{Atime: -1, Mtime: -62135596800, Path: "p"}
	row := string(AppendRecord(nil, &rec))
	fields := strings.Split(strings.TrimSuffix(row, "\n"), ",")
	require.Len(t, fields, FieldCount)
	assert.Equal(t, "-1", fields[1])
	assert.Equal(t, "-62135596800", fields[2])
}

func TestAppendRecord_ReusesBuffer(t *testing.T) {
	rec := types.Record{Path: "/a"}
	buf := make([]byte, 0, 256)
	out := AppendRecord(buf, &rec)
	// The append must happen in place when capacity allows.
	assert.Equal(t, &buf[:1][0], &out[:1][0])
}

func TestAppendQuoted(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"plain", "/root/a.txt", "/root/a.txt"},
		{"comma", "/root/with,comma.txt", `"/root/with,comma.txt"`},
		{"quote", `/root/with"quote.txt`, `"/root/with""quote.txt"`},
		{"newline", "a\nb", "\"a\nb\""},
		{"carriage return", "a\rb", "\"a\rb\""},
		{"non-utf8 bytes unquoted", "/x/\xff\xfe", "/x/\xff\xfe"},
		{"non-utf8 bytes with comma", "/x/\xff,\xfe", "\"/x/\xff,\xfe\""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AppendQuoted(nil, tt.field)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

// TestAppendRecord_PathRoundTrip verifies that any path byte sequence
// survives emit-then-parse exactly.
func TestAppendRecord_PathRoundTrip(t *testing.T) {
	paths := []string{
		"/plain/path",
		"/with,comma",
		`/with"quote`,
		"/with\nnewline",
		"/with\rreturn",
		"/mixed,\"\n\r\xff\xfe",
		"/trailing\"",
		`""`,
	}

	for _, p := range paths {
		rec := types.Record{Path: p}
		row := AppendRecord(nil, &rec)
		line := bytes.TrimSuffix(row, []byte{'\n'})

		fields, ok := SplitFields(line, nil)
		require.True(t, ok, "path %q", p)
		require.Len(t, fields, FieldCount, "path %q", p)
		assert.Equal(t, p, string(fields[8]), "path %q", p)
	}
}
