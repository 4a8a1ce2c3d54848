package csvrow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUint(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want uint64
	}{
		{"simple", "12345", 12345},
		{"zero", "0", 0},
		{"surrounding space", "  42  ", 42},
		{"empty", "", 0},
		{"non-digit", "invalid", 0},
		{"mixed", "12a3", 0},
		{"negative", "-1", 0},
		{"max", "18446744073709551615", 18446744073709551615},
		{"overflow", "18446744073709551616", 0},
		{"way over", "99999999999999999999999", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseUint([]byte(tt.in)))
		})
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{"simple", "1700000000", 1700000000},
		{"negative", "-86400", -86400},
		{"plus sign", "+7", 7},
		{"zero", "0", 0},
		{"empty", "", 0},
		{"junk", "12-3", 0},
		{"bare sign", "-", 0},
		{"spaces", " -5 ", -5},
		{"min", "-9223372036854775808", -9223372036854775808},
		{"max", "9223372036854775807", 9223372036854775807},
		{"overflow", "9223372036854775808", 0},
		{"underflow", "-9223372036854775809", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInt([]byte(tt.in)))
		})
	}
}

func TestSplitFields(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
		ok   bool
	}{
		{"bare fields", "a,b,c", []string{"a", "b", "c"}, true},
		{"empty fields", ",,", []string{"", "", ""}, true},
		{"single field", "abc", []string{"abc"}, true},
		{"empty line", "", []string{""}, true},
		{"quoted comma", `a,"b,c",d`, []string{"a", "b,c", "d"}, true},
		{"escaped quote", `"a""b"`, []string{`a"b`}, true},
		{"quoted empty", `""`, []string{""}, true},
		{"trailing empty", "a,", []string{"a", ""}, true},
		{"unterminated quote", `"abc`, nil, false},
		{"bytes after close", `"a"x,b`, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := []byte(tt.in)
			fields, ok := SplitFields(line, nil)
			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			got := make([]string, len(fields))
			for i, f := range fields {
				got[i] = string(f)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestSplitFields_ReusesDst verifies the destination slice is recycled
// across calls without retaining stale fields.
func TestSplitFields_ReusesDst(t *testing.T) {
	fields, ok := SplitFields([]byte("a,b,c,d"), nil)
	require.True(t, ok)
	require.Len(t, fields, 4)

	fields, ok = SplitFields([]byte("x,y"), fields)
	require.True(t, ok)
	require.Len(t, fields, 2)
	assert.Equal(t, "x", string(fields[0]))
	assert.Equal(t, "y", string(fields[1]))
}
