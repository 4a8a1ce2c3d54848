//go:build !unix

package agg

import "strconv"

// lookupUser stringifies the numeric uid on platforms without a POSIX user
// database.
func lookupUser(uid uint32) (string, bool) {
	return strconv.FormatUint(uint64(uid), 10), true
}
