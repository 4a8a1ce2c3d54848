//go:build unix

package agg

import (
	"os/user"
	"strconv"
	"unicode/utf8"
)

// lookupUser resolves a uid through the system user database. Names that
// are not valid UTF-8 are treated as unresolved so the output CSV stays
// decodable.
func lookupUser(uid uint32) (string, bool) {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil || !utf8.ValidString(u.Username) {
		return "", false
	}
	return u.Username, true
}
