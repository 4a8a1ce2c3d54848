// Package stat extracts platform-faithful metadata records for the scanner.
// Lstat describes the path's own inode and never follows symlinks. On POSIX
// every field comes from the native stat structure; elsewhere the missing
// fields are zeroed and a POSIX-shaped mode is synthesized so downstream
// consumers see a uniform record.
package stat

import (
	"path/filepath"
	"strings"

	"github.com/dustat/dustat/pkg/dustat/types"
)

// executableExts are the path extensions granted owner execute when a mode
// is synthesized. Matching is case-insensitive.
var executableExts = map[string]struct{}{
	".exe": {},
	".bat": {},
	".cmd": {},
	".com": {},
	".scr": {},
	".ps1": {},
	".vbs": {},
}

// synthesizeMode builds a POSIX-shaped mode for platforms without one.
// Owner read is always set, owner write unless the entry is read-only, and
// owner execute for directories and known executable extensions. The owner
// triplet is copied into the group and other positions.
func synthesizeMode(path string, isDir, readOnly bool) uint32 {
	mode := types.ModeTypeReg
	if isDir {
		mode = types.ModeTypeDir
	}

	mode |= 0o400
	if !readOnly {
		mode |= 0o200
	}
	if isDir {
		mode |= 0o100
	} else {
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := executableExts[ext]; ok {
			mode |= 0o100
		}
	}

	owner := mode & 0o700
	mode |= owner >> 3
	mode |= owner >> 6
	return mode
}

// approxDisk approximates on-disk consumption where the platform does not
// report block counts: logical size rounded up to whole 512-byte blocks.
func approxDisk(size uint64) uint64 {
	return (size + 511) / 512 * 512
}
