//go:build windows

package stat

import (
	"os"
	"syscall"

	"github.com/dustat/dustat/pkg/dustat/types"
)

// Lstat returns the metadata record for path without following symlinks.
// Windows has no device/inode/uid/gid to report; those fields are zero and
// the mode is synthesized from the directory bit, the read-only attribute
// and the path extension. Disk consumption is approximated by rounding the
// logical size up to whole 512-byte blocks.
func Lstat(path string) (types.Record, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return types.Record{}, err
	}

	r := types.Record{
		Size: uint64(info.Size()),
		Path: path,
	}
	r.Disk = approxDisk(r.Size)

	readOnly := false
	if d, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		r.Atime = d.LastAccessTime.Nanoseconds() / 1e9
		r.Mtime = d.LastWriteTime.Nanoseconds() / 1e9
		readOnly = d.FileAttributes&syscall.FILE_ATTRIBUTE_READONLY != 0
	} else {
		r.Mtime = info.ModTime().Unix()
		r.Atime = r.Mtime
	}

	r.Mode = synthesizeMode(path, info.IsDir(), readOnly)
	return r, nil
}
