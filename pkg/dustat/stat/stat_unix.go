//go:build unix

package stat

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/dustat/dustat/pkg/dustat/types"
)

// Lstat returns the metadata record for path's own inode. Disk consumption
// is the native block count times 512.
func Lstat(path string) (types.Record, error) {
	var st unix.Stat_t
	if err := unix.Lstat(path, &st); err != nil {
		return types.Record{}, &os.PathError{Op: "lstat", Path: path, Err: err}
	}

	return types.Record{
		Dev:   uint64(st.Dev),
		Ino:   uint64(st.Ino),
		Atime: int64(st.Atim.Sec),
		Mtime: int64(st.Mtim.Sec),
		UID:   st.Uid,
		GID:   st.Gid,
		Mode:  uint32(st.Mode),
		Size:  uint64(st.Size),
		Disk:  uint64(st.Blocks) * 512,
		Path:  path,
	}, nil
}
