//go:build !unix && !windows

package stat

import (
	"os"

	"github.com/dustat/dustat/pkg/dustat/types"
)

// Lstat returns a best-effort record on platforms with neither POSIX stat
// nor Windows attributes: identity and ownership fields are zero, the mode
// is synthesized and disk consumption approximated from the logical size.
func Lstat(path string) (types.Record, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return types.Record{}, err
	}

	r := types.Record{
		Mtime: info.ModTime().Unix(),
		Size:  uint64(info.Size()),
		Path:  path,
	}
	r.Atime = r.Mtime
	r.Disk = approxDisk(r.Size)
	r.Mode = synthesizeMode(path, info.IsDir(), false)
	return r, nil
}
