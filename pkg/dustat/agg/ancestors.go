package agg

import "bytes"

// appendAncestors appends the ancestor folders of a path to dst and returns
// the extended slice. Separators are normalized ('\' to '/'), the sequence
// starts at "/" and descends one segment at a time, and a directory entry
// contributes its own path as the final ancestor. Paths without a leading
// separator (including drive-letter paths like "C:/x") are treated as if
// rooted at "/".
//
// path is modified in place by separator normalization; callers own the
// underlying buffer for the duration of one record.
func appendAncestors(dst []string, path []byte, isDir bool) []string {
	for i, b := range path {
		if b == '\\' {
			path[i] = '/'
		}
	}

	// Drop trailing separators, keeping a lone root.
	end := len(path)
	for end > 1 && path[end-1] == '/' {
		end--
	}
	path = path[:end]

	// The deepest folder to report: the entry itself for directories,
	// its parent otherwise.
	folder := path
	if !isDir {
		idx := bytes.LastIndexByte(path, '/')
		if idx < 0 {
			return append(dst, "/")
		}
		folder = path[:idx]
		for len(folder) > 1 && folder[len(folder)-1] == '/' {
			folder = folder[:len(folder)-1]
		}
	}

	dst = append(dst, "/")

	trimmed := folder
	if len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	if len(trimmed) == 0 {
		return dst
	}

	cur := make([]byte, 0, len(folder)+1)
	cur = append(cur, '/')
	for _, seg := range bytes.Split(trimmed, []byte{'/'}) {
		if len(seg) == 0 {
			continue
		}
		if len(cur) > 1 {
			cur = append(cur, '/')
		}
		cur = append(cur, seg...)
		dst = append(dst, string(cur))
	}
	return dst
}
