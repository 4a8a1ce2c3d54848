//go:build unix

package scan

import (
	"os"
	"path/filepath"
	"testing"
)

// TestScanSymlink verifies a symlink to a directory is reported once as
// itself and its target subtree is not expanded.
func TestScanSymlink(t *testing.T) {
	root := t.TempDir()

	target := filepath.Join(root, "real")
	if err := os.MkdirAll(target, 0o755); err != nil {
		t.Fatal(err)
	}
	inner := filepath.Join(target, "inner.txt")
	if err := os.WriteFile(inner, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "alias")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	res, counts, _ := runScan(t, Options{
		Root:    root,
		Output:  filepath.Join(t.TempDir(), "out.csv"),
		Workers: 2,
	})

	if counts[filepath.Join(res.Root, "alias")] != 1 {
		t.Error("symlink missing from inventory")
	}
	// The target subtree appears exactly once, through the real path.
	if counts[filepath.Join(res.Root, "real", "inner.txt")] != 1 {
		t.Error("real subtree missing")
	}
	if counts[filepath.Join(res.Root, "alias", "inner.txt")] != 0 {
		t.Error("symlink subtree was expanded")
	}
}

// TestScanNonUTF8Path verifies raw path bytes survive the scan output.
func TestScanNonUTF8Path(t *testing.T) {
	root := t.TempDir()
	raw := string([]byte{0xff, 0xfe}) + ".bin"
	if err := os.WriteFile(filepath.Join(root, raw), []byte("x"), 0o644); err != nil {
		t.Skipf("filesystem rejects non-UTF-8 names: %v", err)
	}

	res, counts, _ := runScan(t, Options{
		Root:    root,
		Output:  filepath.Join(t.TempDir(), "out.csv"),
		Workers: 2,
	})

	if counts[filepath.Join(res.Root, raw)] != 1 {
		t.Error("non-UTF-8 path did not round-trip through the scan output")
	}
}
