//go:build unix

package stat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dustat/dustat/pkg/dustat/types"
)

// TestLstatFile verifies native metadata extraction for a regular file.
func TestLstatFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	payload := make([]byte, 1000)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}

	rec, err := Lstat(path)
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}

	if rec.Path != path {
		t.Errorf("Path = %q, want %q", rec.Path, path)
	}
	if rec.Size != 1000 {
		t.Errorf("Size = %d, want 1000", rec.Size)
	}
	if rec.Mode&types.ModeTypeMask != types.ModeTypeReg {
		t.Errorf("type bits = %o, want regular", rec.Mode&types.ModeTypeMask)
	}
	if rec.IsDir() {
		t.Error("regular file reported as directory")
	}
	if rec.Disk%512 != 0 {
		t.Errorf("Disk = %d, not a multiple of 512", rec.Disk)
	}
	if rec.Ino == 0 {
		t.Error("expected a nonzero inode")
	}
	if rec.Mtime == 0 {
		t.Error("expected a nonzero mtime")
	}
	if rec.UID != uint32(os.Getuid()) {
		t.Errorf("UID = %d, want %d", rec.UID, os.Getuid())
	}
}

// TestLstatDir verifies directories report directory type bits.
func TestLstatDir(t *testing.T) {
	dir := t.TempDir()

	rec, err := Lstat(dir)
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	if !rec.IsDir() {
		t.Errorf("directory mode = %o, IsDir false", rec.Mode)
	}
}

// TestLstatSymlink verifies a symlink is described as itself, not its
// target.
func TestLstatSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, make([]byte, 4096), 0o644); err != nil {
		t.Fatalf("writing target: %v", err)
	}
	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Fatalf("creating symlink: %v", err)
	}

	rec, err := Lstat(link)
	if err != nil {
		t.Fatalf("Lstat: %v", err)
	}
	if rec.Mode&types.ModeTypeMask != 0o120000 {
		t.Errorf("type bits = %o, want symlink", rec.Mode&types.ModeTypeMask)
	}
	if rec.Size == 4096 {
		t.Error("symlink reports target size; target was stat'd")
	}
}

// TestLstatMissing verifies a missing path returns an error.
func TestLstatMissing(t *testing.T) {
	if _, err := Lstat(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected an error for a missing path")
	}
}
