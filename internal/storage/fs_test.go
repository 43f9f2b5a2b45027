package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/lexis/internal/apperr"
)

func tempRoot(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempRoot(t)
	content := []byte("---\ntitle: Hello\n---\nWorld\n")
	if err := s.Write("guide.mdx", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("/guide.mdx")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempRoot(t)
	if err := s.Write("a/b/c.md", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("a/b/c.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotFound(t *testing.T) {
	s := tempRoot(t)
	_, err := s.Read("missing.mdx")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("del.md", []byte("bye"))
	if err := s.Delete("del.md"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Read("del.md"); err == nil {
		t.Error("expected error reading deleted file")
	}
	if err := s.Delete("del.md"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
}

func TestReadDirSortedAndStat(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("docs/b.mdx", []byte("b"))
	_ = s.Write("docs/a.mdx", []byte("a"))
	_ = s.Write("docs/sub/c.md", []byte("c"))

	entries, err := s.ReadDir("docs")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 3 || entries[0].Name != "a.mdx" || entries[1].Name != "b.mdx" || !entries[2].IsDir {
		t.Errorf("entries = %+v", entries)
	}

	e, err := s.Stat("docs/a.mdx")
	if err != nil || e.IsDir || e.ModTime.IsZero() {
		t.Errorf("Stat = %+v, %v", e, err)
	}
	if _, err := s.Stat("docs/none.mdx"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Stat missing err = %v", err)
	}
}

func TestList(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("a.md", []byte("a"))
	_ = s.Write("sub/b.mdx", []byte("b"))
	_ = s.Write("_drafts/c.mdx", []byte("c"))
	_ = s.Write(".hidden/d.md", []byte("d"))
	_ = s.Write("readme.txt", []byte("not content"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(items), items)
	}
	for _, it := range items {
		if it.Fingerprint == "" {
			t.Errorf("missing fingerprint for %s", it.Path)
		}
	}
}

func TestClear(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("x.json", []byte("{}"))
	_ = s.Write("nested/y.json", []byte("{}"))
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ := s.ReadDir("")
	if len(entries) != 0 {
		t.Errorf("entries after clear = %+v", entries)
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempRoot(t)

	for _, p := range []string{"../../etc/passwd", "../outside.md", "a/../../x.md"} {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteNoLeftovers(t *testing.T) {
	s := tempRoot(t)
	_ = s.Write("atomic.json", []byte("original"))

	if err := s.Write("atomic.json", []byte("updated")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.json")
	if string(got) != "updated" {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, ".lexis-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	if _, err := NewFS(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestEnsureFS_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cache", "lexis")
	s, err := EnsureFS(dir)
	if err != nil {
		t.Fatalf("EnsureFS: %v", err)
	}
	if s.Root() != dir {
		t.Errorf("root = %q, want %q", s.Root(), dir)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "lexis-test-*")
	_ = f.Close()
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}

func TestIsContentFile(t *testing.T) {
	for name, want := range map[string]bool{"a.mdx": true, "b.md": true, "c.json": false, "d.mdx.bak": false} {
		if IsContentFile(name) != want {
			t.Errorf("IsContentFile(%q) != %v", name, want)
		}
	}
}
