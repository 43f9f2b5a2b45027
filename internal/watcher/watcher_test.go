package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/lexis/internal/testutil"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

type recorder struct {
	mu      sync.Mutex
	changes []Change
	batches int
}

func (r *recorder) cb(changes []Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches++
	r.changes = append(r.changes, changes...)
}

func (r *recorder) has(kind, p string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.changes {
		if c.Kind == kind && c.Path == p {
			return true
		}
	}
	return false
}

func startWatch(t *testing.T, files map[string]string) (string, *recorder) {
	t.Helper()
	dir, store := testutil.TestContent(t, files)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	rec := &recorder{}
	go func() {
		defer close(done)
		_ = Watch(ctx, store, testutil.Logger(), 50*time.Millisecond, rec.cb)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
	return dir, rec
}

func TestWatch_CreateUpdateDelete(t *testing.T) {
	dir, rec := startWatch(t, map[string]string{"docs/api.mdx": "---\ntitle: API\n---\n"})

	_ = os.WriteFile(filepath.Join(dir, "docs", "new.mdx"), []byte("---\ntitle: New\n---\n"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has(KindCreated, "docs/new.mdx")
	}, "create not reported")

	_ = os.WriteFile(filepath.Join(dir, "docs", "api.mdx"), []byte("---\ntitle: API v2\n---\n"), 0o644)
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has(KindUpdated, "docs/api.mdx")
	}, "update not reported")

	_ = os.Remove(filepath.Join(dir, "docs", "new.mdx"))
	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has(KindDeleted, "docs/new.mdx")
	}, "delete not reported")
}

func TestWatch_NewDirectoryWatched(t *testing.T) {
	dir, rec := startWatch(t, map[string]string{"intro.md": "---\ntitle: Intro\n---\n"})

	_ = os.MkdirAll(filepath.Join(dir, "guides"), 0o755)
	time.Sleep(150 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(dir, "guides", "setup.mdx"), []byte("---\ntitle: Setup\n---\n"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has(KindCreated, "guides/setup.mdx")
	}, "file in new directory not reported")
}

func TestWatch_UnchangedContentIsQuiet(t *testing.T) {
	dir, rec := startWatch(t, map[string]string{"intro.md": "same"})

	_ = os.WriteFile(filepath.Join(dir, "intro.md"), []byte("same"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)
	time.Sleep(300 * time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.batches != 0 {
		t.Errorf("batches = %d, want 0: %+v", rec.batches, rec.changes)
	}
}

func TestDiff(t *testing.T) {
	prev := map[string]string{"a.mdx": "1", "b.mdx": "2"}
	next := map[string]string{"a.mdx": "1", "b.mdx": "3", "c.mdx": "4"}
	got := diff(prev, next)
	want := []Change{{KindUpdated, "b.mdx"}, {KindCreated, "c.mdx"}}
	if len(got) != len(want) {
		t.Fatalf("diff = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("diff[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
	if d := diff(next, map[string]string{}); len(d) != 3 || d[0].Kind != KindDeleted {
		t.Errorf("deletions = %+v", d)
	}
}
