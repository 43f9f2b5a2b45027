// Package watcher reports content changes under the content root.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lexis/internal/checksum"
	"github.com/starford/lexis/internal/storage"
)

// DefaultDebounce is the quiet period before changes are reconciled.
const DefaultDebounce = 200 * time.Millisecond

// Change kinds.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
)

// Change is one content file that differs from the last snapshot.
type Change struct {
	Kind string
	Path string
}

// Callback receives every non-empty batch of changes.
type Callback func(changes []Change)

// Watch watches the store root until ctx is cancelled. File system events are
// debounced, then the content files are fingerprinted and compared against
// the previous snapshot, so events that leave content unchanged produce no
// callback. Directories created at runtime are watched automatically.
func Watch(ctx context.Context, store storage.Provider, logger *slog.Logger, debounce time.Duration, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	snapshot, err := fingerprints(store)
	if err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root), slog.Int("files", len(snapshot)))

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			next, err := fingerprints(store)
			if err != nil {
				logger.Warn("watcher: scan failed", slog.String("error", err.Error()))
				continue
			}
			changes := diff(snapshot, next)
			snapshot = next
			if len(changes) == 0 {
				continue
			}
			logger.Debug("watcher: content changed", slog.Int("changes", len(changes)))
			if cb != nil {
				cb(changes)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if relevant(ev) {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether ev can change the tree: content files, folder
// metadata and removed or renamed directories.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	if storage.IsContentFile(name) || name == "index.json" {
		return true
	}
	return ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0
}

func fingerprints(store storage.Provider) (map[string]string, error) {
	files, err := store.List("")
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(files))
	for _, f := range files {
		out[f.Path] = f.Fingerprint
	}
	for _, meta := range metaFiles(store.Root()) {
		if data, err := store.Read(meta); err == nil {
			out[meta] = checksum.Sum(data)
		}
	}
	return out, nil
}

// metaFiles lists the index.json files under root.
func metaFiles(root string) []string {
	var out []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != "index.json" {
			return nil
		}
		if rel, relErr := filepath.Rel(root, p); relErr == nil {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	return out
}

// diff returns the changes from prev to next, sorted by path.
func diff(prev, next map[string]string) []Change {
	var out []Change
	for p, fp := range next {
		old, ok := prev[p]
		switch {
		case !ok:
			out = append(out, Change{Kind: KindCreated, Path: p})
		case old != fp:
			out = append(out, Change{Kind: KindUpdated, Path: p})
		}
	}
	for p := range prev {
		if _, ok := next[p]; !ok {
			out = append(out, Change{Kind: KindDeleted, Path: p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping hidden directories.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}
