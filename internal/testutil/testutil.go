// Package testutil provides shared test helpers for content fixtures.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/lexis/internal/storage"
)

// Sample is a small documentation tree used across package tests. It holds
// two documents titled "API" in different doc types, a private and a draft
// document, an ignored partial and a file without frontmatter.
var Sample = map[string]string{
	"intro.md": "---\ntitle: Introduction\norder: 1\nkeywords: [overview]\n---\n" +
		"Start with [[API]], then read [[Deployment Guide|deploying]] and [[Nowhere]].\n",
	"docs/index.json": `{"title": "Documentation", "order": 1}`,
	"docs/api.mdx": "---\ntitle: API\ndescription: REST reference\norder: 1\nkeywords: [rest, endpoints]\ndate: 2024-04-01\n---\n" +
		"The API. See [[Getting Started]].\n",
	"docs/deploy.mdx": "---\ntitle: Deployment Guide\ndescription: Shipping to production\nkeywords: [deploy, release]\n---\n" +
		"Deploying.\n",
	"docs/getting-started.mdx": "---\ntitle: Getting Started\norder: 0\ntags: [intro]\n---\nHello.\n",
	"wiki/index.mdx":           "---\ntitle: Wiki\norder: 2\n---\n",
	"wiki/api.mdx":             "---\ntitle: API\ndescription: Internal API notes\nkeywords: [internal api]\n---\nWiki api.\n",
	"wiki/internal.mdx":        "---\ntitle: Internal Notes\nstatus: private\n---\nSecret.\n",
	"drafts/wip.mdx":           "---\ntitle: Work In Progress\nstatus: draft\n---\nWIP.\n",
	"_partials/header.mdx":     "---\ntitle: Header\n---\n",
	"misc/broken-page.mdx":     "No frontmatter here.\n",
	"empty/nested/.keep":       "",
}

// WriteTree writes files (slash-separated relative paths) under dir.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// TestContent creates a temporary content root holding files.
func TestContent(t *testing.T, files map[string]string) (string, storage.Provider) {
	t.Helper()
	dir := t.TempDir()
	WriteTree(t, dir, files)
	store, err := storage.NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, store
}

// Logger returns a logger that only emits errors to stderr.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
