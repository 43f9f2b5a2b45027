// Package storage defines the file-system abstraction over the content root
// and the on-disk cache directory.
package storage

import "time"

// Entry describes one file or directory.
type Entry struct {
	Name    string
	IsDir   bool
	ModTime time.Time
}

// FileInfo is a content file found by List.
type FileInfo struct {
	Path        string
	Fingerprint string
	ModTime     time.Time
}

// Provider is the interface for rooted file operations. All paths are
// slash-separated and relative to the root.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// ReadDir lists the direct children of dir, sorted by name.
	ReadDir(dir string) ([]Entry, error)
	// Stat describes the file or directory at path.
	Stat(path string) (Entry, error)
	// List walks dir and returns every content file (.md, .mdx) beneath it.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Clear removes everything under the root, keeping the root itself.
	Clear() error
}
