// Package models defines the domain types shared by the indexing, resolution
// and caching packages.
package models

import "time"

// Status is the visibility state of a document or folder.
type Status string

// Document statuses.
const (
	StatusPublished Status = "published"
	StatusDraft     Status = "draft"
	StatusPrivate   Status = "private"
)

// Visible reports whether a node with this status may be shown to a reader.
// Drafts and private nodes require an authenticated reader.
func (s Status) Visible(authenticated bool) bool {
	switch s {
	case StatusDraft, StatusPrivate:
		return authenticated
	default:
		return true
	}
}

// DocumentNode is one entry of the navigable document tree. Folder nodes carry
// children; file nodes do not.
type DocumentNode struct {
	Title        string          `json:"title"`
	Path         string          `json:"path"`
	Description  string          `json:"description,omitempty"`
	Order        int             `json:"order"`
	Status       Status          `json:"status"`
	DocType      string          `json:"docType"`
	Keywords     []string        `json:"keywords,omitempty"`
	Tags         []string        `json:"tags,omitempty"`
	Category     string          `json:"category,omitempty"`
	LastModified *time.Time      `json:"lastModified,omitempty"`
	IsFolder     bool            `json:"isFolder,omitempty"`
	Children     []*DocumentNode `json:"children,omitempty"`
}

// KeywordIdentifier points from an index key at one document.
type KeywordIdentifier struct {
	Title        string     `json:"title"`
	DocType      string     `json:"docType"`
	Path         string     `json:"path"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// KeywordIndexEntry lists every document registered under a normalized key.
// IsAmbiguous is true exactly when more than one document is registered.
type KeywordIndexEntry struct {
	Documents   []KeywordIdentifier `json:"documents"`
	IsAmbiguous bool                `json:"isAmbiguous"`
	LastUpdated time.Time           `json:"lastUpdated"`
}

// Severity grades a duplicate-title diagnostic.
type Severity string

// Duplicate severities.
const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DuplicateTitleError records documents that share a normalized title.
type DuplicateTitleError struct {
	Title       string              `json:"title"`
	Occurrences []KeywordIdentifier `json:"occurrences"`
	Severity    Severity            `json:"severity"`
	Suggestion  string              `json:"suggestion"`
}

// DocumentMappingItem is a resolved link target.
type DocumentMappingItem struct {
	Title       string `json:"title"`
	Path        string `json:"path"`
	DocType     string `json:"docType"`
	Description string `json:"description,omitempty"`
}

// ResolvedKeyword is the outcome of resolving one keyword reference. Exactly
// one of Mapping and Error is set.
type ResolvedKeyword struct {
	Keyword         string                `json:"keyword"`
	DocType         string                `json:"docType,omitempty"`
	Mapping         *DocumentMappingItem  `json:"mapping,omitempty"`
	Error           string                `json:"error,omitempty"`
	IsAmbiguous     bool                  `json:"isAmbiguous"`
	Alternatives    []DocumentMappingItem `json:"alternatives,omitempty"`
	RelatedKeywords []string              `json:"relatedKeywords,omitempty"`
	Strategy        string                `json:"strategy,omitempty"`
	Fallback        bool                  `json:"fallback,omitempty"`
}

// OK reports whether the keyword resolved to a document.
func (r ResolvedKeyword) OK() bool {
	return r.Mapping != nil && r.Error == ""
}

// InlineReference is the payload attached to a [[Keyword]] occurrence when a
// document body is rendered.
type InlineReference struct {
	Keyword     string          `json:"keyword"`
	IsValid     bool            `json:"isValid"`
	DocType     string          `json:"docType,omitempty"`
	InitialData ResolvedKeyword `json:"initialData"`
}
