// Package keyword flattens document trees into a normalized keyword index and
// reports documents that share a title.
package keyword

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/starford/lexis/internal/models"
)

// Document is a flattened, indexable view of a file node.
type Document struct {
	Title        string     `json:"title"`
	Path         string     `json:"path"`
	DocType      string     `json:"docType"`
	Description  string     `json:"description,omitempty"`
	Keywords     []string   `json:"keywords,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// Identifier returns the index pointer for d.
func (d Document) Identifier() models.KeywordIdentifier {
	return models.KeywordIdentifier{
		Title:        d.Title,
		DocType:      d.DocType,
		Path:         d.Path,
		LastModified: d.LastModified,
	}
}

// Normalize lowercases s, trims it and collapses inner whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Flatten returns every file node of the tree in depth-first order.
func Flatten(nodes []*models.DocumentNode) []Document {
	var out []Document
	for _, n := range nodes {
		if n.IsFolder {
			out = append(out, Flatten(n.Children)...)
			continue
		}
		out = append(out, Document{
			Title:        n.Title,
			Path:         n.Path,
			DocType:      n.DocType,
			Description:  n.Description,
			Keywords:     n.Keywords,
			Tags:         n.Tags,
			LastModified: n.LastModified,
		})
	}
	return out
}

// Keys returns the normalized index keys of d: its title followed by its
// keywords, without duplicates or empty strings.
func Keys(d Document) []string {
	seen := make(map[string]struct{}, len(d.Keywords)+1)
	var out []string
	for _, k := range append([]string{d.Title}, d.Keywords...) {
		k = Normalize(k)
		if k == "" {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// BuildEntries indexes docs under their normalized keys. A document is
// registered at most once per key.
func BuildEntries(docs []Document, now time.Time) map[string]*models.KeywordIndexEntry {
	entries := make(map[string]*models.KeywordIndexEntry)
	for _, d := range docs {
		for _, k := range Keys(d) {
			e, ok := entries[k]
			if !ok {
				e = &models.KeywordIndexEntry{}
				entries[k] = e
			}
			if containsPath(e.Documents, d.Path) {
				continue
			}
			e.Documents = append(e.Documents, d.Identifier())
			e.IsAmbiguous = len(e.Documents) > 1
			e.LastUpdated = now
		}
	}
	return entries
}

func containsPath(ids []models.KeywordIdentifier, p string) bool {
	for _, id := range ids {
		if id.Path == p {
			return true
		}
	}
	return false
}

// DetectDuplicates reports every index key that a document's own title
// claims after another document already holds it, whether through its title
// or a frontmatter keyword. Keys are reported in order of first collision and
// each lists all documents registered under the key. Severity is error when
// two of the documents share a doc type, otherwise warning.
func DetectDuplicates(docs []Document) []models.DuplicateTitleError {
	groups := make(map[string][]Document)
	flagged := make(map[string]bool)
	var order []string
	for _, d := range docs {
		title := Normalize(d.Title)
		for _, k := range Keys(d) {
			g := groups[k]
			if containsDoc(g, d.Path) {
				continue
			}
			if len(g) > 0 && k == title && !flagged[k] {
				flagged[k] = true
				order = append(order, k)
			}
			groups[k] = append(g, d)
		}
	}

	out := make([]models.DuplicateTitleError, 0, len(order))
	for _, k := range order {
		out = append(out, duplicateError(k, groups[k]))
	}
	return out
}

func duplicateError(key string, g []Document) models.DuplicateTitleError {
	title := g[0].Title
	for _, d := range g {
		if Normalize(d.Title) == key {
			title = d.Title
			break
		}
	}
	occ := make([]models.KeywordIdentifier, len(g))
	types := make(map[string]struct{}, len(g))
	shared := false
	for i, d := range g {
		occ[i] = d.Identifier()
		if _, dup := types[d.DocType]; dup {
			shared = true
		}
		types[d.DocType] = struct{}{}
	}
	dte := models.DuplicateTitleError{
		Title:       title,
		Occurrences: occ,
		Severity:    models.SeverityWarning,
		Suggestion:  fmt.Sprintf("filter by doc type (%s) to disambiguate %q", strings.Join(sortedKeys(types), ", "), title),
	}
	if shared {
		dte.Severity = models.SeverityError
		dte.Suggestion = fmt.Sprintf("rename one of the %d documents titled %q or give them distinct keywords", len(g), title)
	}
	return dte
}

func containsDoc(g []Document, p string) bool {
	for _, d := range g {
		if d.Path == p {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Index is the keyword index of one tree. It is immutable once built.
type Index struct {
	Entries    map[string]*models.KeywordIndexEntry `json:"entries"`
	Documents  []Document                           `json:"documents"`
	Duplicates []models.DuplicateTitleError         `json:"duplicates"`
	BuiltAt    time.Time                            `json:"builtAt"`

	once   sync.Once
	filter *bloom.BloomFilter
	byPath map[string]int
}

// Build flattens nodes and indexes the result.
func Build(nodes []*models.DocumentNode, now time.Time) *Index {
	docs := Flatten(nodes)
	return &Index{
		Entries:    BuildEntries(docs, now),
		Documents:  docs,
		Duplicates: DetectDuplicates(docs),
		BuiltAt:    now,
	}
}

func (ix *Index) init() {
	ix.once.Do(func() {
		ix.filter = bloom.NewWithEstimates(uint(max(len(ix.Entries), 1)), 0.01)
		for k := range ix.Entries {
			ix.filter.AddString(k)
		}
		ix.byPath = make(map[string]int, len(ix.Documents))
		for i, d := range ix.Documents {
			ix.byPath[d.Path] = i
		}
	})
}

// Lookup returns the entry for keyword after normalization.
func (ix *Index) Lookup(keyword string) (*models.KeywordIndexEntry, bool) {
	ix.init()
	k := Normalize(keyword)
	if !ix.filter.TestString(k) {
		return nil, false
	}
	e, ok := ix.Entries[k]
	return e, ok
}

// MayContain reports whether keyword may be an index key. False is definite.
func (ix *Index) MayContain(keyword string) bool {
	ix.init()
	return ix.filter.TestString(Normalize(keyword))
}

// Document returns the indexed document at path.
func (ix *Index) Document(path string) (Document, bool) {
	ix.init()
	i, ok := ix.byPath[path]
	if !ok {
		return Document{}, false
	}
	return ix.Documents[i], true
}

// Keys returns all index keys in sorted order.
func (ix *Index) Keys() []string {
	out := make([]string, 0, len(ix.Entries))
	for k := range ix.Entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Ambiguous returns the sorted keys registered to more than one document.
func (ix *Index) Ambiguous() []string {
	var out []string
	for k, e := range ix.Entries {
		if e.IsAmbiguous {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
