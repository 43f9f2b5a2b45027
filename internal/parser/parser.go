// Package parser extracts and validates frontmatter and [[Keyword]]
// references from documentation content files.
package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/starford/lexis/internal/models"
)

var keywordRefRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

var knownFields = map[string]struct{}{
	"title": {}, "description": {}, "date": {}, "status": {},
	"tags": {}, "category": {}, "order": {}, "keywords": {},
}

// Frontmatter is the metadata block of a content file or folder.
type Frontmatter struct {
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Date        string         `yaml:"date" json:"date,omitempty"`
	Status      models.Status  `yaml:"status" json:"status,omitempty"`
	Tags        []string       `yaml:"tags" json:"tags,omitempty"`
	Category    string         `yaml:"category" json:"category,omitempty"`
	Order       *int           `yaml:"order" json:"order,omitempty"`
	Keywords    []string       `yaml:"keywords" json:"keywords,omitempty"`
	Extra       map[string]any `yaml:"-" json:"-"`
}

// Validate checks required fields and the status enum.
func (f *Frontmatter) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Status, validation.In(models.StatusPublished, models.StatusDraft, models.StatusPrivate)),
	)
}

// ValidateFolder checks folder metadata. Folders take their title from the
// directory name when none is given, so only the status enum is checked.
func (f *Frontmatter) ValidateFolder() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Status, validation.In(models.StatusPublished, models.StatusDraft, models.StatusPrivate)),
	)
}

// EffectiveStatus returns the status, defaulting to published.
func (f *Frontmatter) EffectiveStatus() models.Status {
	if f.Status == "" {
		return models.StatusPublished
	}
	return f.Status
}

// Time parses Date. The zero time and false are returned when Date is empty
// or in an unknown layout.
func (f *Frontmatter) Time() (time.Time, bool) {
	if f.Date == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, f.Date); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Result holds the output of parsing a content file.
type Result struct {
	Frontmatter *Frontmatter
	Body        string
	Refs        []string
}

// Parse splits frontmatter from body, decodes and validates the frontmatter
// and collects [[Keyword]] references. A missing or invalid frontmatter block
// yields an error together with a Result whose Body and Refs are still usable.
func Parse(data []byte) (*Result, error) {
	block, body, found := splitFrontmatter(data)
	res := &Result{Body: body, Refs: ExtractRefs(body)}
	if !found {
		return res, fmt.Errorf("parser: missing frontmatter")
	}
	fm, err := decodeFrontmatter(block)
	if err != nil {
		return res, err
	}
	res.Frontmatter = fm
	if err := fm.Validate(); err != nil {
		return res, fmt.Errorf("parser: invalid frontmatter: %w", err)
	}
	return res, nil
}

// ParseFolderMeta decodes folder metadata from an index.json document.
func ParseFolderMeta(data []byte) (*Frontmatter, error) {
	var fm Frontmatter
	if err := json.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("parser: decode index.json: %w", err)
	}
	if err := fm.ValidateFolder(); err != nil {
		return nil, fmt.Errorf("parser: invalid index.json: %w", err)
	}
	return &fm, nil
}

// ParseFolderIndex decodes folder metadata from the frontmatter of an
// index.mdx or index.md file.
func ParseFolderIndex(data []byte) (*Frontmatter, error) {
	block, _, found := splitFrontmatter(data)
	if !found {
		return nil, fmt.Errorf("parser: missing frontmatter")
	}
	fm, err := decodeFrontmatter(block)
	if err != nil {
		return nil, err
	}
	if err := fm.ValidateFolder(); err != nil {
		return nil, fmt.Errorf("parser: invalid folder frontmatter: %w", err)
	}
	return fm, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the body. found is false when there is no complete block.
func splitFrontmatter(data []byte) (block []byte, body string, found bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), false
	}

	block = rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	return block, strings.TrimLeft(string(afterDelim), "\n\r"), true
}

func decodeFrontmatter(block []byte) (*Frontmatter, error) {
	var fm Frontmatter
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, fmt.Errorf("parser: decode frontmatter: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(block, &raw); err != nil {
		return nil, fmt.Errorf("parser: decode frontmatter: %w", err)
	}
	for k, v := range raw {
		if _, known := knownFields[k]; known {
			continue
		}
		if fm.Extra == nil {
			fm.Extra = make(map[string]any)
		}
		fm.Extra[k] = v
	}
	fm.Tags = cleanList(fm.Tags)
	fm.Keywords = cleanList(fm.Keywords)
	return &fm, nil
}

// ExtractRefs returns deduplicated [[Keyword]] targets in order of first
// appearance. "[[Target|label]]" yields Target.
func ExtractRefs(body string) []string {
	matches := keywordRefRe.FindAllStringSubmatch(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		target := m[1]
		if i := strings.Index(target, "|"); i >= 0 {
			target = target[:i]
		}
		target = strings.TrimSpace(target)
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		out = append(out, target)
	}
	return out
}

// TitleFromFilename derives a readable title from a file or directory name:
// "getting-started.mdx" becomes "Getting Started".
func TitleFromFilename(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func cleanList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
