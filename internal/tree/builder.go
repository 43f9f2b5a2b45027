// Package tree builds the navigable document tree from a content directory.
package tree

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/cache"
	"github.com/starford/lexis/internal/models"
	"github.com/starford/lexis/internal/parser"
	"github.com/starford/lexis/internal/storage"
)

// CacheTTL is the lifetime of a cached tree.
const CacheTTL = 5 * time.Minute

// Default sibling orders when no order is given.
const (
	DefaultFolderOrder = 0
	DefaultFileOrder   = 999
)

// DefaultDocType is used for root-level files when none is configured.
const DefaultDocType = "docs"

var folderMetaFiles = []string{"index.json", "index.mdx", "index.md"}

// Builder walks a content root into DocumentNode trees.
type Builder struct {
	fs             storage.Provider
	cache          *cache.Manager
	reporter       *apperr.Reporter
	logger         *slog.Logger
	defaultDocType string
}

// Option configures a Builder.
type Option func(*Builder)

// WithCache caches built trees per subpath and auth state.
func WithCache(c *cache.Manager) Option { return func(b *Builder) { b.cache = c } }

// WithReporter receives parse errors found during the walk.
func WithReporter(r *apperr.Reporter) Option { return func(b *Builder) { b.reporter = r } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(b *Builder) { b.logger = l } }

// WithDefaultDocType sets the doc type of root-level files.
func WithDefaultDocType(dt string) Option {
	return func(b *Builder) {
		if dt != "" {
			b.defaultDocType = dt
		}
	}
}

// NewBuilder creates a builder over the content provider.
func NewBuilder(fs storage.Provider, opts ...Option) *Builder {
	b := &Builder{
		fs:             fs,
		logger:         slog.New(slog.DiscardHandler),
		defaultDocType: DefaultDocType,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// CacheKey returns the cache key of the tree for subpath and auth state.
func CacheKey(subpath string, authenticated bool) string {
	state := "anon"
	if authenticated {
		state = "auth"
	}
	return "tree:" + cleanSubpath(subpath) + ":" + state
}

func cleanSubpath(p string) string {
	return path.Clean("/" + strings.Trim(p, "/"))
}

// Build returns the tree rooted at subpath, serving it from the cache when
// one is configured.
func (b *Builder) Build(ctx context.Context, subpath string, authenticated bool) ([]*models.DocumentNode, error) {
	if b.cache == nil {
		return b.Walk(subpath, authenticated)
	}
	return cache.GetOrCompute(ctx, b.cache, CacheKey(subpath, authenticated), CacheTTL,
		func(context.Context) ([]*models.DocumentNode, error) {
			return b.Walk(subpath, authenticated)
		})
}

// Walk builds the tree rooted at subpath without consulting the cache.
func (b *Builder) Walk(subpath string, authenticated bool) ([]*models.DocumentNode, error) {
	root := strings.TrimPrefix(cleanSubpath(subpath), "/")
	info, err := b.fs.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("tree: %w", err)
	}
	if !info.IsDir {
		return nil, apperr.Newf(apperr.KindNotFound, "tree.walk", "%s is not a directory", subpath)
	}
	start := time.Now()
	nodes, err := b.walkDir(root, authenticated)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("tree: built",
		slog.String("subpath", "/"+root),
		slog.Bool("authenticated", authenticated),
		slog.Int("nodes", countNodes(nodes)),
		slog.Duration("took", time.Since(start)))
	return nodes, nil
}

func (b *Builder) walkDir(dir string, authenticated bool) ([]*models.DocumentNode, error) {
	entries, err := b.fs.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("tree: %w", err)
	}

	nodes := make([]*models.DocumentNode, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name, ".") || strings.HasPrefix(e.Name, "_") {
			continue
		}
		rel := path.Join(dir, e.Name)
		if e.IsDir {
			n, err := b.folderNode(rel, e, authenticated)
			if err != nil {
				b.report(apperr.New(apperr.KindInternal, "tree.dir", rel, err))
				continue
			}
			if n != nil {
				nodes = append(nodes, n)
			}
			continue
		}
		if !isDocument(e.Name) {
			continue
		}
		if n := b.fileNode(rel, e, authenticated); n != nil {
			nodes = append(nodes, n)
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Order < nodes[j].Order })
	return nodes, nil
}

func (b *Builder) folderNode(rel string, e storage.Entry, authenticated bool) (*models.DocumentNode, error) {
	meta := b.folderMeta(rel)
	if meta != nil && !meta.EffectiveStatus().Visible(authenticated) {
		return nil, nil
	}
	children, err := b.walkDir(rel, authenticated)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 && meta == nil {
		return nil, nil
	}

	p := "/" + rel
	n := &models.DocumentNode{
		Title:    parser.TitleFromFilename(e.Name),
		Path:     p,
		Order:    DefaultFolderOrder,
		Status:   models.StatusPublished,
		DocType:  b.docType(p, true),
		IsFolder: true,
		Children: children,
	}
	if meta != nil {
		applyMeta(n, meta)
	}
	return n, nil
}

// folderMeta reads the first existing metadata file of dir. Invalid metadata
// is reported and ignored.
func (b *Builder) folderMeta(dir string) *parser.Frontmatter {
	for _, name := range folderMetaFiles {
		p := path.Join(dir, name)
		data, err := b.fs.Read(p)
		if errors.Is(err, apperr.ErrNotFound) {
			continue
		}
		if err != nil {
			b.report(apperr.New(apperr.KindParse, "tree.folder", p, err))
			return nil
		}
		var fm *parser.Frontmatter
		if name == "index.json" {
			fm, err = parser.ParseFolderMeta(data)
		} else {
			fm, err = parser.ParseFolderIndex(data)
		}
		if err != nil {
			b.report(apperr.New(apperr.KindParse, "tree.folder", p, err))
			return nil
		}
		return fm
	}
	return nil
}

func (b *Builder) fileNode(rel string, e storage.Entry, authenticated bool) *models.DocumentNode {
	data, err := b.fs.Read(rel)
	if err != nil {
		b.report(apperr.New(apperr.KindParse, "tree.file", rel, err))
		return nil
	}
	res, err := parser.Parse(data)
	if err != nil {
		b.report(apperr.New(apperr.KindParse, "tree.file", rel, err))
	}

	p := "/" + strings.TrimSuffix(rel, path.Ext(rel))
	mod := e.ModTime
	n := &models.DocumentNode{
		Title:        parser.TitleFromFilename(e.Name),
		Path:         p,
		Order:        DefaultFileOrder,
		Status:       models.StatusPublished,
		DocType:      b.docType(p, false),
		LastModified: &mod,
	}
	if fm := res.Frontmatter; fm != nil {
		applyMeta(n, fm)
		n.Keywords = fm.Keywords
	}
	if !n.Status.Visible(authenticated) {
		return nil
	}
	return n
}

func applyMeta(n *models.DocumentNode, fm *parser.Frontmatter) {
	if fm.Title != "" {
		n.Title = fm.Title
	}
	if fm.Order != nil {
		n.Order = *fm.Order
	}
	switch s := fm.EffectiveStatus(); s {
	case models.StatusPublished, models.StatusDraft, models.StatusPrivate:
		n.Status = s
	}
	n.Description = fm.Description
	n.Tags = fm.Tags
	n.Category = fm.Category
	if t, ok := fm.Time(); ok {
		n.LastModified = &t
	}
}

// docType is the first path segment. Root-level files take the default.
func (b *Builder) docType(p string, folder bool) string {
	segs := strings.Split(strings.Trim(p, "/"), "/")
	if len(segs) == 1 && !folder {
		return b.defaultDocType
	}
	return segs[0]
}

func (b *Builder) report(err error) {
	b.logger.Warn("tree: skipped content", slog.String("error", err.Error()))
	b.reporter.Report(err)
}

func isDocument(name string) bool {
	if !storage.IsContentFile(name) {
		return false
	}
	return strings.TrimSuffix(name, path.Ext(name)) != "index"
}

func countNodes(nodes []*models.DocumentNode) int {
	n := len(nodes)
	for _, c := range nodes {
		n += countNodes(c.Children)
	}
	return n
}
