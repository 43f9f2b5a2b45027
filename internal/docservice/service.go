// Package docservice coordinates the content tree, keyword index, resolver,
// cache and statistics behind one API used by the HTTP, CLI and MCP surfaces.
package docservice

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/cache"
	"github.com/starford/lexis/internal/keyword"
	"github.com/starford/lexis/internal/models"
	"github.com/starford/lexis/internal/parser"
	"github.com/starford/lexis/internal/resolver"
	"github.com/starford/lexis/internal/stats"
	"github.com/starford/lexis/internal/storage"
	"github.com/starford/lexis/internal/tree"
)

// KeywordItem is one entry of the keyword listing.
type KeywordItem struct {
	Keyword     string                     `json:"keyword"`
	IsAmbiguous bool                       `json:"isAmbiguous"`
	Documents   []models.KeywordIdentifier `json:"documents"`
}

// Deps are the collaborators of a Service. Cache, Stats and Reporter are
// optional.
type Deps struct {
	Store    storage.Provider
	Trees    *tree.Builder
	Indexer  *keyword.Indexer
	Resolver *resolver.Resolver
	Cache    *cache.Manager
	Stats    *stats.DB
	Reporter *apperr.Reporter
	Logger   *slog.Logger
}

// Service is the application facade.
type Service struct {
	store    storage.Provider
	trees    *tree.Builder
	indexer  *keyword.Indexer
	resolver *resolver.Resolver
	cache    *cache.Manager
	stats    *stats.DB
	reporter *apperr.Reporter
	logger   *slog.Logger
}

// NewService creates a service from deps.
func NewService(d Deps) *Service {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    d.Store,
		trees:    d.Trees,
		indexer:  d.Indexer,
		resolver: d.Resolver,
		cache:    d.Cache,
		stats:    d.Stats,
		reporter: d.Reporter,
		logger:   logger,
	}
}

// Tree returns the document tree under subpath.
func (s *Service) Tree(ctx context.Context, subpath string, authenticated bool) ([]*models.DocumentNode, error) {
	return s.trees.Build(ctx, subpath, authenticated)
}

// Keywords lists every index key, sorted.
func (s *Service) Keywords(ctx context.Context, authenticated bool) ([]KeywordItem, error) {
	ix, err := s.indexer.Index(ctx, authenticated)
	if err != nil {
		return nil, err
	}
	keys := ix.Keys()
	out := make([]KeywordItem, 0, len(keys))
	for _, k := range keys {
		e := ix.Entries[k]
		out = append(out, KeywordItem{Keyword: k, IsAmbiguous: e.IsAmbiguous, Documents: e.Documents})
	}
	return out, nil
}

// Duplicates returns the duplicate-title diagnostics.
func (s *Service) Duplicates(ctx context.Context, authenticated bool) ([]models.DuplicateTitleError, error) {
	ix, err := s.indexer.Index(ctx, authenticated)
	if err != nil {
		return nil, err
	}
	for _, d := range ix.Duplicates {
		if d.Severity == models.SeverityError {
			s.logger.Debug("docservice: duplicate title", slog.String("title", d.Title), slog.Int("occurrences", len(d.Occurrences)))
		}
	}
	return nonNilSlice(ix.Duplicates), nil
}

// Resolve resolves one keyword. It never fails.
func (s *Service) Resolve(ctx context.Context, q resolver.Query) models.ResolvedKeyword {
	return s.resolver.Resolve(ctx, q)
}

// Source returns the raw content of the visible document at docPath.
func (s *Service) Source(ctx context.Context, docPath string, authenticated bool) ([]byte, error) {
	docPath = cleanDocPath(docPath)
	ix, err := s.indexer.Index(ctx, authenticated)
	if err != nil {
		return nil, err
	}
	if _, ok := ix.Document(docPath); !ok {
		return nil, apperr.Newf(apperr.KindNotFound, "docservice.source", "no document at %s", docPath)
	}
	return s.readDocument(docPath)
}

// ResolveReferences resolves every [[Keyword]] in the body of the document at
// docPath, using the document path as the location context.
func (s *Service) ResolveReferences(ctx context.Context, docPath string, authenticated bool) ([]models.InlineReference, error) {
	docPath = cleanDocPath(docPath)
	data, err := s.Source(ctx, docPath, authenticated)
	if err != nil {
		return nil, err
	}
	res, _ := parser.Parse(data)

	refs := make([]models.InlineReference, 0, len(res.Refs))
	rows := make([]stats.Reference, 0, len(res.Refs))
	for _, kw := range res.Refs {
		r := s.resolver.Resolve(ctx, resolver.Query{Keyword: kw, Context: docPath, Authenticated: authenticated})
		refs = append(refs, models.InlineReference{
			Keyword:     kw,
			IsValid:     r.OK(),
			DocType:     r.DocType,
			InitialData: r,
		})
		rows = append(rows, stats.Reference{Keyword: keyword.Normalize(kw), Valid: r.OK()})
	}
	if s.stats != nil {
		if err := s.stats.ReplaceReferences(ctx, docPath, rows); err != nil {
			s.logger.Warn("docservice: store references failed", slog.String("path", docPath), slog.String("error", err.Error()))
		}
	}
	return refs, nil
}

func cleanDocPath(p string) string {
	return path.Clean("/" + strings.Trim(p, "/"))
}

// readDocument finds the source file of a slug path.
func (s *Service) readDocument(docPath string) ([]byte, error) {
	rel := strings.TrimPrefix(docPath, "/")
	for _, ext := range []string{".mdx", ".md"} {
		data, err := s.store.Read(rel + ext)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	return nil, apperr.Newf(apperr.KindNotFound, "docservice.read", "no source file for %s", docPath)
}

// Referrers returns documents whose body references keyword. References are
// recorded by ResolveReferences.
func (s *Service) Referrers(ctx context.Context, kw string) ([]string, error) {
	if s.stats == nil {
		return []string{}, nil
	}
	out, err := s.stats.Referrers(ctx, keyword.Normalize(kw))
	return nonNilSlice(out), err
}

// BrokenReferences returns, per document, the references that did not
// resolve when the document was last checked.
func (s *Service) BrokenReferences(ctx context.Context) (map[string][]string, error) {
	if s.stats == nil {
		return map[string][]string{}, nil
	}
	return s.stats.BrokenReferences(ctx)
}

// KeywordStats returns the most looked-up keywords.
func (s *Service) KeywordStats(ctx context.Context, limit int) ([]stats.KeywordStat, error) {
	if s.stats == nil {
		return []stats.KeywordStat{}, nil
	}
	out, err := s.stats.Top(ctx, limit)
	return nonNilSlice(out), err
}

// CacheMetrics returns the cache counters.
func (s *Service) CacheMetrics() cache.Metrics {
	if s.cache == nil {
		return cache.Metrics{}
	}
	return s.cache.Metrics()
}

// Invalidate drops every cached tree and index.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Clear(ctx)
	}
}

// Errors returns up to n recent error reports and the per-kind counts.
func (s *Service) Errors(n int) ([]apperr.Report, map[apperr.Kind]int) {
	if s.reporter == nil {
		return []apperr.Report{}, map[apperr.Kind]int{}
	}
	return s.reporter.Recent(n), s.reporter.Counts()
}

// ResetDiagnostics drops recorded error reports and keyword lookup counters.
func (s *Service) ResetDiagnostics(ctx context.Context) error {
	if s.reporter != nil {
		s.reporter.Reset()
	}
	if s.stats == nil {
		return nil
	}
	return s.stats.Reset(ctx)
}

// Ready reports whether the content root can be read.
func (s *Service) Ready() error {
	_, err := s.store.Stat("")
	return err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
