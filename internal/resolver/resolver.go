// Package resolver turns a [[Keyword]] reference into the best matching
// document, with ranked alternatives.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/contextmatch"
	"github.com/starford/lexis/internal/keyword"
	"github.com/starford/lexis/internal/models"
	"github.com/starford/lexis/internal/pathres"
	"github.com/starford/lexis/internal/priority"
	"github.com/starford/lexis/internal/stats"
)

// Strategy selects how loosely keywords match.
type Strategy string

// Strategies.
const (
	Strict   Strategy = "strict"
	Fuzzy    Strategy = "fuzzy"
	Adaptive Strategy = "adaptive"
)

const (
	shortKeywordLen   = 3
	frequentUsageOver = 5
)

// Config controls resolution.
type Config struct {
	Strategy         Strategy `yaml:"strategy"`
	ContextMatching  bool     `yaml:"context_matching"`
	PriorityMatching bool     `yaml:"priority_matching"`
	RelatedKeywords  bool     `yaml:"related_keywords"`
	RelatedLimit     int      `yaml:"related_limit"`
	UsageCapacity    int      `yaml:"usage_capacity"`
}

// DefaultConfig enables every ranking stage with the adaptive strategy.
func DefaultConfig() Config {
	return Config{
		Strategy:         Adaptive,
		ContextMatching:  true,
		PriorityMatching: true,
		RelatedKeywords:  true,
		RelatedLimit:     5,
		UsageCapacity:    DefaultUsageCapacity,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Strategy, validation.In(Strict, Fuzzy, Adaptive)),
		validation.Field(&c.RelatedLimit, validation.Min(0)),
		validation.Field(&c.UsageCapacity, validation.Min(0)),
	)
}

// Query is one resolution request.
type Query struct {
	Keyword       string
	DocType       string
	Context       string
	Authenticated bool
}

// IndexSource provides the keyword index for an auth state.
type IndexSource interface {
	Index(ctx context.Context, authenticated bool) (*keyword.Index, error)
}

// Recorder receives the outcome of every resolution.
type Recorder interface {
	Record(ctx context.Context, keyword string, outcome stats.Outcome) error
}

// Resolver is safe for concurrent use.
type Resolver struct {
	cfg      Config
	indexes  IndexSource
	priority *priority.Resolver
	aliases  *pathres.AliasResolver
	paths    *pathres.PathResolver
	recorder Recorder
	reporter *apperr.Reporter
	logger   *slog.Logger
	usage    *usageTable
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithPriority sets the priority resolver used when priority matching is on.
func WithPriority(p *priority.Resolver) Option { return func(r *Resolver) { r.priority = p } }

// WithPaths sets the alias and path resolvers applied to mapped paths.
func WithPaths(a *pathres.AliasResolver, p *pathres.PathResolver) Option {
	return func(r *Resolver) {
		r.aliases = a
		r.paths = p
	}
}

// WithRecorder records resolution outcomes.
func WithRecorder(rec Recorder) Option { return func(r *Resolver) { r.recorder = rec } }

// WithReporter reports resolution failures.
func WithReporter(rep *apperr.Reporter) Option { return func(r *Resolver) { r.reporter = rep } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(r *Resolver) { r.logger = l } }

// New creates a resolver over indexes.
func New(cfg Config, indexes IndexSource, opts ...Option) *Resolver {
	if cfg.Strategy == "" {
		cfg.Strategy = Adaptive
	}
	r := &Resolver{
		cfg:      cfg,
		indexes:  indexes,
		priority: priority.New(priority.DefaultConfig()),
		aliases:  pathres.NewAliasResolver(nil),
		paths:    pathres.NewPathResolver("/"),
		logger:   slog.New(slog.DiscardHandler),
		usage:    newUsageTable(cfg.UsageCapacity),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Usage returns how often keyword has been resolved recently.
func (r *Resolver) Usage(kw string) int {
	return r.usage.count(keyword.Normalize(kw))
}

// chooseStrategy picks strict for short, context-free or frequently used
// keywords when the configured strategy is adaptive.
func (r *Resolver) chooseStrategy(kw, ctx string, usage int) Strategy {
	if r.cfg.Strategy != Adaptive {
		return r.cfg.Strategy
	}
	if len([]rune(kw)) <= shortKeywordLen || ctx == "" || usage > frequentUsageOver {
		return Strict
	}
	return Fuzzy
}

// Resolve never fails: every problem, including a panic, is turned into a
// result with Error set.
func (r *Resolver) Resolve(ctx context.Context, q Query) (res models.ResolvedKeyword) {
	kw := strings.TrimSpace(q.Keyword)
	res = models.ResolvedKeyword{Keyword: kw, DocType: q.DocType}

	defer func() {
		if p := recover(); p != nil {
			err := apperr.Newf(apperr.KindInternal, "resolver.resolve", "panic resolving %q: %v", kw, p)
			r.logger.Error("resolver: recovered panic", slog.String("keyword", kw), slog.Any("panic", p))
			r.reporter.Report(err)
			res = models.ResolvedKeyword{Keyword: kw, DocType: q.DocType, Error: err.Message}
		}
	}()

	if kw == "" {
		res.Error = "keyword is required"
		return res
	}
	norm := keyword.Normalize(kw)
	usage := r.usage.record(norm)
	strategy := r.chooseStrategy(kw, q.Context, usage)
	res.Strategy = string(strategy)

	ix, err := r.indexes.Index(ctx, q.Authenticated)
	if err != nil {
		r.reporter.Report(apperr.New(apperr.KindResolution, "resolver.index", kw, err))
		res.Error = fmt.Sprintf("keyword index unavailable: %v", err)
		return res
	}

	docs := candidates(ix, norm, q.DocType, strategy)
	if len(docs) == 0 && strategy == Strict {
		docs = candidates(ix, norm, q.DocType, Fuzzy)
		res.Fallback = len(docs) > 0
	}
	if len(docs) == 0 {
		res.Error = notFoundMessage(kw, q.DocType)
		r.reporter.Report(apperr.New(apperr.KindResolution, "resolver.resolve", res.Error, nil))
		r.record(ctx, norm, stats.OutcomeNotFound)
		return res
	}

	if r.cfg.ContextMatching && q.Context != "" {
		ranked := contextmatch.Rank(q.Context, docs)
		for i, s := range ranked {
			docs[i] = s.Document
		}
	}

	matches := make([]priority.Match, len(docs))
	for i, d := range docs {
		matches[i] = priority.Match{Document: d, Score: 1 / float64(i+1), DocType: d.DocType}
	}
	if r.cfg.PriorityMatching && r.priority != nil {
		matches = r.priority.Sort(matches)
	}

	best := r.mapping(q.Context, matches[0].Document)
	res.Mapping = &best
	if q.DocType == "" {
		res.DocType = best.DocType
	}
	for _, m := range matches[1:] {
		res.Alternatives = append(res.Alternatives, r.mapping(q.Context, m.Document))
	}
	res.IsAmbiguous = len(res.Alternatives) > 0

	if r.cfg.RelatedKeywords && q.Context != "" {
		res.RelatedKeywords = contextmatch.ExtractRelatedKeywords(kw, docs, r.cfg.RelatedLimit)
	}

	outcome := stats.OutcomeResolved
	if res.Fallback {
		outcome = stats.OutcomeFallback
	}
	r.record(ctx, norm, outcome)
	return res
}

func (r *Resolver) mapping(source string, d keyword.Document) models.DocumentMappingItem {
	return models.DocumentMappingItem{
		Title:       d.Title,
		Path:        pathres.Resolve(r.aliases, r.paths, source, d.Path),
		DocType:     d.DocType,
		Description: d.Description,
	}
}

func (r *Resolver) record(ctx context.Context, kw string, outcome stats.Outcome) {
	if r.recorder == nil {
		return
	}
	if err := r.recorder.Record(ctx, kw, outcome); err != nil {
		r.logger.Warn("resolver: record outcome failed", slog.String("keyword", kw), slog.String("error", err.Error()))
	}
}

func notFoundMessage(kw, docType string) string {
	if docType != "" {
		return fmt.Sprintf("no document of type %q matches keyword %q", docType, kw)
	}
	return fmt.Sprintf("no document matches keyword %q", kw)
}

// candidates gathers documents matching the normalized keyword. Strict
// matches a title or keyword exactly. Fuzzy matches when either string
// contains the other, exact matches first.
func candidates(ix *keyword.Index, norm, docType string, s Strategy) []keyword.Document {
	if s == Strict {
		e, ok := ix.Lookup(norm)
		if !ok {
			return nil
		}
		var out []keyword.Document
		for _, id := range e.Documents {
			if docType != "" && id.DocType != docType {
				continue
			}
			if d, ok := ix.Document(id.Path); ok {
				out = append(out, d)
			}
		}
		return out
	}

	var exact, partial []keyword.Document
	for _, d := range ix.Documents {
		if docType != "" && d.DocType != docType {
			continue
		}
		switch fuzzyMatch(norm, d) {
		case matchExact:
			exact = append(exact, d)
		case matchPartial:
			partial = append(partial, d)
		}
	}
	return append(exact, partial...)
}

type matchKind int

const (
	matchNone matchKind = iota
	matchPartial
	matchExact
)

func fuzzyMatch(norm string, d keyword.Document) matchKind {
	best := matchNone
	for _, k := range keyword.Keys(d) {
		switch {
		case k == norm:
			return matchExact
		case strings.Contains(k, norm) || strings.Contains(norm, k):
			best = matchPartial
		}
	}
	return best
}
