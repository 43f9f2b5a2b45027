// Package priority ranks candidate documents with a weighted combination of
// scoring criteria.
package priority

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/starford/lexis/internal/keyword"
)

// Criterion is one scoring dimension.
type Criterion string

// Criteria.
const (
	DocType    Criterion = "DOC_TYPE"
	Recency    Criterion = "RECENCY"
	Popularity Criterion = "POPULARITY"
	Relevance  Criterion = "RELEVANCE"
	Custom     Criterion = "CUSTOM"
)

// Criteria lists every criterion in evaluation order.
var Criteria = []Criterion{DocType, Recency, Popularity, Relevance, Custom}

const recencyWindowDays = 30

// Match is a ranked candidate. Score is the pre-ranking relevance.
type Match struct {
	Document keyword.Document
	Score    float64
	DocType  string
}

// Ranked is a match with its combined score.
type Ranked struct {
	Match
	Combined float64
}

// Config seeds a Resolver. Values are clamped into [0,1].
type Config struct {
	Weights       map[Criterion]float64 `yaml:"weights"`
	DocTypeLevels map[string]float64    `yaml:"doc_types"`
	DefaultLevel  float64               `yaml:"default_level"`
	Preferences   map[string]float64    `yaml:"preferences"`
	Popularity    map[string]float64    `yaml:"popularity"`
}

// DefaultConfig returns the built-in weights.
func DefaultConfig() Config {
	return Config{
		Weights: map[Criterion]float64{
			DocType:    0.8,
			Recency:    0.3,
			Popularity: 0.5,
			Relevance:  1.0,
			Custom:     0.2,
		},
		DefaultLevel: 0.5,
	}
}

// Resolver holds weights and per-doc-type and per-path scores. It is safe
// for concurrent use.
type Resolver struct {
	mu           sync.RWMutex
	weights      map[Criterion]float64
	levels       map[string]float64
	defaultLevel float64
	prefs        map[string]float64
	popularity   map[string]float64
	now          func() time.Time
}

// New creates a resolver from cfg.
func New(cfg Config) *Resolver {
	r := &Resolver{
		weights:      make(map[Criterion]float64),
		levels:       make(map[string]float64),
		defaultLevel: clamp(cfg.DefaultLevel),
		prefs:        make(map[string]float64),
		popularity:   make(map[string]float64),
		now:          time.Now,
	}
	for c, w := range cfg.Weights {
		r.SetWeight(c, w)
	}
	for dt, l := range cfg.DocTypeLevels {
		r.SetDocTypeLevel(dt, l)
	}
	for dt, p := range cfg.Preferences {
		r.SetPreference(dt, p)
	}
	for p, s := range cfg.Popularity {
		r.SetPopularity(p, s)
	}
	return r
}

func clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// SetWeight sets the weight of c. Zero disables it.
func (r *Resolver) SetWeight(c Criterion, w float64) {
	r.mu.Lock()
	r.weights[c] = clamp(w)
	r.mu.Unlock()
}

// SetDocTypeLevel sets the priority level of a doc type.
func (r *Resolver) SetDocTypeLevel(docType string, level float64) {
	r.mu.Lock()
	r.levels[docType] = clamp(level)
	r.mu.Unlock()
}

// SetPreference sets the user preference of a doc type.
func (r *Resolver) SetPreference(docType string, pref float64) {
	r.mu.Lock()
	r.prefs[docType] = clamp(pref)
	r.mu.Unlock()
}

// SetPopularity sets the popularity score of a document path.
func (r *Resolver) SetPopularity(path string, score float64) {
	r.mu.Lock()
	r.popularity[path] = clamp(score)
	r.mu.Unlock()
}

// Weights returns a copy of the current weights.
func (r *Resolver) Weights() map[Criterion]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Criterion]float64, len(r.weights))
	for c, w := range r.weights {
		out[c] = w
	}
	return out
}

// raw returns the unweighted score of m for c. r.mu must be held.
func (r *Resolver) raw(c Criterion, m Match, now time.Time) float64 {
	switch c {
	case DocType:
		if l, ok := r.levels[m.DocType]; ok {
			return l
		}
		return r.defaultLevel
	case Recency:
		lm := m.Document.LastModified
		if lm == nil {
			return 0
		}
		ageDays := now.Sub(*lm).Hours() / 24
		return math.Max(0, 1-ageDays/recencyWindowDays)
	case Popularity:
		return r.popularity[m.Document.Path]
	case Relevance:
		return m.Score
	case Custom:
		titlePenalty := math.Max(0, 1-float64(len([]rune(m.Document.Title)))/100)
		return r.prefs[m.DocType] + 0.1*float64(len(m.Document.Keywords)) - titlePenalty
	default:
		return 0
	}
}

// Combined returns the weighted mean of the enabled criteria for m.
func (r *Resolver) Combined(m Match) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.combined(m, r.now())
}

func (r *Resolver) combined(m Match, now time.Time) float64 {
	var sum, total float64
	for _, c := range Criteria {
		w := r.weights[c]
		if w <= 0 {
			continue
		}
		sum += w * r.raw(c, m, now)
		total += w
	}
	if total == 0 {
		return 0
	}
	return sum / total
}

// Rank scores matches and returns them by descending combined score. Ties
// fall back to the incoming relevance and then to the path.
func (r *Resolver) Rank(matches []Match) []Ranked {
	r.mu.RLock()
	now := r.now()
	out := make([]Ranked, len(matches))
	for i, m := range matches {
		out[i] = Ranked{Match: m, Combined: r.combined(m, now)}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Combined != b.Combined {
			return a.Combined > b.Combined
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Document.Path < b.Document.Path
	})
	return out
}

// Sort returns matches ordered by Rank.
func (r *Resolver) Sort(matches []Match) []Match {
	ranked := r.Rank(matches)
	out := make([]Match, len(ranked))
	for i, rk := range ranked {
		out[i] = rk.Match
	}
	return out
}
