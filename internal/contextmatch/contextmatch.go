// Package contextmatch scores documents by how close their path is to the
// reader's current location.
package contextmatch

import (
	"strings"

	"github.com/starford/lexis/internal/keyword"
)

const (
	segmentWeight    = 0.2
	positionalWeight = 0.1
	partialCap       = 0.9
)

// Score rates how well docPath matches the location context. A context
// contained in the path scores 1. Otherwise each context segment longer than
// two characters found in the path adds 0.2 and each segment equal to the
// path segment at the same position adds 0.1, capped at 0.9.
func Score(context, docPath string) float64 {
	ctx := strings.ToLower(strings.TrimSpace(context))
	p := strings.ToLower(docPath)
	if ctx == "" {
		return 0
	}
	if strings.Contains(p, ctx) {
		return 1
	}

	ctxSegs := segments(ctx)
	pathSegs := segments(p)
	var score float64
	for i, s := range ctxSegs {
		if len(s) > 2 && strings.Contains(p, s) {
			score += segmentWeight
		}
		if i < len(pathSegs) && pathSegs[i] == s {
			score += positionalWeight
		}
	}
	return min(score, partialCap)
}

func segments(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
}

// Scored pairs a document with its context score.
type Scored struct {
	Document keyword.Document
	Score    float64
}

// Rank scores docs against context and orders them by descending score.
// Documents with equal scores keep their input order.
func Rank(context string, docs []keyword.Document) []Scored {
	out := make([]Scored, len(docs))
	for i, d := range docs {
		out[i] = Scored{Document: d, Score: Score(context, d.Path)}
	}
	// insertion sort keeps it stable for the small candidate sets we see
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Score > out[j-1].Score; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// ExtractRelatedKeywords returns the first-seen union of the candidates'
// keywords, excluding query, truncated to limit. limit <= 0 means no limit.
func ExtractRelatedKeywords(query string, docs []keyword.Document, limit int) []string {
	q := keyword.Normalize(query)
	seen := map[string]struct{}{q: {}}
	var out []string
	for _, d := range docs {
		for _, k := range d.Keywords {
			n := keyword.Normalize(k)
			if n == "" {
				continue
			}
			if _, dup := seen[n]; dup {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, k)
			if limit > 0 && len(out) == limit {
				return out
			}
		}
	}
	return out
}
