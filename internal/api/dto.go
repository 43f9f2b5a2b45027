package api

import (
	"github.com/starford/lexis/internal/apperr"
	"github.com/starford/lexis/internal/docservice"
	"github.com/starford/lexis/internal/models"
	"github.com/starford/lexis/internal/stats"
)

// ResolveResponse is a resolution result with its server-side duration.
type ResolveResponse struct {
	models.ResolvedKeyword
	ResponseTimeMs float64 `json:"responseTimeMs" example:"1.25"`
}

// TreeResponse wraps a document tree.
type TreeResponse struct {
	Path  string                 `json:"path" example:"/docs"`
	Nodes []*models.DocumentNode `json:"nodes" validate:"required"`
}

// KeywordsResponse lists the keyword index.
type KeywordsResponse struct {
	Keywords  []docservice.KeywordItem `json:"keywords" validate:"required"`
	Total     int                      `json:"total" example:"42"`
	Ambiguous int                      `json:"ambiguous" example:"3"`
}

// DuplicatesResponse lists duplicate-title diagnostics.
type DuplicatesResponse struct {
	Duplicates []models.DuplicateTitleError `json:"duplicates" validate:"required"`
}

// ReferencesResponse lists the resolved [[Keyword]] references of a document.
type ReferencesResponse struct {
	Path       string                   `json:"path" example:"/docs/intro"`
	References []models.InlineReference `json:"references" validate:"required"`
}

// ReferrersResponse lists documents referencing a keyword.
type ReferrersResponse struct {
	Keyword   string   `json:"keyword" example:"api"`
	Referrers []string `json:"referrers" validate:"required"`
}

// BrokenReferencesResponse maps document paths to their unresolved keywords.
type BrokenReferencesResponse struct {
	Documents map[string][]string `json:"documents" validate:"required"`
}

// KeywordStatsResponse lists keyword lookup counters.
type KeywordStatsResponse struct {
	Keywords []stats.KeywordStat `json:"keywords" validate:"required"`
}

// ErrorsResponse lists recent error reports.
type ErrorsResponse struct {
	Errors []apperr.Report     `json:"errors" validate:"required"`
	Counts map[apperr.Kind]int `json:"counts" validate:"required"`
}
