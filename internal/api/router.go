package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/starford/lexis/internal/docservice"
	"github.com/starford/lexis/internal/sse"
)

// NewRouter creates a chi router with all API routes mounted. auth may be nil,
// in which case every request is anonymous. events, if non-nil, is mounted at
// GET /events and receives cache.cleared notifications.
func NewRouter(svc *docservice.Service, auth Authenticator, events *sse.Broker) chi.Router {
	h := NewHandler(svc, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(auth))

	// Keywords.
	r.Get("/resolve", h.Resolve)
	r.Get("/keywords", h.Keywords)
	r.Get("/duplicates", h.Duplicates)
	r.Get("/referrers", h.Referrers)

	// Documents.
	r.Get("/tree", h.Tree)
	r.Get("/references/*", h.References)
	r.Get("/broken-references", h.BrokenReferences)

	// Cache and diagnostics.
	r.Get("/cache/metrics", h.CacheMetrics)
	r.With(RequireAuth(auth != nil)).Post("/cache/clear", h.ClearCache)
	r.Get("/stats/keywords", h.KeywordStats)
	r.Get("/errors", h.Errors)
	r.With(RequireAuth(auth != nil)).Post("/diagnostics/reset", h.ResetDiagnostics)

	if events != nil {
		r.Get("/events", events.ServeHTTP)
	}

	return r
}
