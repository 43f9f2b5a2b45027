package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/lexis/internal/docservice"
	"github.com/starford/lexis/internal/resolver"
	"github.com/starford/lexis/internal/sse"
)

// Handler holds API route handlers.
type Handler struct {
	svc    *docservice.Service
	events *sse.Broker
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(svc *docservice.Service, events *sse.Broker) *Handler {
	return &Handler{svc: svc, events: events}
}

// docPath extracts the document path from the URL (everything after the
// route prefix). Supports encoded slashes (e.g. docs%2Fapi).
func docPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

func intParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

// Resolve handles GET /resolve.
//
//	@Summary		Resolve a keyword to a document
//	@Tags			keywords
//	@Produce		json
//	@Param			keyword	query		string	true	"Keyword"
//	@Param			docType	query		string	false	"Restrict to a documentation type"
//	@Param			context	query		string	false	"Location the reference appears in"
//	@Success		200		{object}	ResolveResponse
//	@Failure		400		{object}	errResponse
//	@Failure		500		{object}	errResponse
//	@Router			/resolve [get]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("resolve panicked", slog.String("error", fmt.Sprint(rec)))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
	}()

	q := r.URL.Query()
	kw := strings.TrimSpace(q.Get("keyword"))
	if kw == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("keyword is required"))
		return
	}
	res := h.svc.Resolve(r.Context(), resolver.Query{
		Keyword:       kw,
		DocType:       q.Get("docType"),
		Context:       q.Get("context"),
		Authenticated: IsAuthenticated(r.Context()),
	})
	elapsed := float64(time.Since(start).Microseconds()) / 1000
	w.Header().Set("X-Response-Time", strconv.FormatFloat(elapsed, 'f', 3, 64)+"ms")
	writeJSON(w, http.StatusOK, ResolveResponse{ResolvedKeyword: res, ResponseTimeMs: elapsed})
}

// Tree handles GET /tree.
//
//	@Summary		Get the document tree
//	@Tags			documents
//	@Produce		json
//	@Param			path	query		string	false	"Subtree to return"
//	@Success		200		{object}	TreeResponse
//	@Failure		404		{object}	errResponse
//	@Router			/tree [get]
func (h *Handler) Tree(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	nodes, err := h.svc.Tree(r.Context(), p, IsAuthenticated(r.Context()))
	if err != nil {
		writeError(w, "tree", err)
		return
	}
	if p == "" {
		p = "/"
	}
	writeJSON(w, http.StatusOK, TreeResponse{Path: p, Nodes: nodes})
}

// Keywords handles GET /keywords.
//
//	@Summary		List indexed keywords
//	@Tags			keywords
//	@Produce		json
//	@Success		200	{object}	KeywordsResponse
//	@Router			/keywords [get]
func (h *Handler) Keywords(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Keywords(r.Context(), IsAuthenticated(r.Context()))
	if err != nil {
		writeError(w, "keywords", err)
		return
	}
	ambiguous := 0
	for _, it := range items {
		if it.IsAmbiguous {
			ambiguous++
		}
	}
	writeJSON(w, http.StatusOK, KeywordsResponse{Keywords: items, Total: len(items), Ambiguous: ambiguous})
}

// Duplicates handles GET /duplicates.
//
//	@Summary		List duplicate document titles
//	@Tags			keywords
//	@Produce		json
//	@Success		200	{object}	DuplicatesResponse
//	@Router			/duplicates [get]
func (h *Handler) Duplicates(w http.ResponseWriter, r *http.Request) {
	dups, err := h.svc.Duplicates(r.Context(), IsAuthenticated(r.Context()))
	if err != nil {
		writeError(w, "duplicates", err)
		return
	}
	writeJSON(w, http.StatusOK, DuplicatesResponse{Duplicates: dups})
}

// References handles GET /references/*.
//
//	@Summary		Resolve every [[Keyword]] in a document
//	@Tags			documents
//	@Produce		json
//	@Param			path	path		string	true	"Document path"
//	@Success		200		{object}	ReferencesResponse
//	@Failure		404		{object}	errResponse
//	@Router			/references/{path} [get]
func (h *Handler) References(w http.ResponseWriter, r *http.Request) {
	p := docPath(r)
	if p == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("path is required"))
		return
	}
	refs, err := h.svc.ResolveReferences(r.Context(), p, IsAuthenticated(r.Context()))
	if err != nil {
		writeError(w, "references", err)
		return
	}
	writeJSON(w, http.StatusOK, ReferencesResponse{Path: "/" + strings.Trim(p, "/"), References: refs})
}

// Referrers handles GET /referrers.
//
//	@Summary		List documents referencing a keyword
//	@Tags			keywords
//	@Produce		json
//	@Param			keyword	query		string	true	"Keyword"
//	@Success		200		{object}	ReferrersResponse
//	@Failure		400		{object}	errResponse
//	@Router			/referrers [get]
func (h *Handler) Referrers(w http.ResponseWriter, r *http.Request) {
	kw := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if kw == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("keyword is required"))
		return
	}
	refs, err := h.svc.Referrers(r.Context(), kw)
	if err != nil {
		writeError(w, "referrers", err)
		return
	}
	writeJSON(w, http.StatusOK, ReferrersResponse{Keyword: kw, Referrers: refs})
}

// BrokenReferences handles GET /broken-references.
func (h *Handler) BrokenReferences(w http.ResponseWriter, r *http.Request) {
	broken, err := h.svc.BrokenReferences(r.Context())
	if err != nil {
		writeError(w, "broken references", err)
		return
	}
	writeJSON(w, http.StatusOK, BrokenReferencesResponse{Documents: broken})
}

// CacheMetrics handles GET /cache/metrics.
func (h *Handler) CacheMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.CacheMetrics())
}

// ClearCache handles POST /cache/clear.
//
//	@Summary		Drop every cached tree and index
//	@Tags			cache
//	@Success		204
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/cache/clear [post]
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.svc.Invalidate(r.Context())
	if h.events != nil {
		h.events.Publish(sse.Event{Type: sse.TypeCacheCleared})
	}
	w.WriteHeader(http.StatusNoContent)
}

// KeywordStats handles GET /stats/keywords.
func (h *Handler) KeywordStats(w http.ResponseWriter, r *http.Request) {
	out, err := h.svc.KeywordStats(r.Context(), intParam(r, "limit", 20))
	if err != nil {
		writeError(w, "keyword stats", err)
		return
	}
	writeJSON(w, http.StatusOK, KeywordStatsResponse{Keywords: out})
}

// Errors handles GET /errors.
func (h *Handler) Errors(w http.ResponseWriter, r *http.Request) {
	recent, counts := h.svc.Errors(intParam(r, "limit", 50))
	writeJSON(w, http.StatusOK, ErrorsResponse{Errors: recent, Counts: counts})
}

// ResetDiagnostics handles POST /diagnostics/reset.
//
//	@Summary		Drop error reports and keyword lookup counters
//	@Tags			cache
//	@Success		204
//	@Failure		401	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/diagnostics/reset [post]
func (h *Handler) ResetDiagnostics(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ResetDiagnostics(r.Context()); err != nil {
		writeError(w, "reset diagnostics", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
