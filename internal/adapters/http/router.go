package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kirillkom/bookmark-search/internal/config"
	"github.com/kirillkom/bookmark-search/internal/core/domain"
	"github.com/kirillkom/bookmark-search/internal/core/ports"
)

const serviceName = "api"

// MetricsRecorder is the slice of metrics.HTTPServerMetrics the router needs.
type MetricsRecorder interface {
	Handler() http.Handler
	Middleware(service string, next http.Handler) http.Handler
	RecordSearch(service, endpoint, mode, outcome string, resultCount int, duration time.Duration)
	RecordChannelCandidates(service, channel string, count int)
	RecordRejected(service, reason string)
}

type Router struct {
	cfg           config.Config
	search        ports.SearchService
	embeddings    ports.BookmarkEmbeddingScheduler
	metrics       MetricsRecorder
	breakerStates func() map[string]string
	logger        *slog.Logger
}

type RouterOption func(*Router)

func WithMetrics(m MetricsRecorder) RouterOption {
	return func(rt *Router) { rt.metrics = m }
}

// WithBreakerStates exposes circuit breaker states on /healthz.
func WithBreakerStates(fn func() map[string]string) RouterOption {
	return func(rt *Router) { rt.breakerStates = fn }
}

func WithLogger(logger *slog.Logger) RouterOption {
	return func(rt *Router) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

func NewRouter(
	cfg config.Config,
	search ports.SearchService,
	embeddings ports.BookmarkEmbeddingScheduler,
	opts ...RouterOption,
) *Router {
	rt := &Router{
		cfg:        cfg,
		search:     search,
		embeddings: embeddings,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	api := http.NewServeMux()
	api.HandleFunc("POST /v1/search", rt.searchBookmarks)
	api.HandleFunc("GET /v1/search/similar/{bookmarkId}", rt.findSimilar)
	api.HandleFunc("POST /v1/bookmarks/{bookmarkId}/embedding", rt.requestEmbedding)

	var guarded http.Handler = api
	if rt.cfg.APIRequestValidationEnabled {
		validator, err := newRequestValidator()
		if err != nil {
			rt.logger.Error("openapi_validator_disabled", "error", err)
		} else {
			guarded = validator.middleware(guarded)
		}
	}
	guarded = backpressureMiddleware(
		guarded,
		rt.cfg.APIBackpressureMaxInFlight,
		time.Duration(rt.cfg.APIBackpressureWaitMS)*time.Millisecond,
		rt.rejectHook("backpressure"),
	)
	guarded = rateLimitMiddleware(guarded, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst, rt.rejectHook("rate_limit"))
	mux.Handle("/v1/", guarded)

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(rt.logger, handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) rejectHook(reason string) func() {
	if rt.metrics == nil {
		return nil
	}
	return func() { rt.metrics.RecordRejected(serviceName, reason) }
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if rt.breakerStates != nil {
		states := rt.breakerStates()
		body["breakers"] = states
		for _, state := range states {
			if state == "open" {
				body["status"] = "degraded"
				break
			}
		}
	}
	writeJSON(w, http.StatusOK, body)
}

type searchRequest struct {
	Query        string     `json:"query"`
	Limit        int        `json:"limit"`
	MinimumScore *float64   `json:"minimum_score"`
	FromDate     *time.Time `json:"from_date"`
	ToDate       *time.Time `json:"to_date"`
	Domain       string     `json:"domain"`
	Mode         string     `json:"mode"`
}

const defaultMinimumScore = 0.5

func (rt *Router) searchBookmarks(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode search request", err))
		return
	}
	minimumScore := defaultMinimumScore
	if req.MinimumScore != nil {
		minimumScore = *req.MinimumScore
	}

	resp, err := rt.search.Search(r.Context(), userID, domain.SearchQuery{
		Text:         req.Query,
		Limit:        req.Limit,
		MinimumScore: minimumScore,
		Filter: domain.SearchFilter{
			FromDate: req.FromDate,
			ToDate:   req.ToDate,
			Domain:   req.Domain,
		},
		Mode: domain.SearchMode(req.Mode),
	})
	rt.observeSearch("search", req.Mode, resp, err, time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) findSimilar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	bookmarkID, err := bookmarkIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	limit, err := limitParam(r)
	if err != nil {
		writeError(w, err)
		return
	}

	resp, err := rt.search.FindSimilar(r.Context(), userID, bookmarkID, limit)
	rt.observeSearch("similar", string(domain.SearchModeVector), resp, err, time.Since(start))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) requestEmbedding(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	bookmarkID, err := bookmarkIDParam(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := rt.embeddings.Enqueue(r.Context(), userID, bookmarkID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"bookmark_id": bookmarkID, "status": "queued"})
}

func (rt *Router) observeSearch(endpoint, requestedMode string, resp *domain.SearchResponse, err error, elapsed time.Duration) {
	if rt.metrics == nil {
		return
	}
	if err != nil {
		rt.metrics.RecordSearch(serviceName, endpoint, modeLabel(requestedMode), domain.ErrorCategory(err), 0, elapsed)
		return
	}
	rt.metrics.RecordSearch(serviceName, endpoint, string(resp.Mode), "ok", resp.TotalResults, elapsed)
	switch resp.Mode {
	case domain.SearchModeVector:
		rt.metrics.RecordChannelCandidates(serviceName, "vector", resp.VectorResultCount)
	case domain.SearchModeKeyword:
		rt.metrics.RecordChannelCandidates(serviceName, "keyword", resp.KeywordResultCount)
	default:
		rt.metrics.RecordChannelCandidates(serviceName, "vector", resp.VectorResultCount)
		rt.metrics.RecordChannelCandidates(serviceName, "keyword", resp.KeywordResultCount)
	}
}

// modeLabel keeps the metric label set bounded for client-supplied modes.
func modeLabel(raw string) string {
	mode, err := domain.ParseSearchMode(raw)
	switch {
	case err != nil:
		return "invalid"
	case mode == "":
		return "default"
	default:
		return string(mode)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
