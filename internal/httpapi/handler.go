// Package httpapi exposes the scanner over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/phishguard/internal/common"
	"github.com/dmitrijs2005/phishguard/internal/logging"
	"github.com/dmitrijs2005/phishguard/internal/models"
	"github.com/dmitrijs2005/phishguard/internal/policy"
	"github.com/dmitrijs2005/phishguard/internal/scanner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Scanner interface {
	Scan(ctx context.Context, url string) (models.Outcome, error)
	ScanLinks(ctx context.Context, req scanner.LinkRequest) ([]models.LinkVerdict, error)
	AcceptRisk(ctx context.Context, url string) error
	History(ctx context.Context) (models.ScanData, error)
	Quota(ctx context.Context) (used, limit int, err error)
	ResetQuota(ctx context.Context) error
	Features() []policy.Feature
}

// Pinger checks that the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Events yields pending notifications for polling clients.
type Events interface {
	Drain() []scanner.Event
}

type Handler struct {
	scanner Scanner
	events  Events
	store   Pinger
	logger  logging.Logger
}

// NewHandler builds the API. store may be nil, in which case /healthz only
// reports that the process is up.
func NewHandler(s Scanner, events Events, store Pinger, logger logging.Logger) *Handler {
	return &Handler{scanner: s, events: events, store: store, logger: logger}
}

// Routes mounts every endpoint on a new router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.healthz)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/scans", h.scan)
		r.Post("/links", h.links)
		r.Post("/accepted-risks", h.acceptRisk)
		r.Get("/scan-data", h.scanData)
		r.Get("/features", h.features)
		r.Get("/quota", h.quota)
		r.Post("/quota/reset", h.resetQuota)
		r.Get("/events", h.drainEvents)
	})
	return r
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type urlRequest struct {
	URL string `json:"url"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn(r.Context(), "health check failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) features(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]policy.Feature{"features": h.scanner.Features()})
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := h.scanner.Scan(r.Context(), req.URL)
	if errors.Is(err, common.ErrQuotaExceeded) {
		writeJSON(w, http.StatusPaymentRequired, out)
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) links(w http.ResponseWriter, r *http.Request) {
	var req scanner.LinkRequest
	if !decode(w, r, &req) {
		return
	}
	verdicts, err := h.scanner.ScanLinks(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if verdicts == nil {
		verdicts = []models.LinkVerdict{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"links": verdicts})
}

func (h *Handler) acceptRisk(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.scanner.AcceptRisk(r.Context(), req.URL); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) scanData(w http.ResponseWriter, r *http.Request) {
	data, err := h.scanner.History(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (h *Handler) quota(w http.ResponseWriter, r *http.Request) {
	used, limit, err := h.scanner.Quota(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"used": used, "limit": limit})
}

func (h *Handler) resetQuota(w http.ResponseWriter, r *http.Request) {
	if err := h.scanner.ResetQuota(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) drainEvents(w http.ResponseWriter, r *http.Request) {
	events := h.events.Drain()
	if events == nil {
		events = []scanner.Event{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
		writeJSON(w, status, errorBody{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidURL), errors.Is(err, common.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrQuotaExceeded):
		return http.StatusPaymentRequired
	case errors.Is(err, common.ErrFeatureNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
