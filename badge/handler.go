package badge

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/jfernandes/portfolio-content/telemetry"
)

// Handler exposes the certification endpoints.
type Handler struct {
	service         *Service
	defaultIdentity string
	logger          *slog.Logger
}

// NewHandler creates the certification HTTP handler. defaultIdentity is used
// when no identity query parameter is supplied.
func NewHandler(service *Service, defaultIdentity string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, defaultIdentity: defaultIdentity, logger: logger}
}

// certResponse is the JSON envelope for certification reads.
type certResponse struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Count       int    `json:"count"`
	LastUpdated string `json:"lastUpdated,omitempty"`
	Cached      bool   `json:"cached"`
	Warning     string `json:"warning,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Get handles GET /api/certifications?identity=&refresh=true.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "certifications")
	telemetry.SetEndpoint(r, "list")

	identity := r.URL.Query().Get("identity")
	if identity == "" {
		identity = h.defaultIdentity
	}
	force := r.URL.Query().Get("refresh") == "true"
	if force {
		telemetry.SetCacheResult(r, telemetry.CacheBypass)
	}

	res, err := h.service.Certifications(r.Context(), identity, force)
	if err != nil {
		h.logger.Error("certification fetch failed with no fallback", "identity", identity, "error", err)
		writeJSON(w, http.StatusBadGateway, certResponse{
			Success: false,
			Error:   "failed to fetch certifications",
		})
		return
	}

	switch {
	case res.Stale:
		telemetry.SetCacheResult(r, telemetry.CacheStale)
	case res.Cached:
		telemetry.SetCacheResult(r, telemetry.CacheHit)
	default:
		telemetry.SetCacheResult(r, telemetry.CacheMiss)
	}

	resp := certResponse{
		Success:     true,
		Data:        res.Certifications,
		Count:       len(res.Certifications),
		LastUpdated: res.LastUpdated.Format(time.RFC3339),
		Cached:      res.Cached,
	}
	if res.Stale {
		resp.Warning = "serving cached data, upstream unavailable"
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /api/certifications/refresh: it invalidates the cache
// entry and re-runs ingestion.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "certifications")
	telemetry.SetEndpoint(r, "refresh")
	telemetry.SetCacheResult(r, telemetry.CacheBypass)

	identity := r.URL.Query().Get("identity")
	if identity == "" {
		identity = h.defaultIdentity
	}

	h.service.Invalidate(identity)

	res, err := h.service.Certifications(r.Context(), identity, true)
	if err != nil {
		h.logger.Error("certification refresh failed", "identity", identity, "error", err)
		writeJSON(w, http.StatusBadGateway, certResponse{
			Success: false,
			Error:   "failed to refresh certifications",
		})
		return
	}

	writeJSON(w, http.StatusOK, certResponse{
		Success:     true,
		Data:        res.Certifications,
		Count:       len(res.Certifications),
		LastUpdated: res.LastUpdated.Format(time.RFC3339),
		Cached:      res.Cached,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
