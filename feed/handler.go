package feed

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jfernandes/portfolio-content/content"
	"github.com/jfernandes/portfolio-content/telemetry"
)

// Handler exposes the projects endpoints.
type Handler struct {
	service *Service
	store   *content.Store
	logger  *slog.Logger
}

// NewHandler creates the projects HTTP handler.
func NewHandler(service *Service, store *content.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, store: store, logger: logger}
}

// Get handles GET /api/projects: the current document with the combined view
// freshly recomputed.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "projects")
	telemetry.SetEndpoint(r, "list")

	doc, err := h.store.Projects(r.Context())
	if err != nil {
		h.logger.Error("reading projects document failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load projects")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Post handles POST /api/projects: a full replacement document from the
// admin surface.
func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "projects")
	telemetry.SetEndpoint(r, "update")

	var doc content.ProjectCollection
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := h.store.SaveProjects(r.Context(), &doc)
	if err != nil {
		if errors.Is(err, content.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("saving projects document failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save projects")
		return
	}
	telemetry.RecordDocumentWrite(r.Context(), "projects")

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": saved})
}

// Refresh handles POST /api/projects/refresh: re-ingest the feed.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "projects")
	telemetry.SetEndpoint(r, "refresh")

	saved, count, err := h.service.Refresh(r.Context())
	if err != nil {
		h.logger.Error("feed refresh failed", "error", err)
		fallback := false
		if doc, readErr := h.store.Projects(r.Context()); readErr == nil {
			fallback = doc.Settings.FallbackToManual
		}
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"success":      false,
			"error":        "failed to refresh projects from feed",
			"fallbackUsed": fallback,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"message":         "projects refreshed from feed",
		"syndicatedCount": count,
		"data":            saved,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
