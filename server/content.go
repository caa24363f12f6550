package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jfernandes/portfolio-content/content"
	"github.com/jfernandes/portfolio-content/telemetry"
)

func (s *Server) handleGetAbout(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "about")
	telemetry.SetEndpoint(r, "get")

	doc, err := s.store.About(r.Context())
	if err != nil {
		s.logger.Error("reading about document failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load about content")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePostAbout(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "about")
	telemetry.SetEndpoint(r, "update")

	var doc content.AboutDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.store.SaveAbout(r.Context(), &doc)
	if err != nil {
		if errors.Is(err, content.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("saving about document failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save about content")
		return
	}
	telemetry.RecordDocumentWrite(r.Context(), "about")

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": saved})
}

func (s *Server) handleGetExperience(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "experience")
	telemetry.SetEndpoint(r, "get")

	doc, err := s.store.Experience(r.Context())
	if err != nil {
		s.logger.Error("reading experience document failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load experience content")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handlePostExperience(w http.ResponseWriter, r *http.Request) {
	telemetry.SetEndpoint(r, "update")
	s.saveExperience(w, r)
}

// handleSyncExperience accepts the same full-document replacement as the
// plain POST; the admin surface pushes its local copy through this route.
func (s *Server) handleSyncExperience(w http.ResponseWriter, r *http.Request) {
	telemetry.SetEndpoint(r, "sync")
	s.saveExperience(w, r)
}

func (s *Server) saveExperience(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "experience")

	var doc content.ExperienceDocument
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, err := s.store.SaveExperience(r.Context(), &doc)
	if err != nil {
		if errors.Is(err, content.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("saving experience document failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save experience content")
		return
	}
	telemetry.RecordDocumentWrite(r.Context(), "experience")

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": saved})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}
