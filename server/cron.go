package server

import (
	"net/http"
	"time"

	"github.com/jfernandes/portfolio-content/telemetry"
)

// handleCronRefresh is the trigger endpoint for external cron services. It
// runs badge and article refresh in sequence; one source failing does not
// stop the other, and the per-source outcome is reported in the body.
func (s *Server) handleCronRefresh(w http.ResponseWriter, r *http.Request) {
	telemetry.SetSection(r, "cron")
	telemetry.SetEndpoint(r, "refresh")

	if s.config.CronSecret != "" && !bearerMatch(r, s.config.CronSecret) {
		unauthorizedResponse(w)
		return
	}

	ctx := r.Context()
	results := map[string]any{}

	if s.config.BadgeIdentity != "" {
		if res, err := s.badges.Certifications(ctx, s.config.BadgeIdentity, true); err != nil {
			s.logger.Error("cron badge refresh failed", "error", err)
			results["certifications"] = map[string]any{"success": false, "error": "refresh failed"}
		} else {
			results["certifications"] = map[string]any{"success": true, "count": len(res.Certifications)}
		}
	} else {
		results["certifications"] = map[string]any{"success": false, "error": "no badge identity configured"}
	}

	if _, count, err := s.feeds.Refresh(ctx); err != nil {
		s.logger.Error("cron feed refresh failed", "error", err)
		results["projects"] = map[string]any{"success": false, "error": "refresh failed"}
	} else {
		results["projects"] = map[string]any{"success": true, "count": count}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"results":   results,
	})
}
