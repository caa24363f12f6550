// Package server provides the HTTP surface of the portfolio content service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/jfernandes/portfolio-content/backend"
	"github.com/jfernandes/portfolio-content/badge"
	"github.com/jfernandes/portfolio-content/content"
	"github.com/jfernandes/portfolio-content/feed"
	"github.com/jfernandes/portfolio-content/scheduler"
	"github.com/jfernandes/portfolio-content/telemetry"
)

// Config holds server configuration.
type Config struct {
	// Address to listen on (e.g., ":8080")
	Address string

	// DataDir is the root path for stored documents and uploads
	DataDir string

	// BadgeIdentity is the default badge-provider profile identity
	BadgeIdentity string

	// BadgeBaseURL overrides the badge provider base URL (optional)
	BadgeBaseURL string

	// BadgeTTL is how long a fetched badge batch stays fresh.
	// Zero uses the badge package default.
	BadgeTTL time.Duration

	// BadgeRulesPath is an optional YAML file overriding the built-in
	// classification rules.
	BadgeRulesPath string

	// FeedURL is the default article feed, used until a persisted
	// projects document carries its own.
	FeedURL string

	// AdminToken protects mutating endpoints when non-empty.
	// GET endpoints stay public.
	AdminToken string

	// CronSecret protects the scheduled-refresh trigger when non-empty.
	CronSecret string

	// SyncSchedule is a cron expression for the internal refresh job.
	// Empty disables internal scheduling.
	SyncSchedule string

	// Logger for the server
	Logger *slog.Logger
}

// Server is the portfolio content HTTP server.
type Server struct {
	config     Config
	httpServer *http.Server
	logger     *slog.Logger

	// Components
	backend  *backend.Filesystem
	store    *content.Store
	badges   *badge.Service
	badgeAPI *badge.Handler
	feeds    *feed.Service
	feedAPI  *feed.Handler
	jobs     *scheduler.Scheduler
	uploads  *uploadStore
}

// New creates a new server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Address == "" {
		cfg.Address = ":8080"
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}

	fsBackend, err := backend.NewFilesystem(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("creating filesystem backend: %w", err)
	}

	store := content.NewStore(fsBackend, content.WithLogger(cfg.Logger.With("component", "content")))

	badgeUpstreamOpts := []badge.UpstreamOption{}
	if cfg.BadgeBaseURL != "" {
		badgeUpstreamOpts = append(badgeUpstreamOpts, badge.WithBaseURL(cfg.BadgeBaseURL))
	}
	badgeServiceOpts := []badge.ServiceOption{
		badge.WithLogger(cfg.Logger.With("component", "badge")),
	}
	if cfg.BadgeTTL > 0 {
		badgeServiceOpts = append(badgeServiceOpts, badge.WithTTL(cfg.BadgeTTL))
	}
	if cfg.BadgeRulesPath != "" {
		rules, err := badge.LoadRules(cfg.BadgeRulesPath)
		if err != nil {
			return nil, fmt.Errorf("loading badge rules: %w", err)
		}
		badgeServiceOpts = append(badgeServiceOpts, badge.WithRules(rules))
	}
	badgeService := badge.NewService(badge.NewUpstream(badgeUpstreamOpts...), store, badgeServiceOpts...)
	badgeHandler := badge.NewHandler(badgeService, cfg.BadgeIdentity, cfg.Logger.With("component", "badge"))

	feedService := feed.NewService(
		feed.NewUpstream(),
		store,
		cfg.FeedURL,
		feed.WithLogger(cfg.Logger.With("component", "feed")),
	)
	feedHandler := feed.NewHandler(feedService, store, cfg.Logger.With("component", "feed"))

	s := &Server{
		config:   cfg,
		logger:   cfg.Logger,
		backend:  fsBackend,
		store:    store,
		badges:   badgeService,
		badgeAPI: badgeHandler,
		feeds:    feedService,
		feedAPI:  feedHandler,
		uploads:  newUploadStore(fsBackend, cfg.Logger.With("component", "uploads")),
	}

	if cfg.SyncSchedule != "" {
		s.jobs = scheduler.New(scheduler.WithLogger(cfg.Logger.With("component", "scheduler")))
		if err := s.jobs.Add("content-refresh", cfg.SyncSchedule, s.refreshAll); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.loggingMiddleware(s.authMiddleware(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// registerRoutes sets up the HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)

	// Prometheus metrics endpoint (returns 404 if not enabled)
	mux.Handle("GET /metrics", telemetry.PrometheusHandler())

	// Section documents
	mux.HandleFunc("GET /api/about", s.handleGetAbout)
	mux.HandleFunc("POST /api/about", s.handlePostAbout)
	mux.HandleFunc("GET /api/experience", s.handleGetExperience)
	mux.HandleFunc("POST /api/experience", s.handlePostExperience)
	mux.HandleFunc("POST /api/experience/sync", s.handleSyncExperience)

	// Certifications
	mux.HandleFunc("GET /api/certifications", s.badgeAPI.Get)
	mux.HandleFunc("POST /api/certifications/refresh", s.badgeAPI.Refresh)

	// Projects
	mux.HandleFunc("GET /api/projects", s.feedAPI.Get)
	mux.HandleFunc("POST /api/projects", s.feedAPI.Post)
	mux.HandleFunc("POST /api/projects/refresh", s.feedAPI.Refresh)

	// External cron trigger
	mux.HandleFunc("GET /api/cron/refresh", s.handleCronRefresh)

	// Uploads
	mux.HandleFunc("POST /api/profile-picture", s.handleUploadProfilePicture)
	mux.HandleFunc("GET /api/profile-picture", s.handleGetProfilePicture)
	mux.HandleFunc("GET /files/{name}", s.handleServeFile)
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// refreshAll runs the same refresh work as the cron endpoint: badges and
// articles, each failure logged and isolated from the other.
func (s *Server) refreshAll(ctx context.Context) error {
	var firstErr error

	if s.config.BadgeIdentity != "" {
		if _, err := s.badges.Certifications(ctx, s.config.BadgeIdentity, true); err != nil {
			s.logger.Error("badge refresh failed", "error", err)
			firstErr = err
		}
	}

	if _, _, err := s.feeds.Refresh(ctx); err != nil {
		s.logger.Error("feed refresh failed", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// loggingMiddleware logs HTTP requests with structured fields for analysis.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		// Inject request tags so handlers can set section, cache_result, etc.
		r = telemetry.InjectTags(r)
		tags := telemetry.GetTags(r)

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)

		attrs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"status_class", telemetry.StatusClass(wrapped.status),
			"bytes_sent", wrapped.bytesWritten,
			"duration_ms", duration.Milliseconds(),
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		}

		if tags.Section != "" {
			attrs = append(attrs, "section", tags.Section)
		}
		if tags.Endpoint != "" {
			attrs = append(attrs, "endpoint", tags.Endpoint)
		}
		if tags.CacheResult != "" {
			attrs = append(attrs, "cache_result", string(tags.CacheResult))
		}

		s.logger.Info("http request", attrs...)

		telemetry.RecordHTTP(r.Context(), r, tags.Section, wrapped.status, wrapped.bytesWritten, duration)
	})
}

// Start starts the server.
func (s *Server) Start() error {
	if s.jobs != nil {
		s.logger.Info("starting scheduler", "schedule", s.config.SyncSchedule)
		s.jobs.Start()
	}

	s.logger.Info("starting server", "address", s.config.Address)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	if s.jobs != nil {
		s.jobs.Stop()
	}

	return s.httpServer.Shutdown(ctx)
}

// Address returns the server's listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// responseWriter wraps http.ResponseWriter to capture the status code and
// bytes written.
type responseWriter struct {
	http.ResponseWriter
	status       int
	bytesWritten int64
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += int64(n)
	return n, err
}

// Unwrap returns the underlying ResponseWriter.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
