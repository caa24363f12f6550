// Package content implements the durable JSON document store backing each
// editable section of the portfolio site.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jfernandes/portfolio-content/backend"
)

// Section document keys within the backend.
const (
	aboutKey          = "about.json"
	experienceKey     = "experience.json"
	projectsKey       = "projects.json"
	certificationsKey = "certifications.json"
)

// ErrNotFound is returned when a section document does not exist.
// Most read paths never surface it: absent documents read as defaults.
var ErrNotFound = backend.ErrNotFound

// ErrValidation is returned when a document fails required-field checks.
// Nothing is persisted when validation fails.
var ErrValidation = errors.New("validation failed")

// Store persists section documents as whole-document JSON replacements.
// Concurrent writers to the same section are not serialized: last write wins.
// The atomic-replace discipline of the backend guarantees readers never see a
// partially written document.
type Store struct {
	backend backend.Backend
	logger  *slog.Logger
	now     func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for the store.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates a store over the given backend.
func NewStore(b backend.Backend, opts ...StoreOption) *Store {
	s := &Store{
		backend: b,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// readDoc unmarshals the document at key into out.
// Returns ErrNotFound when the document does not exist yet.
func (s *Store) readDoc(ctx context.Context, key string, out any) error {
	data, err := s.backend.Read(ctx, key)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s: %w", key, err)
	}
	return nil
}

// writeDoc marshals doc and atomically replaces the document at key.
func (s *Store) writeDoc(ctx context.Context, key string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := s.backend.Write(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	s.logger.Debug("document written", "key", key, "bytes", len(data))
	return nil
}
