package content

import (
	"context"
	"time"
)

// Certification is a display-ready credential derived from an upstream badge.
type Certification struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Issuer      string    `json:"issuer"`
	IssuerURL   string    `json:"issuerUrl"`
	Date        string    `json:"date"`
	ExpiresAt   time.Time `json:"expiresAt,omitempty"`
	ImageURL    string    `json:"imageUrl"`
	Description string    `json:"description"`
	BadgeURL    string    `json:"badgeUrl"`
	Category    string    `json:"category"`
	Level       string    `json:"level"`
	Color       string    `json:"color"`
}

// CertificationSnapshot is the durable last-good badge batch, used as the
// fallback tier below the in-memory cache when the upstream is unreachable.
type CertificationSnapshot struct {
	LastUpdated    time.Time       `json:"lastUpdated"`
	Identity       string          `json:"identity"`
	Certifications []Certification `json:"certifications"`
}

// Certifications returns the persisted badge snapshot.
// Returns ErrNotFound when no batch has ever been persisted.
func (s *Store) Certifications(ctx context.Context) (*CertificationSnapshot, error) {
	var snap CertificationSnapshot
	if err := s.readDoc(ctx, certificationsKey, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SaveCertifications persists a wholesale replacement badge snapshot.
func (s *Store) SaveCertifications(ctx context.Context, identity string, certs []Certification) (*CertificationSnapshot, error) {
	snap := &CertificationSnapshot{
		LastUpdated:    s.now(),
		Identity:       identity,
		Certifications: certs,
	}
	if err := s.writeDoc(ctx, certificationsKey, snap); err != nil {
		return nil, err
	}
	return snap, nil
}
