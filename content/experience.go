package content

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ExperienceDocument holds the profile header, work history, and headline
// stats for the experience section.
type ExperienceDocument struct {
	LastUpdated time.Time       `json:"lastUpdated"`
	Profile     Profile         `json:"profile"`
	Experiences []Experience    `json:"experiences"`
	Stats       ExperienceStats `json:"stats"`
}

// Profile is the identity block shown above the work history.
type Profile struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Location string `json:"location"`
	Summary  string `json:"summary"`
}

// Experience is a single work-history entry. Entries with Current set are
// conventionally expected to have no EndDate; this is not enforced.
type Experience struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Company      string   `json:"company"`
	Location     string   `json:"location"`
	Type         string   `json:"type"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate,omitempty"`
	Current      bool     `json:"current"`
	Achievements []string `json:"achievements"`
	Technologies []string `json:"technologies"`
}

// ExperienceStats are the headline figures for the experience section.
type ExperienceStats struct {
	YearsExperience         string `json:"yearsExperience"`
	UsersSupported          string `json:"usersSupported"`
	UptimeAchieved          string `json:"uptimeAchieved"`
	ResponseTimeImprovement string `json:"responseTimeImprovement"`
}

// DefaultExperience returns the bootstrap experience document.
func DefaultExperience() *ExperienceDocument {
	return &ExperienceDocument{
		Profile: Profile{
			Name:     "Joyson Fernandes",
			Title:    "Cloud DevOps Engineer",
			Location: "London, UK",
			Summary:  "Passionate about automation, cloud architecture, and building efficient infrastructure solutions.",
		},
		Experiences: []Experience{},
		Stats: ExperienceStats{
			YearsExperience:         "0",
			UsersSupported:          "0",
			UptimeAchieved:          "0%",
			ResponseTimeImprovement: "0%",
		},
	}
}

// Experience returns the current experience document, falling back to
// defaults when none has been persisted yet.
func (s *Store) Experience(ctx context.Context) (*ExperienceDocument, error) {
	var doc ExperienceDocument
	err := s.readDoc(ctx, experienceKey, &doc)
	if errors.Is(err, ErrNotFound) {
		return DefaultExperience(), nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveExperience validates and persists a full replacement experience
// document, stamping lastUpdated. An absent profile or stats block is filled
// from the defaults so external sync callers may send experiences alone.
func (s *Store) SaveExperience(ctx context.Context, doc *ExperienceDocument) (*ExperienceDocument, error) {
	if doc.Experiences == nil {
		return nil, fmt.Errorf("%w: experiences must be an array", ErrValidation)
	}

	saved := *doc
	defaults := DefaultExperience()
	if saved.Profile == (Profile{}) {
		saved.Profile = defaults.Profile
	}
	if saved.Stats == (ExperienceStats{}) {
		saved.Stats = defaults.Stats
	}
	saved.LastUpdated = s.now()

	if err := s.writeDoc(ctx, experienceKey, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}
