package content

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ProjectType distinguishes feed-derived projects from hand-entered ones.
type ProjectType string

const (
	// ProjectSyndicated marks a project derived from the article feed.
	ProjectSyndicated ProjectType = "syndicated"
	// ProjectManual marks a hand-entered project.
	ProjectManual ProjectType = "manual"
)

// Project is a single portfolio project card, either derived from a feed
// article or entered manually.
type Project struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Image          string      `json:"image"`
	Technologies   []string    `json:"technologies"`
	Icon           string      `json:"icon"`
	Color          string      `json:"color"`
	SourceURL      string      `json:"sourceUrl,omitempty"`
	Highlights     []string    `json:"highlights"`
	Type           ProjectType `json:"type"`
	Featured       bool        `json:"featured"`
	PublishedDate  time.Time   `json:"publishedDate"`
	Categories     []string    `json:"categories,omitempty"`
	ContentSnippet string      `json:"contentSnippet,omitempty"`
}

// ProjectSettings controls how the combined project view is assembled.
type ProjectSettings struct {
	AutoSync         bool `json:"autoSync"`
	MaxItems         int  `json:"maxItems"`
	FallbackToManual bool `json:"fallbackToManual"`
	IncludeManual    bool `json:"includeManual"`
}

// ProjectCollection is the persisted projects document. CombinedItems is a
// derived view and is recomputed on every read and write, never hand-edited.
type ProjectCollection struct {
	LastUpdated     time.Time       `json:"lastUpdated"`
	SourceFeedURL   string          `json:"sourceFeedUrl"`
	Settings        ProjectSettings `json:"settings"`
	SyndicatedItems []Project       `json:"syndicatedItems"`
	ManualItems     []Project       `json:"manualItems"`
	CombinedItems   []Project       `json:"combinedItems"`
}

// DefaultProjects returns the bootstrap projects document.
func DefaultProjects(feedURL string) *ProjectCollection {
	return &ProjectCollection{
		SourceFeedURL: feedURL,
		Settings: ProjectSettings{
			AutoSync:         true,
			MaxItems:         10,
			FallbackToManual: true,
			IncludeManual:    true,
		},
		SyndicatedItems: []Project{},
		ManualItems:     []Project{},
		CombinedItems:   []Project{},
	}
}

// RecomputeCombined rebuilds the combined view: manual items (when included)
// plus syndicated items, sorted by featured status then published date
// descending, truncated to MaxItems.
func (pc *ProjectCollection) RecomputeCombined() {
	combined := make([]Project, 0, len(pc.ManualItems)+len(pc.SyndicatedItems))
	if pc.Settings.IncludeManual {
		combined = append(combined, pc.ManualItems...)
	}
	combined = append(combined, pc.SyndicatedItems...)

	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].Featured != combined[j].Featured {
			return combined[i].Featured
		}
		return combined[i].PublishedDate.After(combined[j].PublishedDate)
	})

	max := pc.Settings.MaxItems
	if max <= 0 {
		max = 10
	}
	if len(combined) > max {
		combined = combined[:max]
	}
	pc.CombinedItems = combined
}

// Projects returns the current projects document with the combined view
// freshly recomputed, falling back to defaults when none has been persisted.
func (s *Store) Projects(ctx context.Context) (*ProjectCollection, error) {
	var doc ProjectCollection
	err := s.readDoc(ctx, projectsKey, &doc)
	if errors.Is(err, ErrNotFound) {
		return DefaultProjects(""), nil
	}
	if err != nil {
		return nil, err
	}
	doc.RecomputeCombined()
	return &doc, nil
}

// SaveProjects persists a full replacement projects document, stamping
// lastUpdated and recomputing the combined view before the write.
func (s *Store) SaveProjects(ctx context.Context, doc *ProjectCollection) (*ProjectCollection, error) {
	if err := validateProjects(doc); err != nil {
		return nil, err
	}

	saved := *doc
	if saved.SyndicatedItems == nil {
		saved.SyndicatedItems = []Project{}
	}
	if saved.ManualItems == nil {
		saved.ManualItems = []Project{}
	}
	saved.RecomputeCombined()
	saved.LastUpdated = s.now()

	if err := s.writeDoc(ctx, projectsKey, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func validateProjects(doc *ProjectCollection) error {
	for _, p := range doc.ManualItems {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("%w: manual project title is required", ErrValidation)
		}
	}
	return nil
}
