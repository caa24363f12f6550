package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AboutDocument holds the editable about-section content.
type AboutDocument struct {
	LastUpdated  time.Time     `json:"lastUpdated"`
	SectionTitle string        `json:"sectionTitle"`
	Subtitle     string        `json:"subtitle"`
	MainTitle    string        `json:"mainTitle"`
	Paragraphs   []string      `json:"paragraphs"`
	Stats        []AboutStat   `json:"stats"`
	Highlights   []AboutDetail `json:"highlights"`
}

// AboutStat is a single headline figure shown in the about section.
type AboutStat struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AboutDetail is a titled highlight card in the about section.
type AboutDetail struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DefaultAbout returns the bootstrap about content served before any edit
// has been persisted.
func DefaultAbout() *AboutDocument {
	return &AboutDocument{
		SectionTitle: "About Me",
		Subtitle:     "A dedicated Cloud DevOps Engineer with a passion for building robust, scalable infrastructure solutions and automating complex workflows.",
		MainTitle:    "Transforming Ideas into Infrastructure",
		Paragraphs: []string{
			"I specialize in creating seamless, automated cloud solutions that drive business growth and operational efficiency, with deep expertise in the AWS and Azure ecosystems.",
			"My approach combines technical excellence with collaborative problem-solving, focusing on Infrastructure as Code, containerization, and continuous integration and deployment pipelines.",
		},
		Stats: []AboutStat{
			{Value: "5+", Label: "Years Experience"},
			{Value: "11+", Label: "Certifications"},
			{Value: "3", Label: "Cloud Platforms"},
			{Value: "50+", Label: "Projects Delivered"},
		},
		Highlights: []AboutDetail{
			{Title: "Cloud Architecture", Description: "Expert in AWS, Azure, and GCP cloud platforms with focus on scalable solutions."},
			{Title: "Infrastructure as Code", Description: "Proficient in Terraform, CloudFormation, and Ansible for automation."},
			{Title: "DevOps Excellence", Description: "CI/CD pipelines, containerization, and modern deployment strategies."},
			{Title: "Team Collaboration", Description: "Strong communication skills and experience in cross-functional teams."},
		},
	}
}

// About returns the current about document, falling back to defaults when
// none has been persisted yet.
func (s *Store) About(ctx context.Context) (*AboutDocument, error) {
	var doc AboutDocument
	err := s.readDoc(ctx, aboutKey, &doc)
	if errors.Is(err, ErrNotFound) {
		return DefaultAbout(), nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// SaveAbout validates and persists a full replacement about document.
// Validation failures return ErrValidation before anything touches storage.
func (s *Store) SaveAbout(ctx context.Context, doc *AboutDocument) (*AboutDocument, error) {
	if err := validateAbout(doc); err != nil {
		return nil, err
	}

	saved := *doc
	saved.SectionTitle = strings.TrimSpace(saved.SectionTitle)
	saved.Subtitle = strings.TrimSpace(saved.Subtitle)
	saved.MainTitle = strings.TrimSpace(saved.MainTitle)
	saved.Paragraphs = trimNonEmpty(saved.Paragraphs)
	if saved.Stats == nil {
		saved.Stats = DefaultAbout().Stats
	}
	if saved.Highlights == nil {
		saved.Highlights = DefaultAbout().Highlights
	}
	saved.LastUpdated = s.now()

	if err := s.writeDoc(ctx, aboutKey, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

func validateAbout(doc *AboutDocument) error {
	if strings.TrimSpace(doc.SectionTitle) == "" {
		return fmt.Errorf("%w: sectionTitle is required", ErrValidation)
	}
	if strings.TrimSpace(doc.Subtitle) == "" {
		return fmt.Errorf("%w: subtitle is required", ErrValidation)
	}
	if strings.TrimSpace(doc.MainTitle) == "" {
		return fmt.Errorf("%w: mainTitle is required", ErrValidation)
	}
	if len(doc.Paragraphs) == 0 {
		return fmt.Errorf("%w: paragraphs must be a non-empty array", ErrValidation)
	}
	return nil
}

func trimNonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.TrimSpace(s); t != "" {
			out = append(out, t)
		}
	}
	return out
}
