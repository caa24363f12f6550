package content

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jfernandes/portfolio-content/backend"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	b, err := backend.NewFilesystem(t.TempDir())
	require.NoError(t, err)
	return NewStore(b)
}

func TestAboutDefaultsOnFirstRead(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.About(context.Background())
	require.NoError(t, err)
	require.Equal(t, "About Me", doc.SectionTitle)
	require.NotEmpty(t, doc.Paragraphs)
}

func TestSaveAboutRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := DefaultAbout()
	in.SectionTitle = "  Who I Am  "
	in.Paragraphs = []string{" first ", "", "second"}

	saved, err := s.SaveAbout(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "Who I Am", saved.SectionTitle)
	require.Equal(t, []string{"first", "second"}, saved.Paragraphs)
	require.False(t, saved.LastUpdated.IsZero())

	got, err := s.About(ctx)
	require.NoError(t, err)
	require.Equal(t, "Who I Am", got.SectionTitle)
}

func TestSaveAboutMissingSubtitle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Seed a valid document first
	prior := DefaultAbout()
	prior.SectionTitle = "Prior"
	_, err := s.SaveAbout(ctx, prior)
	require.NoError(t, err)

	bad := DefaultAbout()
	bad.SectionTitle = "New"
	bad.Subtitle = ""
	_, err = s.SaveAbout(ctx, bad)
	require.ErrorIs(t, err, ErrValidation)

	// The failed write must leave the prior document untouched
	got, err := s.About(ctx)
	require.NoError(t, err)
	require.Equal(t, "Prior", got.SectionTitle)
}

func TestSaveAboutEmptyParagraphs(t *testing.T) {
	s := newTestStore(t)

	bad := DefaultAbout()
	bad.Paragraphs = nil
	_, err := s.SaveAbout(context.Background(), bad)
	require.ErrorIs(t, err, ErrValidation)
}

func TestExperienceDefaultsOnFirstRead(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Experience(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, doc.Profile.Name)
	require.Empty(t, doc.Experiences)
}

func TestSaveExperienceFillsDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	saved, err := s.SaveExperience(ctx, &ExperienceDocument{
		Experiences: []Experience{{ID: "exp-1", Title: "Engineer", Company: "Acme", Current: true}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, saved.Profile.Name)
	require.NotEmpty(t, saved.Stats.YearsExperience)
	require.False(t, saved.LastUpdated.IsZero())

	got, err := s.Experience(ctx)
	require.NoError(t, err)
	require.Len(t, got.Experiences, 1)
	require.Equal(t, "Acme", got.Experiences[0].Company)
}

func TestSaveExperienceRequiresArray(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveExperience(context.Background(), &ExperienceDocument{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestProjectsDefaultsOnFirstRead(t *testing.T) {
	s := newTestStore(t)

	doc, err := s.Projects(context.Background())
	require.NoError(t, err)
	require.True(t, doc.Settings.IncludeManual)
	require.Equal(t, 10, doc.Settings.MaxItems)
	require.Empty(t, doc.CombinedItems)
}

func TestCombinedViewOrderingAndTruncation(t *testing.T) {
	d1 := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	pc := &ProjectCollection{
		Settings: ProjectSettings{MaxItems: 2, IncludeManual: true},
		SyndicatedItems: []Project{
			{ID: "syndicated-a", Title: "A", Type: ProjectSyndicated, PublishedDate: d1},
			{ID: "syndicated-b", Title: "B", Type: ProjectSyndicated, PublishedDate: d2},
		},
		ManualItems: []Project{
			{ID: "manual-1", Title: "M", Type: ProjectManual, Featured: true, PublishedDate: d2},
		},
	}

	pc.RecomputeCombined()

	require.Len(t, pc.CombinedItems, 2)
	require.Equal(t, "manual-1", pc.CombinedItems[0].ID)
	require.Equal(t, "syndicated-a", pc.CombinedItems[1].ID)
}

func TestCombinedViewExcludesManual(t *testing.T) {
	pc := DefaultProjects("")
	pc.Settings.IncludeManual = false
	pc.ManualItems = []Project{{ID: "manual-1", Title: "M", Type: ProjectManual}}
	pc.SyndicatedItems = []Project{{ID: "syndicated-a", Title: "A", Type: ProjectSyndicated}}

	pc.RecomputeCombined()

	require.Len(t, pc.CombinedItems, 1)
	require.Equal(t, "syndicated-a", pc.CombinedItems[0].ID)
}

func TestSaveProjectsRecomputesCombined(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	doc := DefaultProjects("https://medium.com/feed/@someone")
	doc.ManualItems = []Project{{ID: "manual-1", Title: "M", Type: ProjectManual}}
	// A hand-edited combined view must be discarded
	doc.CombinedItems = []Project{{ID: "bogus"}}

	saved, err := s.SaveProjects(ctx, doc)
	require.NoError(t, err)
	require.Len(t, saved.CombinedItems, 1)
	require.Equal(t, "manual-1", saved.CombinedItems[0].ID)

	got, err := s.Projects(ctx)
	require.NoError(t, err)
	require.Len(t, got.CombinedItems, 1)
	require.Equal(t, "manual-1", got.CombinedItems[0].ID)
}

func TestSaveProjectsValidatesManualTitles(t *testing.T) {
	s := newTestStore(t)

	doc := DefaultProjects("")
	doc.ManualItems = []Project{{ID: "manual-1", Title: "  "}}
	_, err := s.SaveProjects(context.Background(), doc)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCertificationsSnapshotRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Certifications(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	certs := []Certification{{ID: "badge-1", Name: "AWS Certified Cloud Practitioner", Issuer: "Amazon Web Services"}}
	snap, err := s.SaveCertifications(ctx, "jfernandes", certs)
	require.NoError(t, err)
	require.False(t, snap.LastUpdated.IsZero())

	got, err := s.Certifications(ctx)
	require.NoError(t, err)
	require.Equal(t, "jfernandes", got.Identity)
	require.Len(t, got.Certifications, 1)
}
