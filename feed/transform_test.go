package feed

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"

	"github.com/jfernandes/portfolio-content/content"
)

func testItem() *gofeed.Item {
	published := time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC)
	return &gofeed.Item{
		GUID:            "https://blog.example.com/p/12345",
		Title:           "Deploying with AWS Lambda and Docker",
		Link:            "https://blog.example.com/posts/lambda-docker",
		Categories:      []string{"Kubernetes"},
		Content:         `<p>We moved the pipeline to AWS Lambda and Docker. The rollout cut deploy time in half.</p>`,
		PublishedParsed: &published,
	}
}

func TestTransformBasics(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	p, ok := Transform(testItem(), now)
	require.True(t, ok)

	require.Equal(t, "syndicated-12345", p.ID)
	require.Equal(t, "Deploying with AWS Lambda and Docker", p.Title)
	require.Equal(t, "https://blog.example.com/posts/lambda-docker", p.SourceURL)
	require.Equal(t, content.ProjectSyndicated, p.Type)
	require.False(t, p.Featured)
	require.Equal(t, time.Date(2024, 3, 12, 9, 0, 0, 0, time.UTC), p.PublishedDate)
}

func TestTransformSkipsItemsWithoutTitleOrLink(t *testing.T) {
	now := time.Now()

	_, ok := Transform(&gofeed.Item{Link: "https://example.com/x"}, now)
	require.False(t, ok)

	_, ok = Transform(&gofeed.Item{Title: "No link"}, now)
	require.False(t, ok)

	_, ok = Transform(nil, now)
	require.False(t, ok)
}

func TestTransformTechnologiesCategoriesFirst(t *testing.T) {
	p, ok := Transform(testItem(), time.Now())
	require.True(t, ok)

	// Kubernetes comes from the category tag and leads despite AWS, Lambda
	// and Docker all appearing earlier in the vocabulary scan of the body.
	require.Equal(t, []string{"Kubernetes", "AWS", "Docker", "Lambda"}, p.Technologies)
}

func TestTransformTechnologiesCapped(t *testing.T) {
	item := testItem()
	item.Categories = nil
	item.Content = "AWS Azure GCP Docker Kubernetes Jenkins Terraform Ansible Python"

	p, ok := Transform(item, time.Now())
	require.True(t, ok)
	require.Len(t, p.Technologies, maxTechnologies)
}

func TestTransformImage(t *testing.T) {
	item := testItem()
	item.Content = `<p>intro</p><img alt="diagram" src="https://cdn.example.com/diagram.png"><p>more</p>`

	p, ok := Transform(item, time.Now())
	require.True(t, ok)
	require.Equal(t, "https://cdn.example.com/diagram.png", p.Image)

	item.Content = "<p>no pictures here</p>"
	p, ok = Transform(item, time.Now())
	require.True(t, ok)
	require.Equal(t, PlaceholderImage, p.Image)
}

func TestTransformDescription(t *testing.T) {
	item := testItem()
	item.Content = "<p>Short first sentence. And the second sentence fills out the description with a bit more detail. Third is ignored.</p>"

	p, ok := Transform(item, time.Now())
	require.True(t, ok)
	// First sentence is under the short-description threshold, so the
	// second is appended.
	require.Equal(t, "Short first sentence. And the second sentence fills out the description with a bit more detail", p.Description)
}

func TestTransformDescriptionTruncated(t *testing.T) {
	item := testItem()
	long := ""
	for i := 0; i < 30; i++ {
		long += "a very long phrase that keeps going "
	}
	item.Content = "<p>" + long + ".</p>"

	p, ok := Transform(item, time.Now())
	require.True(t, ok)
	require.Len(t, p.Description, maxDescription+3)
	require.Equal(t, "...", p.Description[len(p.Description)-3:])
}

func TestTransformHighlights(t *testing.T) {
	item := testItem()
	item.Content = `Overview paragraph.
- Reduced deployment time from hours down to minutes
- tiny
* Automated certificate rotation across all environments
1. Introduced canary releases for every backend service
- A fourth qualifying line that should be cut by the cap anyway`

	p, ok := Transform(item, time.Now())
	require.True(t, ok)
	require.Equal(t, []string{
		"Reduced deployment time from hours down to minutes",
		"Automated certificate rotation across all environments",
		"Introduced canary releases for every backend service",
	}, p.Highlights)
}

func TestTransformGenericHighlights(t *testing.T) {
	item := testItem()
	item.Content = "<p>Plain prose with no list structure at all.</p>"

	p, ok := Transform(item, time.Now())
	require.True(t, ok)
	require.Equal(t, genericHighlights, p.Highlights)
}

func TestTransformIconAndColor(t *testing.T) {
	p, ok := Transform(testItem(), time.Now())
	require.True(t, ok)
	// Kubernetes leads the technology list, but the aws rule is checked
	// first against all terms.
	require.Equal(t, "Cloud", p.Icon)
	require.Equal(t, "from-orange-500 to-orange-600", p.Color)

	item := testItem()
	item.Categories = nil
	item.Content = "<p>Notes on running Terraform in CI.</p>"
	p, ok = Transform(item, time.Now())
	require.True(t, ok)
	require.Equal(t, "Layers", p.Icon)
	require.Equal(t, "from-purple-500 to-purple-600", p.Color)

	item.Content = "<p>Nothing recognizable.</p>"
	p, ok = Transform(item, time.Now())
	require.True(t, ok)
	require.Equal(t, defaultIcon, p.Icon)
	require.Equal(t, defaultColor, p.Color)
}

func TestDeriveIDStableWithoutGUID(t *testing.T) {
	item := testItem()
	item.GUID = ""

	first := deriveID(item)
	second := deriveID(item)
	require.Equal(t, first, second)
	require.Contains(t, first, syndicatedPref)

	other := testItem()
	other.GUID = ""
	other.Link = "https://blog.example.com/posts/other"
	require.NotEqual(t, first, deriveID(other))
}

func TestTransformPublishedFallsBackToNow(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	item := testItem()
	item.PublishedParsed = nil

	p, ok := Transform(item, now)
	require.True(t, ok)
	require.Equal(t, now, p.PublishedDate)
}

func TestTransformSnippetCapped(t *testing.T) {
	item := testItem()
	long := make([]byte, maxSnippetLen*2)
	for i := range long {
		long[i] = 'x'
	}
	item.Content = string(long)

	p, ok := Transform(item, time.Now())
	require.True(t, ok)
	require.Len(t, p.ContentSnippet, maxSnippetLen)
}
