package feed

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/jfernandes/portfolio-content/content"
)

// PlaceholderImage is used when an article carries no image.
const PlaceholderImage = "/images/project-placeholder.svg"

const (
	maxTechnologies  = 6
	maxHighlights    = 3
	maxDescription   = 200
	minHighlightLen  = 20
	maxHighlightLen  = 150
	maxSnippetLen    = 1000
	shortDescription = 100
)

// techVocabulary is the fixed set of recognized technology terms, scanned in
// order. Category matches are checked before body-text matches.
var techVocabulary = []string{
	"AWS", "Azure", "GCP", "Google Cloud", "Docker", "Kubernetes", "Jenkins", "Terraform",
	"Ansible", "CI/CD", "DevOps", "Python", "Node.js", "React", "Angular", "Vue",
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Nginx", "Apache", "Linux", "Ubuntu",
	"EC2", "S3", "Lambda", "CloudFormation", "ARM Templates", "Helm", "Prometheus",
	"Grafana", "ELK Stack", "Istio", "ArgoCD", "GitHub Actions", "GitLab CI",
	"Serverless", "Microservices", "API Gateway", "Load Balancer", "VPC", "Subnets",
}

// iconRules map the first matching technology or category term to an icon,
// evaluated in order.
var iconRules = []struct {
	term string
	icon string
}{
	{"aws", "Cloud"},
	{"azure", "Cloud"},
	{"gcp", "Cloud"},
	{"docker", "Container"},
	{"kubernetes", "Container"},
	{"jenkins", "Layers"},
	{"terraform", "Layers"},
	{"ci/cd", "Layers"},
	{"devops", "Cpu"},
}

// colorRules map the first matching technology or category term to a color
// gradient token, evaluated in order.
var colorRules = []struct {
	term  string
	color string
}{
	{"aws", "from-orange-500 to-orange-600"},
	{"azure", "from-blue-500 to-blue-600"},
	{"gcp", "from-blue-500 to-green-500"},
	{"docker", "from-blue-600 to-cyan-600"},
	{"kubernetes", "from-blue-500 to-purple-600"},
	{"jenkins", "from-blue-500 to-blue-600"},
	{"terraform", "from-purple-500 to-purple-600"},
}

const (
	defaultIcon  = "Cpu"
	defaultColor = "from-gray-500 to-gray-600"
)

// genericHighlights substitute when an article has no list-like lines.
var genericHighlights = []string{
	"Implemented cloud-native solutions",
	"Automated deployment processes",
	"Enhanced system reliability and performance",
}

var (
	imgTagRegex    = regexp.MustCompile(`(?i)<img[^>]+src="([^">]+)"`)
	htmlTagRegex   = regexp.MustCompile(`<[^>]*>`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	sentenceSplit  = regexp.MustCompile(`[.!?]+`)
	listLineRegex  = regexp.MustCompile(`(?m)^\s*(?:\d+\.|\*|-|•)\s*(.+)$`)
	guidTailSplit  = "/"
	syndicatedPref = "syndicated-"
)

// Transform derives a project record from a feed item. Items lacking a title
// or link are skipped, reported by the second return value.
func Transform(item *gofeed.Item, now time.Time) (content.Project, bool) {
	if item == nil || item.Title == "" || item.Link == "" {
		return content.Project{}, false
	}

	raw := item.Content
	if raw == "" {
		raw = item.Description
	}

	technologies := extractTechnologies(raw, item.Categories)

	published := now
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	}

	p := content.Project{
		ID:             deriveID(item),
		Title:          item.Title,
		Description:    deriveDescription(item.Title, raw),
		Image:          extractImage(raw),
		Technologies:   technologies,
		Icon:           deriveIcon(technologies, item.Categories),
		Color:          deriveColor(technologies, item.Categories),
		SourceURL:      item.Link,
		Highlights:     deriveHighlights(raw),
		Type:           content.ProjectSyndicated,
		Featured:       false,
		PublishedDate:  published,
		Categories:     item.Categories,
		ContentSnippet: snippet(raw),
	}
	return p, true
}

// deriveID builds a stable identifier for a feed item. The guid tail is used
// when present; guid-less items fall back to a hash of title and link so the
// id stays stable across re-ingestion runs.
func deriveID(item *gofeed.Item) string {
	if item.GUID != "" {
		parts := strings.Split(item.GUID, guidTailSplit)
		return syndicatedPref + parts[len(parts)-1]
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(item.Title))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(item.Link))
	return fmt.Sprintf("%s%x", syndicatedPref, h.Sum64())
}

// extractImage returns the first image source in the raw HTML content, or
// the placeholder when there is none.
func extractImage(raw string) string {
	if m := imgTagRegex.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return PlaceholderImage
}

// extractTechnologies scans category tags then body text against the fixed
// vocabulary, case-insensitively. Matches are deduplicated and capped.
func extractTechnologies(raw string, categories []string) []string {
	found := make([]string, 0, maxTechnologies)
	seen := make(map[string]bool)

	add := func(tech string) {
		if len(found) < maxTechnologies && !seen[tech] {
			seen[tech] = true
			found = append(found, tech)
		}
	}

	// Category tags first: exact vocabulary matches
	for _, tech := range techVocabulary {
		for _, cat := range categories {
			if strings.EqualFold(cat, tech) {
				add(tech)
			}
		}
	}

	// Then body-text substring matches
	lower := strings.ToLower(raw)
	for _, tech := range techVocabulary {
		if strings.Contains(lower, strings.ToLower(tech)) {
			add(tech)
		}
	}

	return found
}

// deriveDescription strips markup, collapses whitespace, and assembles a
// short description from the first one or two sentences.
func deriveDescription(title, raw string) string {
	clean := strings.TrimSpace(whitespaceRe.ReplaceAllString(htmlTagRegex.ReplaceAllString(raw, " "), " "))

	sentences := sentenceSplit.Split(clean, -1)
	description := title
	if len(sentences) > 0 && strings.TrimSpace(sentences[0]) != "" {
		description = strings.TrimSpace(sentences[0])
	}

	if len(description) < shortDescription && len(sentences) > 1 && strings.TrimSpace(sentences[1]) != "" {
		description += ". " + strings.TrimSpace(sentences[1])
	}

	if len(description) > maxDescription {
		description = description[:maxDescription] + "..."
	}
	return description
}

// deriveHighlights collects list-like lines (numbered, bulleted, dashed) of
// reasonable length, substituting generic highlights when none are found.
func deriveHighlights(raw string) []string {
	var highlights []string
	for _, m := range listLineRegex.FindAllStringSubmatch(raw, -1) {
		if len(highlights) >= maxHighlights {
			break
		}
		line := strings.TrimSpace(htmlTagRegex.ReplaceAllString(m[1], ""))
		if len(line) > minHighlightLen && len(line) < maxHighlightLen {
			highlights = append(highlights, line)
		}
	}

	if len(highlights) == 0 {
		return append([]string(nil), genericHighlights...)
	}
	return highlights
}

func deriveIcon(technologies, categories []string) string {
	terms := lowerTerms(technologies, categories)
	for _, r := range iconRules {
		for _, t := range terms {
			if strings.Contains(t, r.term) {
				return r.icon
			}
		}
	}
	return defaultIcon
}

func deriveColor(technologies, categories []string) string {
	terms := lowerTerms(technologies, categories)
	for _, r := range colorRules {
		for _, t := range terms {
			if strings.Contains(t, r.term) {
				return r.color
			}
		}
	}
	return defaultColor
}

func lowerTerms(technologies, categories []string) []string {
	terms := make([]string, 0, len(technologies)+len(categories))
	for _, t := range technologies {
		terms = append(terms, strings.ToLower(t))
	}
	for _, c := range categories {
		terms = append(terms, strings.ToLower(c))
	}
	return terms
}

func snippet(raw string) string {
	if len(raw) > maxSnippetLen {
		return raw[:maxSnippetLen]
	}
	return raw
}
