package badge

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Classification is the derived display metadata for a certification.
type Classification struct {
	Category string
	Level    string
	Color    string
}

// CategoryRule assigns a category when the haystack contains at least one of
// Any (when set) and every entry of RequireAll. Rules are evaluated in order;
// the first match wins.
type CategoryRule struct {
	Any        []string `yaml:"any,omitempty"`
	RequireAll []string `yaml:"requireAll,omitempty"`
	Category   string   `yaml:"category"`
}

// LevelRule assigns a level when the haystack contains any of its keywords.
type LevelRule struct {
	Any   []string `yaml:"any"`
	Level string   `yaml:"level"`
}

// ColorRule assigns a color token when the issuer contains any of its
// keywords.
type ColorRule struct {
	Any   []string `yaml:"any"`
	Color string   `yaml:"color"`
}

// Defaults are used when no rule in the corresponding table matches.
type Defaults struct {
	Category string `yaml:"category"`
	Level    string `yaml:"level"`
	Color    string `yaml:"color"`
}

// Rules is an ordered classification rule table.
type Rules struct {
	Categories []CategoryRule `yaml:"categories"`
	Levels     []LevelRule    `yaml:"levels"`
	Colors     []ColorRule    `yaml:"colors"`
	Defaults   Defaults       `yaml:"defaults"`
}

// DefaultRules returns the built-in rule table.
// Ordering is significant: vendor-plus-qualifier rules precede the bare
// vendor rules so e.g. an Azure security credential classifies as Security,
// not Cloud.
func DefaultRules() Rules {
	return Rules{
		Categories: []CategoryRule{
			{Any: []string{"azure", "microsoft"}, RequireAll: []string{"security"}, Category: "Security"},
			{Any: []string{"azure", "microsoft"}, RequireAll: []string{"365"}, Category: "Productivity"},
			{Any: []string{"aws", "amazon web services"}, Category: "Cloud"},
			{Any: []string{"azure", "microsoft"}, Category: "Cloud"},
			{Any: []string{"terraform", "hashicorp"}, Category: "Infrastructure"},
			{Any: []string{"github", "git"}, Category: "DevOps"},
			{Any: []string{"vmware"}, Category: "Virtualization"},
			{Any: []string{"security"}, Category: "Security"},
			{Any: []string{"kubernetes", "docker"}, Category: "DevOps"},
		},
		Levels: []LevelRule{
			{Any: []string{"practitioner"}, Level: "Practitioner"},
			{Any: []string{"associate"}, Level: "Associate"},
			{Any: []string{"professional", "expert"}, Level: "Professional"},
			{Any: []string{"architect"}, Level: "Architect"},
			{Any: []string{"specialty"}, Level: "Specialty"},
			{Any: []string{"foundation"}, Level: "Foundational"},
		},
		Colors: []ColorRule{
			{Any: []string{"amazon", "aws"}, Color: "from-orange-500 to-orange-600"},
			{Any: []string{"microsoft"}, Color: "from-blue-500 to-blue-600"},
			{Any: []string{"hashicorp"}, Color: "from-purple-500 to-purple-600"},
			{Any: []string{"vmware"}, Color: "from-green-500 to-green-600"},
			{Any: []string{"github"}, Color: "from-gray-700 to-gray-900"},
			{Any: []string{"google"}, Color: "from-blue-400 to-blue-500"},
		},
		Defaults: Defaults{
			Category: "General",
			Level:    "Fundamental",
			Color:    "from-gray-500 to-gray-600",
		},
	}
}

// LoadRules reads a rule table from a YAML file. Empty tables fall back to
// the corresponding built-in table so a file may override only one concern.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parsing rules file: %w", err)
	}

	defaults := DefaultRules()
	if len(rules.Categories) == 0 {
		rules.Categories = defaults.Categories
	}
	if len(rules.Levels) == 0 {
		rules.Levels = defaults.Levels
	}
	if len(rules.Colors) == 0 {
		rules.Colors = defaults.Colors
	}
	if rules.Defaults.Category == "" {
		rules.Defaults.Category = defaults.Defaults.Category
	}
	if rules.Defaults.Level == "" {
		rules.Defaults.Level = defaults.Defaults.Level
	}
	if rules.Defaults.Color == "" {
		rules.Defaults.Color = defaults.Defaults.Color
	}

	return rules, nil
}

// Classify derives category, level, and color for a badge name and issuer
// using the given rule table. Pure: same inputs, same output.
func Classify(name, issuer string, rules Rules) Classification {
	haystack := strings.ToLower(name) + " " + strings.ToLower(issuer)
	lowerIssuer := strings.ToLower(issuer)

	c := Classification{
		Category: rules.Defaults.Category,
		Level:    rules.Defaults.Level,
		Color:    rules.Defaults.Color,
	}

	for _, r := range rules.Categories {
		if matchesCategory(haystack, r) {
			c.Category = r.Category
			break
		}
	}

	for _, r := range rules.Levels {
		if containsAny(haystack, r.Any) {
			c.Level = r.Level
			break
		}
	}

	for _, r := range rules.Colors {
		if containsAny(lowerIssuer, r.Any) {
			c.Color = r.Color
			break
		}
	}

	return c
}

func matchesCategory(haystack string, r CategoryRule) bool {
	if len(r.Any) > 0 && !containsAny(haystack, r.Any) {
		return false
	}
	for _, kw := range r.RequireAll {
		if !strings.Contains(haystack, kw) {
			return false
		}
	}
	return true
}

func containsAny(haystack string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(haystack, kw) {
			return true
		}
	}
	return false
}
