package seeds

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"github.com/goccy/go-yaml"
	"github.com/prephub/prephub-api/internal/courses"
)

//go:embed catalog.yaml
var catalog []byte

type catalogEntry struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Category    string   `yaml:"category"`
	Level       string   `yaml:"level"`
	IsFree      bool     `yaml:"is_free"`
	URL         string   `yaml:"url"`
	Tags        []string `yaml:"tags"`
}

// SeedCourses inserts every catalog course whose title is not stored yet and
// returns how many were created.
func SeedCourses(ctx context.Context, store courses.Store, log *slog.Logger) (int, error) {
	var entries []catalogEntry
	if err := yaml.Unmarshal(catalog, &entries); err != nil {
		return 0, fmt.Errorf("failed to parse catalog.yaml: %w", err)
	}

	existing, err := store.List(ctx, courses.Filter{})
	if err != nil {
		return 0, fmt.Errorf("could not list courses: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, c := range existing {
		seen[c.Title] = true
	}

	created := 0
	for _, e := range entries {
		if seen[e.Title] {
			log.Info("⚠️ Course exists, skipping", "title", e.Title)
			continue
		}
		c := &courses.Course{
			Title:       e.Title,
			Description: e.Description,
			Category:    e.Category,
			Level:       e.Level,
			IsFree:      e.IsFree,
			URL:         e.URL,
			Tags:        e.Tags,
		}
		if c.Level == "" {
			c.Level = courses.LevelBeginner
		}
		if err := store.Create(ctx, c); err != nil {
			return created, fmt.Errorf("failed to create course %s: %w", e.Title, err)
		}
		seen[e.Title] = true
		created++
	}

	log.Info(fmt.Sprintf("✅ Seeded %d courses", created))
	return created, nil
}
