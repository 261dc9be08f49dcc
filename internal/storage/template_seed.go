package storage

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/herald-sh/herald/internal/domain"
)

// seedTemplate is one template entry in the seed YAML file.
type seedTemplate struct {
	Name    string `yaml:"name"`
	Channel string `yaml:"channel"`
	Subject string `yaml:"subject"`
	Body    string `yaml:"body"`
}

// SeedTemplates reads a YAML file of templates and upserts each into the
// store. Existing templates with the same name+channel key are replaced.
// A missing file is not an error, so deployments without a seed file start
// clean. Returns the number of templates seeded.
func SeedTemplates(ctx context.Context, store TemplateStore, filePath string) (int, error) {
	data, err := os.ReadFile(filePath) //nolint:gosec // path is from admin-configured env
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading template seed %q: %w", filePath, err)
	}

	var entries []seedTemplate
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return 0, fmt.Errorf("parsing template seed %q: %w", filePath, err)
	}

	now := time.Now().UTC()
	for i, e := range entries {
		t := &domain.TemplateWrapper{
			ID:              uuid.NewString(),
			Name:            e.Name,
			Channel:         domain.Channel(e.Channel),
			SubjectTemplate: e.Subject,
			BodyTemplate:    e.Body,
			Active:          true,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("template seed entry %d (%s): %w", i, e.Name, err)
		}
		if err := store.UpsertTemplate(ctx, t); err != nil {
			return 0, fmt.Errorf("seeding template %s/%s: %w", e.Name, e.Channel, err)
		}
	}
	return len(entries), nil
}
