package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/storage"
)

const seedYAML = `
- name: password_reset
  channel: email
  subject: "Reset your password"
  body: "{{.Content}}"
- name: password_reset
  channel: sms
  body: "{{.Content}}"
`

func TestSeedTemplates(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(seedYAML), 0600))

	n, err := storage.SeedTemplates(ctx, s.templates, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tmpl, err := s.templates.FindTemplate(ctx, "password_reset", domain.ChannelEmail)
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.Equal(t, "Reset your password", tmpl.SubjectTemplate)

	// Re-seeding replaces rather than duplicates.
	n, err = storage.SeedTemplates(ctx, s.templates, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	all, err := s.templates.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSeedTemplates_MissingFileIsNoop(t *testing.T) {
	s := openTestDB(t)

	n, err := storage.SeedTemplates(context.Background(), s.templates, "/nonexistent/templates.yaml")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSeedTemplates_RejectsInvalidEntry(t *testing.T) {
	s := openTestDB(t)

	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: broken\n  channel: pigeon\n  body: x\n"), 0600))

	_, err := storage.SeedTemplates(context.Background(), s.templates, path)
	assert.Error(t, err)
}
