package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/herald-sh/herald/internal/domain"
)

// SQLiteTemplateStore implements TemplateStore backed by SQLite.
type SQLiteTemplateStore struct {
	db *sql.DB
}

// NewSQLiteTemplateStore returns a new SQLiteTemplateStore.
func NewSQLiteTemplateStore(db *sql.DB) *SQLiteTemplateStore {
	return &SQLiteTemplateStore{db: db}
}

// FindTemplate looks up an active template by name and channel, returning
// (nil, nil) when none matches.
func (s *SQLiteTemplateStore) FindTemplate(ctx context.Context, name string, ch domain.Channel) (*domain.TemplateWrapper, error) {
	var (
		t       domain.TemplateWrapper
		channel string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, channel, subject_template, body_template, active, created_at, updated_at
		FROM templates
		WHERE name = ? AND channel = ? AND active = 1`, name, string(ch),
	).Scan(
		&t.ID, &t.Name, &channel, &t.SubjectTemplate, &t.BodyTemplate,
		&t.Active, &t.CreatedAt, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying template: %w", err)
	}
	t.Channel = domain.Channel(channel)
	return &t, nil
}

// UpsertTemplate inserts or replaces a template keyed by name+channel.
func (s *SQLiteTemplateStore) UpsertTemplate(ctx context.Context, t *domain.TemplateWrapper) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO templates (
			id, name, channel, subject_template, body_template, active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name, channel) DO UPDATE SET
			subject_template = excluded.subject_template,
			body_template    = excluded.body_template,
			active           = excluded.active,
			updated_at       = excluded.updated_at`,
		t.ID, t.Name, string(t.Channel), t.SubjectTemplate, t.BodyTemplate,
		t.Active, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting template: %w", err)
	}
	return nil
}

// ListTemplates returns all templates ordered by name and channel.
func (s *SQLiteTemplateStore) ListTemplates(ctx context.Context) ([]domain.TemplateWrapper, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, channel, subject_template, body_template, active, created_at, updated_at
		FROM templates
		ORDER BY name, channel`)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Printf("failed to close rows: %v", cerr)
		}
	}()

	var templates []domain.TemplateWrapper
	for rows.Next() {
		var (
			t       domain.TemplateWrapper
			channel string
		)
		if err := rows.Scan(
			&t.ID, &t.Name, &channel, &t.SubjectTemplate, &t.BodyTemplate,
			&t.Active, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}
		t.Channel = domain.Channel(channel)
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating template rows: %w", err)
	}
	return templates, nil
}

// DeleteTemplate removes a template by id.
func (s *SQLiteTemplateStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM templates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: template %s", domain.ErrNotFound, id)
	}
	return nil
}
