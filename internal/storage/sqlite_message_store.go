package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/herald-sh/herald/internal/domain"
)

// SQLiteMessageStore implements MessageStore backed by SQLite.
type SQLiteMessageStore struct {
	db *sql.DB
}

// NewSQLiteMessageStore returns a new SQLiteMessageStore.
func NewSQLiteMessageStore(db *sql.DB) *SQLiteMessageStore {
	return &SQLiteMessageStore{db: db}
}

// CreateMessage inserts a message row.
func (s *SQLiteMessageStore) CreateMessage(ctx context.Context, m *domain.Message) error {
	metadata, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling message metadata: %w", err)
	}
	if m.Metadata == nil {
		metadata = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (
			id, thread_id, parent_id, sender_user_id, sender_contact_id,
			sender_service, title, content, plain_text, format, sensitive,
			urgency, related_entity, metadata, created_at, edited_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ThreadID, m.ParentID, m.SenderUserID, m.SenderContactID,
		m.SenderService, m.Title, m.Content, m.PlainText, string(m.Format),
		m.Sensitive, string(m.EffectiveUrgency()), m.RelatedEntity,
		string(metadata), m.CreatedAt, m.EditedAt, m.DeletedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// GetMessage returns the message with the given id, or domain.ErrNotFound.
func (s *SQLiteMessageStore) GetMessage(ctx context.Context, id string) (*domain.Message, error) {
	var (
		m        domain.Message
		format   string
		urgency  string
		metadata string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, thread_id, parent_id, sender_user_id, sender_contact_id,
		       sender_service, title, content, plain_text, format, sensitive,
		       urgency, related_entity, metadata, created_at, edited_at, deleted_at
		FROM messages WHERE id = ?`, id,
	).Scan(
		&m.ID, &m.ThreadID, &m.ParentID, &m.SenderUserID, &m.SenderContactID,
		&m.SenderService, &m.Title, &m.Content, &m.PlainText, &format,
		&m.Sensitive, &urgency, &m.RelatedEntity, &metadata,
		&m.CreatedAt, &m.EditedAt, &m.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: message %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying message: %w", err)
	}

	m.Format = domain.ContentFormat(format)
	m.Urgency = domain.Urgency(urgency)
	if metadata != "" && metadata != "{}" {
		if err := json.Unmarshal([]byte(metadata), &m.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling message metadata: %w", err)
		}
	}
	return &m, nil
}
