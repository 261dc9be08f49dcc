package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/herald-sh/herald/internal/domain"
)

// SQLiteRequestStore implements RequestStore backed by SQLite.
type SQLiteRequestStore struct {
	db *sql.DB
}

// NewSQLiteRequestStore returns a new SQLiteRequestStore.
func NewSQLiteRequestStore(db *sql.DB) *SQLiteRequestStore {
	return &SQLiteRequestStore{db: db}
}

// CreateRequest inserts a delivery request row.
func (s *SQLiteRequestStore) CreateRequest(ctx context.Context, r *domain.DeliveryRequest) error {
	channels, err := json.Marshal(r.Channels)
	if err != nil {
		return fmt.Errorf("marshaling request channels: %w", err)
	}
	if r.Channels == nil {
		channels = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO delivery_requests (
			id, message_id, correlation_id, user_id, contact_id,
			channels, template_name, callback_topic, created_at, processed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.MessageID, r.CorrelationID, r.UserID, r.ContactID,
		string(channels), r.TemplateName, r.CallbackTopic, r.CreatedAt, r.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery request: %w", err)
	}
	return nil
}

// GetRequest returns the request with the given id, or domain.ErrNotFound.
func (s *SQLiteRequestStore) GetRequest(ctx context.Context, id string) (*domain.DeliveryRequest, error) {
	var (
		r        domain.DeliveryRequest
		channels string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, message_id, correlation_id, user_id, contact_id,
		       channels, template_name, callback_topic, created_at, processed_at
		FROM delivery_requests WHERE id = ?`, id,
	).Scan(
		&r.ID, &r.MessageID, &r.CorrelationID, &r.UserID, &r.ContactID,
		&channels, &r.TemplateName, &r.CallbackTopic, &r.CreatedAt, &r.ProcessedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: delivery request %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying delivery request: %w", err)
	}

	if channels != "" && channels != "[]" {
		if err := json.Unmarshal([]byte(channels), &r.Channels); err != nil {
			return nil, fmt.Errorf("unmarshaling request channels: %w", err)
		}
	}
	return &r, nil
}

// FindByCorrelationID returns the request with the given correlation id,
// or (nil, nil) when none exists. Correlation ids are unique per inbound
// event, so the oldest row wins if a producer ever reuses one.
func (s *SQLiteRequestStore) FindByCorrelationID(ctx context.Context, correlationID string) (*domain.DeliveryRequest, error) {
	if correlationID == "" {
		return nil, nil
	}
	var (
		r        domain.DeliveryRequest
		channels string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, message_id, correlation_id, user_id, contact_id,
		       channels, template_name, callback_topic, created_at, processed_at
		FROM delivery_requests
		WHERE correlation_id = ?
		ORDER BY created_at ASC
		LIMIT 1`, correlationID,
	).Scan(
		&r.ID, &r.MessageID, &r.CorrelationID, &r.UserID, &r.ContactID,
		&channels, &r.TemplateName, &r.CallbackTopic, &r.CreatedAt, &r.ProcessedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying request by correlation id: %w", err)
	}
	if channels != "" && channels != "[]" {
		if err := json.Unmarshal([]byte(channels), &r.Channels); err != nil {
			return nil, fmt.Errorf("unmarshaling request channels: %w", err)
		}
	}
	return &r, nil
}

// MarkProcessed sets the processed_at timestamp on a request.
func (s *SQLiteRequestStore) MarkProcessed(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE delivery_requests SET processed_at = ? WHERE id = ?", at, id)
	if err != nil {
		return fmt.Errorf("marking request processed: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: delivery request %s", domain.ErrNotFound, id)
	}
	return nil
}

// ListRecentRequests returns the newest requests, up to limit.
func (s *SQLiteRequestStore) ListRecentRequests(ctx context.Context, limit int) ([]domain.DeliveryRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message_id, correlation_id, user_id, contact_id,
		       channels, template_name, callback_topic, created_at, processed_at
		FROM delivery_requests
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying delivery requests: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Printf("failed to close rows: %v", cerr)
		}
	}()

	var requests []domain.DeliveryRequest
	for rows.Next() {
		var (
			r        domain.DeliveryRequest
			channels string
		)
		if err := rows.Scan(
			&r.ID, &r.MessageID, &r.CorrelationID, &r.UserID, &r.ContactID,
			&channels, &r.TemplateName, &r.CallbackTopic, &r.CreatedAt, &r.ProcessedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning delivery request row: %w", err)
		}
		if channels != "" && channels != "[]" {
			if err := json.Unmarshal([]byte(channels), &r.Channels); err != nil {
				return nil, fmt.Errorf("unmarshaling request channels: %w", err)
			}
		}
		requests = append(requests, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery request rows: %w", err)
	}
	return requests, nil
}

// PruneProcessedBefore deletes processed requests older than cutoff.
// Attempts are removed via the ON DELETE CASCADE on delivery_attempts.
func (s *SQLiteRequestStore) PruneProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM delivery_requests
		WHERE processed_at IS NOT NULL AND processed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning delivery requests: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}
