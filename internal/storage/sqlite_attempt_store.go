package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/herald-sh/herald/internal/domain"
)

// SQLiteAttemptStore implements AttemptStore backed by SQLite.
type SQLiteAttemptStore struct {
	db *sql.DB
}

// NewSQLiteAttemptStore returns a new SQLiteAttemptStore.
func NewSQLiteAttemptStore(db *sql.DB) *SQLiteAttemptStore {
	return &SQLiteAttemptStore{db: db}
}

// CreateAttempt inserts a delivery attempt row.
func (s *SQLiteAttemptStore) CreateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO delivery_attempts (
			id, request_id, channel, recipient_address, status,
			provider_message_id, error, attempt_number, created_at, next_retry_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.RequestID, string(a.Channel), a.RecipientAddress, string(a.Status),
		a.ProviderMessageID, a.Error, a.AttemptNumber, a.CreatedAt, a.NextRetryAt,
	)
	if err != nil {
		return fmt.Errorf("inserting delivery attempt: %w", err)
	}
	return nil
}

// UpdateAttempt writes the status and transition metadata of an existing
// attempt row. Immutable columns (request, channel, address, number) are
// never touched.
func (s *SQLiteAttemptStore) UpdateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE delivery_attempts
		SET status = ?, provider_message_id = ?, error = ?, next_retry_at = ?
		WHERE id = ?`,
		string(a.Status), a.ProviderMessageID, a.Error, a.NextRetryAt, a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating delivery attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: delivery attempt %s", domain.ErrNotFound, a.ID)
	}
	return nil
}

// CountChannelAttempts returns how many attempts exist for a request on one channel.
func (s *SQLiteAttemptStore) CountChannelAttempts(ctx context.Context, requestID string, ch domain.Channel) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM delivery_attempts
		WHERE request_id = ? AND channel = ?`, requestID, string(ch),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting delivery attempts: %w", err)
	}
	return n, nil
}

// ListAttemptsByRequest returns all attempts for a request, oldest first.
func (s *SQLiteAttemptStore) ListAttemptsByRequest(ctx context.Context, requestID string) ([]domain.DeliveryAttempt, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, request_id, channel, recipient_address, status,
		       provider_message_id, error, attempt_number, created_at, next_retry_at
		FROM delivery_attempts
		WHERE request_id = ?
		ORDER BY created_at ASC, attempt_number ASC`, requestID)
	if err != nil {
		return nil, fmt.Errorf("querying delivery attempts: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Printf("failed to close rows: %v", cerr)
		}
	}()

	var attempts []domain.DeliveryAttempt
	for rows.Next() {
		var (
			a       domain.DeliveryAttempt
			channel string
			status  string
		)
		if err := rows.Scan(
			&a.ID, &a.RequestID, &channel, &a.RecipientAddress, &status,
			&a.ProviderMessageID, &a.Error, &a.AttemptNumber, &a.CreatedAt, &a.NextRetryAt,
		); err != nil {
			return nil, fmt.Errorf("scanning delivery attempt row: %w", err)
		}
		a.Channel = domain.Channel(channel)
		a.Status = domain.AttemptStatus(status)
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating delivery attempt rows: %w", err)
	}
	return attempts, nil
}
