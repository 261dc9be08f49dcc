package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/herald-sh/herald/internal/domain"
)

// SQLiteRecipientStore implements RecipientStore backed by SQLite.
type SQLiteRecipientStore struct {
	db *sql.DB
}

// NewSQLiteRecipientStore returns a new SQLiteRecipientStore.
func NewSQLiteRecipientStore(db *sql.DB) *SQLiteRecipientStore {
	return &SQLiteRecipientStore{db: db}
}

// ResolveAddresses returns all known addresses for a recipient identity.
// Either identifier may be empty; rows matching either are returned. An
// empty result is not an error.
func (s *SQLiteRecipientStore) ResolveAddresses(ctx context.Context, userID, contactID string) ([]domain.RecipientAddress, error) {
	if userID == "" && contactID == "" {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT email, phone FROM recipients
		WHERE (user_id != '' AND user_id = ?) OR (contact_id != '' AND contact_id = ?)
		ORDER BY created_at ASC`, userID, contactID)
	if err != nil {
		return nil, fmt.Errorf("querying recipient addresses: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			log.Printf("failed to close rows: %v", cerr)
		}
	}()

	var addresses []domain.RecipientAddress
	for rows.Next() {
		var a domain.RecipientAddress
		if err := rows.Scan(&a.Email, &a.Phone); err != nil {
			return nil, fmt.Errorf("scanning recipient row: %w", err)
		}
		if a.Email == "" && a.Phone == "" {
			continue
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipient rows: %w", err)
	}
	return addresses, nil
}

// UpsertRecipient inserts or replaces a directory row by id.
func (s *SQLiteRecipientStore) UpsertRecipient(ctx context.Context, r *Recipient) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recipients (id, user_id, contact_id, email, phone, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id    = excluded.user_id,
			contact_id = excluded.contact_id,
			email      = excluded.email,
			phone      = excluded.phone`,
		r.ID, r.UserID, r.ContactID, r.Email, r.Phone, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting recipient: %w", err)
	}
	return nil
}
