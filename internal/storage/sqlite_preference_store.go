package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/herald-sh/herald/internal/domain"
)

// SQLitePreferenceStore implements PreferenceStore backed by SQLite.
type SQLitePreferenceStore struct {
	db *sql.DB
}

// NewSQLitePreferenceStore returns a new SQLitePreferenceStore.
func NewSQLitePreferenceStore(db *sql.DB) *SQLitePreferenceStore {
	return &SQLitePreferenceStore{db: db}
}

const preferenceColumns = `id, user_id, contact_id, email_enabled, sms_enabled,
	quiet_hours_start, quiet_hours_end, quiet_hours_tz, created_at, updated_at`

// FindByUserID returns the preference for a user, or (nil, nil) when none is stored.
func (s *SQLitePreferenceStore) FindByUserID(ctx context.Context, userID string) (*domain.ChannelPreference, error) {
	return s.findBy(ctx, "user_id", userID)
}

// FindByContactID returns the preference for a contact, or (nil, nil) when none is stored.
func (s *SQLitePreferenceStore) FindByContactID(ctx context.Context, contactID string) (*domain.ChannelPreference, error) {
	return s.findBy(ctx, "contact_id", contactID)
}

func (s *SQLitePreferenceStore) findBy(ctx context.Context, column, value string) (*domain.ChannelPreference, error) {
	if value == "" {
		return nil, nil
	}
	var p domain.ChannelPreference
	err := s.db.QueryRowContext(ctx,
		"SELECT "+preferenceColumns+" FROM channel_preferences WHERE "+column+" = ?", value,
	).Scan(
		&p.ID, &p.UserID, &p.ContactID, &p.EmailEnabled, &p.SMSEnabled,
		&p.QuietHoursStart, &p.QuietHoursEnd, &p.QuietHoursTZ,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying channel preference: %w", err)
	}
	return &p, nil
}

// UpsertPreference inserts or replaces the preference for its recipient
// identity. The preference must already be validated.
func (s *SQLitePreferenceStore) UpsertPreference(ctx context.Context, p *domain.ChannelPreference) error {
	conflictTarget := "user_id"
	if p.UserID == "" {
		conflictTarget = "contact_id"
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channel_preferences (
			id, user_id, contact_id, email_enabled, sms_enabled,
			quiet_hours_start, quiet_hours_end, quiet_hours_tz, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(`+conflictTarget+`) WHERE `+conflictTarget+` != '' DO UPDATE SET
			email_enabled     = excluded.email_enabled,
			sms_enabled       = excluded.sms_enabled,
			quiet_hours_start = excluded.quiet_hours_start,
			quiet_hours_end   = excluded.quiet_hours_end,
			quiet_hours_tz    = excluded.quiet_hours_tz,
			updated_at        = excluded.updated_at`,
		p.ID, p.UserID, p.ContactID, p.EmailEnabled, p.SMSEnabled,
		p.QuietHoursStart, p.QuietHoursEnd, p.QuietHoursTZ, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upserting channel preference: %w", err)
	}
	return nil
}

// DeletePreference removes a preference by id.
func (s *SQLitePreferenceStore) DeletePreference(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM channel_preferences WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting channel preference: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: channel preference %s", domain.ErrNotFound, id)
	}
	return nil
}
