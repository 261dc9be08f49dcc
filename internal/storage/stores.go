// Package storage persists the delivery engine's records in SQLite. Store
// interfaces are defined here so the engine can be tested against stubs;
// the sqlite_*.go files hold the concrete implementations.
package storage

import (
	"context"
	"time"

	"github.com/herald-sh/herald/internal/domain"
)

// MessageStore persists immutable message content units.
type MessageStore interface {
	CreateMessage(ctx context.Context, m *domain.Message) error
	// GetMessage returns domain.ErrNotFound when no such message exists.
	GetMessage(ctx context.Context, id string) (*domain.Message, error)
}

// RequestStore persists delivery requests.
type RequestStore interface {
	CreateRequest(ctx context.Context, r *domain.DeliveryRequest) error
	// GetRequest returns domain.ErrNotFound when no such request exists.
	GetRequest(ctx context.Context, id string) (*domain.DeliveryRequest, error)
	// FindByCorrelationID returns the request carrying the given correlation
	// id, or (nil, nil) when none exists. The correlation id is the
	// idempotency key: broker redeliveries of the same event reuse the
	// request found here instead of creating a new one.
	FindByCorrelationID(ctx context.Context, correlationID string) (*domain.DeliveryRequest, error)
	// MarkProcessed sets ProcessedAt once all attempts reached a terminal state.
	MarkProcessed(ctx context.Context, id string, at time.Time) error
	// ListRecentRequests returns the newest requests, up to limit.
	ListRecentRequests(ctx context.Context, limit int) ([]domain.DeliveryRequest, error)
	// PruneProcessedBefore deletes processed requests (and their attempts)
	// older than cutoff, returning the number of requests removed.
	PruneProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// AttemptStore persists delivery attempts. Retries are new rows, so there
// is no delete or bulk-update surface.
type AttemptStore interface {
	CreateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error
	// UpdateAttempt writes the terminal status and transition metadata of an
	// existing attempt row.
	UpdateAttempt(ctx context.Context, a *domain.DeliveryAttempt) error
	// CountChannelAttempts returns how many attempts exist for the request
	// on the given channel; used to compute the next attempt number.
	CountChannelAttempts(ctx context.Context, requestID string, ch domain.Channel) (int, error)
	ListAttemptsByRequest(ctx context.Context, requestID string) ([]domain.DeliveryAttempt, error)
}

// PreferenceStore persists per-recipient channel preferences. The engine
// consumes it read-only; the admin API owns the writes.
type PreferenceStore interface {
	// FindByUserID returns (nil, nil) when the user has no stored preference.
	FindByUserID(ctx context.Context, userID string) (*domain.ChannelPreference, error)
	// FindByContactID returns (nil, nil) when the contact has no stored preference.
	FindByContactID(ctx context.Context, contactID string) (*domain.ChannelPreference, error)
	UpsertPreference(ctx context.Context, p *domain.ChannelPreference) error
	DeletePreference(ctx context.Context, id string) error
}

// TemplateStore persists named, channel-scoped rendering templates.
type TemplateStore interface {
	// FindTemplate looks up an active template by its name+channel key,
	// returning (nil, nil) when none matches.
	FindTemplate(ctx context.Context, name string, ch domain.Channel) (*domain.TemplateWrapper, error)
	UpsertTemplate(ctx context.Context, t *domain.TemplateWrapper) error
	ListTemplates(ctx context.Context) ([]domain.TemplateWrapper, error)
	DeleteTemplate(ctx context.Context, id string) error
}

// Recipient is one directory row mapping a recipient identity to addresses.
type Recipient struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	ContactID string    `json:"contact_id,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RecipientStore is the address directory. ResolveAddresses satisfies the
// orchestrator's address-resolver contract; an empty result is not an error.
type RecipientStore interface {
	ResolveAddresses(ctx context.Context, userID, contactID string) ([]domain.RecipientAddress, error)
	UpsertRecipient(ctx context.Context, r *Recipient) error
}
