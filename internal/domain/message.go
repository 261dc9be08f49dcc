package domain

import (
	"fmt"
	"time"
)

// Message is an immutable content unit. A message is created once by an
// event handler and referenced by delivery requests; it is never mutated
// apart from the soft-delete/edit timestamps.
type Message struct {
	ID              string            `json:"id"`
	ThreadID        string            `json:"thread_id,omitempty"`
	ParentID        string            `json:"parent_id,omitempty"`
	SenderUserID    string            `json:"sender_user_id,omitempty"`
	SenderContactID string            `json:"sender_contact_id,omitempty"`
	SenderService   string            `json:"sender_service,omitempty"`
	Title           string            `json:"title"`
	Content         string            `json:"content"`
	PlainText       string            `json:"plain_text,omitempty"`
	Format          ContentFormat     `json:"format"`
	Sensitive       bool              `json:"sensitive"`
	Urgency         Urgency           `json:"urgency"`
	RelatedEntity   string            `json:"related_entity,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	EditedAt        *time.Time        `json:"edited_at,omitempty"`
	DeletedAt       *time.Time        `json:"deleted_at,omitempty"`
}

// Validate checks the message invariants: at least one sender identity
// field must be non-empty and the urgency must be a known level.
func (m *Message) Validate() error {
	if m.SenderUserID == "" && m.SenderContactID == "" && m.SenderService == "" {
		return fmt.Errorf("%w: message requires a sender identity", ErrInvalidInput)
	}
	if m.Urgency != "" && !m.Urgency.Valid() {
		return fmt.Errorf("%w: unknown urgency %q", ErrInvalidInput, m.Urgency)
	}
	return nil
}

// EffectiveUrgency returns the message urgency, defaulting to normal when unset.
func (m *Message) EffectiveUrgency() Urgency {
	if m.Urgency == "" {
		return UrgencyNormal
	}
	return m.Urgency
}

// FallbackText returns the plain-text rendition of the message content,
// preferring the explicit fallback when one was supplied.
func (m *Message) FallbackText() string {
	if m.PlainText != "" {
		return m.PlainText
	}
	return m.Content
}
