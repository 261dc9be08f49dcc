package domain

import (
	"fmt"
	"time"
)

// DeliveryRequest is the intent to deliver one message to one recipient.
// It is created once per inbound event and mutated only to set ProcessedAt
// once every attempt has reached a terminal state.
type DeliveryRequest struct {
	ID            string     `json:"id"`
	MessageID     string     `json:"message_id"`
	CorrelationID string     `json:"correlation_id"`
	UserID        string     `json:"user_id,omitempty"`
	ContactID     string     `json:"contact_id,omitempty"`
	Channels      []Channel  `json:"channels,omitempty"`
	TemplateName  string     `json:"template_name,omitempty"`
	CallbackTopic string     `json:"callback_topic,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
}

// Validate checks the request invariants: a message reference and at least
// one recipient identity are required, and any explicitly requested
// channels must be known.
func (r *DeliveryRequest) Validate() error {
	if r.MessageID == "" {
		return fmt.Errorf("%w: delivery request requires a message id", ErrInvalidInput)
	}
	if r.UserID == "" && r.ContactID == "" {
		return fmt.Errorf("%w: delivery request requires a recipient identity", ErrInvalidInput)
	}
	for _, c := range r.Channels {
		if !c.Valid() {
			return fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, c)
		}
	}
	return nil
}
