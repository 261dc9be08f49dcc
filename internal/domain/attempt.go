package domain

import (
	"fmt"
	"time"
)

// AttemptStatus is the state of a single physical send try.
type AttemptStatus string

const (
	AttemptPending AttemptStatus = "pending"
	AttemptSent    AttemptStatus = "sent"
	AttemptFailed  AttemptStatus = "failed"
)

// attemptTransitions is the adjacency table of allowed status transitions.
// sent and failed are terminal: a retry is a new attempt row, never a
// transition of the old one.
var attemptTransitions = map[AttemptStatus][]AttemptStatus{
	AttemptPending: {AttemptSent, AttemptFailed},
	AttemptSent:    {},
	AttemptFailed:  {},
}

// DeliveryAttempt records one physical try on one channel. AttemptNumber is
// 1-based and increments per retry on the same channel.
type DeliveryAttempt struct {
	ID                string        `json:"id"`
	RequestID         string        `json:"request_id"`
	Channel           Channel       `json:"channel"`
	RecipientAddress  string        `json:"recipient_address"`
	Status            AttemptStatus `json:"status"`
	ProviderMessageID string        `json:"provider_message_id,omitempty"`
	Error             string        `json:"error,omitempty"`
	AttemptNumber     int           `json:"attempt_number"`
	CreatedAt         time.Time     `json:"created_at"`
	NextRetryAt       *time.Time    `json:"next_retry_at,omitempty"`
}

// AttemptTransition carries optional metadata applied alongside a status
// transition. NextRetryAt is informational, set by the caller that schedules
// the retry; it is never computed here.
type AttemptTransition struct {
	ProviderMessageID string
	Error             string
	NextRetryAt       *time.Time
}

// Transition moves the attempt to the target status after validating it
// against the adjacency table. An attempt in a terminal state rejects every
// transition, including self-transitions.
func (a *DeliveryAttempt) Transition(to AttemptStatus, meta AttemptTransition) error {
	allowed := attemptTransitions[a.Status]
	ok := false
	for _, s := range allowed {
		if s == to {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}

	a.Status = to
	if meta.ProviderMessageID != "" {
		a.ProviderMessageID = meta.ProviderMessageID
	}
	if meta.Error != "" {
		a.Error = meta.Error
	}
	if meta.NextRetryAt != nil {
		a.NextRetryAt = meta.NextRetryAt
	}
	return nil
}

// Terminal reports whether the attempt has reached a terminal status.
func (a *DeliveryAttempt) Terminal() bool {
	return a.Status == AttemptSent || a.Status == AttemptFailed
}
