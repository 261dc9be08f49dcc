package consumer

import (
	"encoding/json"
	"time"
)

// Upstream event type names published by the auth service.
const (
	EventPasswordResetRequested     = "user.password_reset.requested"
	EventEmailVerificationRequested = "user.email_verification.requested"
	EventSecurityAlert              = "user.security_alert"
)

// PasswordResetRequested asks for a reset link to be delivered.
type PasswordResetRequested struct {
	EventType     string    `json:"event_type"`
	UserID        string    `json:"user_id"`
	ResetURL      string    `json:"reset_url"`
	ExpiresAt     time.Time `json:"expires_at"`
	CorrelationID string    `json:"correlation_id"`
}

// EmailVerificationRequested asks for a verification code to be delivered.
type EmailVerificationRequested struct {
	EventType     string    `json:"event_type"`
	UserID        string    `json:"user_id"`
	Code          string    `json:"code"`
	ExpiresAt     time.Time `json:"expires_at"`
	CorrelationID string    `json:"correlation_id"`
}

// SecurityAlert notifies a user about suspicious account activity.
type SecurityAlert struct {
	EventType     string    `json:"event_type"`
	UserID        string    `json:"user_id"`
	Activity      string    `json:"activity"`
	IPAddress     string    `json:"ip_address,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
	CorrelationID string    `json:"correlation_id"`
}

// detectEventType matches a body whose event_type field equals the given
// name. Bodies that are not JSON objects never match.
func detectEventType(name string) func(body []byte) bool {
	return func(body []byte) bool {
		var probe struct {
			EventType string `json:"event_type"`
		}
		if err := json.Unmarshal(body, &probe); err != nil {
			return false
		}
		return probe.EventType == name
	}
}
