package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herald-sh/herald/internal/domain"
)

func TestAttemptTransition_PendingToSent(t *testing.T) {
	a := domain.DeliveryAttempt{Status: domain.AttemptPending}
	err := a.Transition(domain.AttemptSent, domain.AttemptTransition{ProviderMessageID: "msg-1"})

	require.NoError(t, err)
	assert.Equal(t, domain.AttemptSent, a.Status)
	assert.Equal(t, "msg-1", a.ProviderMessageID)
	assert.True(t, a.Terminal())
}

func TestAttemptTransition_PendingToFailed(t *testing.T) {
	retryAt := time.Now().Add(5 * time.Second)
	a := domain.DeliveryAttempt{Status: domain.AttemptPending}
	err := a.Transition(domain.AttemptFailed, domain.AttemptTransition{
		Error:       "provider unavailable",
		NextRetryAt: &retryAt,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.AttemptFailed, a.Status)
	assert.Equal(t, "provider unavailable", a.Error)
	require.NotNil(t, a.NextRetryAt)
	assert.True(t, retryAt.Equal(*a.NextRetryAt))
}

func TestAttemptTransition_TerminalStatesRejectEverything(t *testing.T) {
	targets := []domain.AttemptStatus{domain.AttemptPending, domain.AttemptSent, domain.AttemptFailed}
	for _, from := range []domain.AttemptStatus{domain.AttemptSent, domain.AttemptFailed} {
		for _, to := range targets {
			a := domain.DeliveryAttempt{Status: from}
			err := a.Transition(to, domain.AttemptTransition{})
			assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s must be rejected", from, to)
			assert.Equal(t, from, a.Status, "status must not change on rejected transition")
		}
	}
}

func TestAttemptTransition_PendingToPendingRejected(t *testing.T) {
	a := domain.DeliveryAttempt{Status: domain.AttemptPending}
	err := a.Transition(domain.AttemptPending, domain.AttemptTransition{})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestChannelPreference_Validate(t *testing.T) {
	tests := []struct {
		name    string
		pref    domain.ChannelPreference
		wantErr bool
	}{
		{
			name: "valid without quiet hours",
			pref: domain.ChannelPreference{UserID: "u1", EmailEnabled: true, SMSEnabled: true},
		},
		{
			name: "valid with quiet hours",
			pref: domain.ChannelPreference{
				UserID: "u1", QuietHoursStart: "22:00", QuietHoursEnd: "07:00", QuietHoursTZ: "Europe/Berlin",
			},
		},
		{
			name:    "both identities set",
			pref:    domain.ChannelPreference{UserID: "u1", ContactID: "c1"},
			wantErr: true,
		},
		{
			name:    "no identity",
			pref:    domain.ChannelPreference{},
			wantErr: true,
		},
		{
			name:    "partial quiet hours",
			pref:    domain.ChannelPreference{UserID: "u1", QuietHoursStart: "22:00"},
			wantErr: true,
		},
		{
			name: "malformed clock",
			pref: domain.ChannelPreference{
				UserID: "u1", QuietHoursStart: "25:00", QuietHoursEnd: "07:00", QuietHoursTZ: "UTC",
			},
			wantErr: true,
		},
		{
			name: "unknown timezone",
			pref: domain.ChannelPreference{
				UserID: "u1", QuietHoursStart: "22:00", QuietHoursEnd: "07:00", QuietHoursTZ: "Mars/Olympus",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.pref.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMessage_Validate(t *testing.T) {
	m := domain.Message{Title: "t", Content: "c"}
	assert.ErrorIs(t, m.Validate(), domain.ErrInvalidInput)

	m.SenderService = "auth-service"
	assert.NoError(t, m.Validate())

	m.Urgency = "critical"
	assert.ErrorIs(t, m.Validate(), domain.ErrInvalidInput)
}
