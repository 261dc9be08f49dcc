package resolver_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/resolver"
)

// quietPref returns a preference whose quiet-hours window covers the whole
// day, so any instant falls inside it.
func quietPref() *domain.ChannelPreference {
	return &domain.ChannelPreference{
		UserID:          "u1",
		EmailEnabled:    true,
		SMSEnabled:      true,
		QuietHoursStart: "00:00",
		QuietHoursEnd:   "23:59",
		QuietHoursTZ:    "UTC",
	}
}

func noon() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }

func TestResolve_SensitiveAlwaysEmailOnly(t *testing.T) {
	// Sensitive wins over everything: disabled email preference, urgent
	// urgency and an active quiet-hours window are all ignored.
	pref := quietPref()
	pref.EmailEnabled = false

	res := resolver.Resolve(resolver.Input{
		Sensitive:  true,
		Urgency:    domain.UrgencyUrgent,
		Preference: pref,
		Requested:  []domain.Channel{domain.ChannelSMS},
		Now:        noon(),
	})

	assert.Equal(t, []domain.Channel{domain.ChannelEmail}, res.Channels)
	assert.Equal(t, []domain.Channel{domain.ChannelSMS}, res.Skipped)
	assert.False(t, res.InQuietHours)
	assert.Nil(t, res.QuietHoursEndAt)
}

func TestResolve_UrgentBothChannelsBypassesQuietHours(t *testing.T) {
	pref := quietPref()
	pref.EmailEnabled = false
	pref.SMSEnabled = false

	res := resolver.Resolve(resolver.Input{
		Urgency:    domain.UrgencyUrgent,
		Preference: pref,
		Now:        noon(),
	})

	assert.Equal(t, []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}, res.Channels)
	assert.Empty(t, res.Skipped)
	assert.False(t, res.InQuietHours)
}

func TestResolve_ImportantForcesEmail(t *testing.T) {
	pref := &domain.ChannelPreference{UserID: "u1", EmailEnabled: false, SMSEnabled: false}

	res := resolver.Resolve(resolver.Input{
		Urgency:    domain.UrgencyImportant,
		Preference: pref,
		Now:        noon(),
	})

	assert.Equal(t, []domain.Channel{domain.ChannelEmail}, res.Channels)
	assert.Equal(t, []domain.Channel{domain.ChannelSMS}, res.Skipped)
}

func TestResolve_ImportantKeepsSMSWhenEnabled(t *testing.T) {
	pref := &domain.ChannelPreference{UserID: "u1", EmailEnabled: false, SMSEnabled: true}

	res := resolver.Resolve(resolver.Input{
		Urgency:    domain.UrgencyImportant,
		Preference: pref,
		Now:        noon(),
	})

	assert.Equal(t, []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}, res.Channels)
	assert.Empty(t, res.Skipped)
}

func TestResolve_NormalExplicitListFiltersByPreference(t *testing.T) {
	pref := &domain.ChannelPreference{UserID: "u1", EmailEnabled: true, SMSEnabled: false}

	res := resolver.Resolve(resolver.Input{
		Urgency:    domain.UrgencyNormal,
		Preference: pref,
		Requested:  []domain.Channel{domain.ChannelEmail, domain.ChannelSMS},
		Now:        noon(),
	})

	assert.Equal(t, []domain.Channel{domain.ChannelEmail}, res.Channels)
	assert.Equal(t, []domain.Channel{domain.ChannelSMS}, res.Skipped)
}

func TestResolve_NormalNoListUsesEnabledChannels(t *testing.T) {
	pref := &domain.ChannelPreference{UserID: "u1", EmailEnabled: false, SMSEnabled: true}

	res := resolver.Resolve(resolver.Input{
		Urgency:    domain.UrgencyNormal,
		Preference: pref,
		Now:        noon(),
	})

	assert.Equal(t, []domain.Channel{domain.ChannelSMS}, res.Channels)
	assert.Equal(t, []domain.Channel{domain.ChannelEmail}, res.Skipped)
}

func TestResolve_NilPreferenceDefaults(t *testing.T) {
	res := resolver.Resolve(resolver.Input{Urgency: domain.UrgencyNormal, Now: noon()})

	assert.Equal(t, []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}, res.Channels)
	assert.Empty(t, res.Skipped)
	assert.False(t, res.InQuietHours)
}

func TestResolve_QuietHoursAnnotatedNotBlocking(t *testing.T) {
	res := resolver.Resolve(resolver.Input{
		Urgency:    domain.UrgencyNormal,
		Preference: quietPref(),
		Now:        noon(),
	})

	// The channel set is still produced; quiet hours only annotate it.
	assert.Equal(t, []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}, res.Channels)
	assert.True(t, res.InQuietHours)
	assert.NotNil(t, res.QuietHoursEndAt)
}

func TestResolve_MalformedQuietHoursIgnored(t *testing.T) {
	pref := quietPref()
	pref.QuietHoursTZ = "Not/AZone"

	res := resolver.Resolve(resolver.Input{
		Urgency:    domain.UrgencyNormal,
		Preference: pref,
		Now:        noon(),
	})

	assert.False(t, res.InQuietHours)
	assert.Len(t, res.Channels, 2)
}
