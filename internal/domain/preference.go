package domain

import (
	"fmt"
	"regexp"
	"time"
)

var clockRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ChannelPreference holds per-recipient channel enablement and an optional
// quiet-hours window. Exactly one of UserID/ContactID identifies the
// recipient. The quiet-hours fields are all-or-nothing: either all three
// are set or all are empty.
type ChannelPreference struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id,omitempty"`
	ContactID       string    `json:"contact_id,omitempty"`
	EmailEnabled    bool      `json:"email_enabled"`
	SMSEnabled      bool      `json:"sms_enabled"`
	QuietHoursStart string    `json:"quiet_hours_start,omitempty"` // local "HH:MM"
	QuietHoursEnd   string    `json:"quiet_hours_end,omitempty"`   // local "HH:MM"
	QuietHoursTZ    string    `json:"quiet_hours_tz,omitempty"`    // IANA zone name
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultChannelPreference returns the preference applied when a recipient
// has none stored: both channels enabled, no quiet hours.
func DefaultChannelPreference() *ChannelPreference {
	return &ChannelPreference{EmailEnabled: true, SMSEnabled: true}
}

// HasQuietHours reports whether a fully-specified quiet-hours window is set.
func (p *ChannelPreference) HasQuietHours() bool {
	return p.QuietHoursStart != "" && p.QuietHoursEnd != "" && p.QuietHoursTZ != ""
}

// Enabled reports whether the given channel is enabled by this preference.
func (p *ChannelPreference) Enabled(c Channel) bool {
	switch c {
	case ChannelEmail:
		return p.EmailEnabled
	case ChannelSMS:
		return p.SMSEnabled
	}
	return false
}

// Validate checks the preference invariants: exactly one recipient identity,
// and the quiet-hours fields either fully set and well-formed or fully empty.
func (p *ChannelPreference) Validate() error {
	if (p.UserID == "") == (p.ContactID == "") {
		return fmt.Errorf("%w: exactly one of user_id/contact_id must be set", ErrInvalidInput)
	}

	set := 0
	for _, v := range []string{p.QuietHoursStart, p.QuietHoursEnd, p.QuietHoursTZ} {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil
	case 3:
	default:
		return fmt.Errorf("%w: quiet hours require start, end and timezone together", ErrInvalidInput)
	}

	if !clockRe.MatchString(p.QuietHoursStart) {
		return fmt.Errorf("%w: quiet_hours_start %q is not HH:MM", ErrInvalidInput, p.QuietHoursStart)
	}
	if !clockRe.MatchString(p.QuietHoursEnd) {
		return fmt.Errorf("%w: quiet_hours_end %q is not HH:MM", ErrInvalidInput, p.QuietHoursEnd)
	}
	if _, err := time.LoadLocation(p.QuietHoursTZ); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidInput, p.QuietHoursTZ)
	}
	return nil
}
