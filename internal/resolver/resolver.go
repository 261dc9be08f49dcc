// Package resolver decides which channels carry a message. It combines
// message sensitivity and urgency with the recipient's channel preferences
// and quiet-hours window into an ordered set of channels to attempt and the
// set explicitly skipped. Resolution never fails: it always produces a
// channel set, possibly empty.
package resolver

import (
	"time"

	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/quiethours"
)

// Input carries everything resolution depends on.
type Input struct {
	// Requested is the optional explicit channel list from the delivery request.
	Requested []domain.Channel
	// Preference is the recipient's stored preference; nil means defaults
	// (both channels enabled, no quiet hours).
	Preference *domain.ChannelPreference
	Sensitive  bool
	Urgency    domain.Urgency
	// Now is the current UTC instant used for the quiet-hours check.
	Now time.Time
}

// Result is the resolution outcome. The quiet-hours verdict is advisory:
// the resolver reports it alongside the channel set and leaves the decision
// to hold delivery to the caller.
type Result struct {
	Channels        []domain.Channel
	Skipped         []domain.Channel
	InQuietHours    bool
	QuietHoursEndAt *time.Time
}

// Resolve applies the resolution rules in order; the first matching rule
// wins, with no fallthrough:
//
//  1. sensitive messages go to email only and bypass quiet hours — secrets
//     and tokens must never traverse SMS
//  2. urgent messages go to every channel and bypass quiet hours
//  3. important messages force email in; SMS follows the SMS preference
//  4. normal messages follow the explicit channel list when one was given,
//     otherwise every preference-enabled channel
func Resolve(in Input) Result {
	pref := in.Preference
	if pref == nil {
		pref = domain.DefaultChannelPreference()
	}

	if in.Sensitive {
		return Result{
			Channels: []domain.Channel{domain.ChannelEmail},
			Skipped:  []domain.Channel{domain.ChannelSMS},
		}
	}

	if in.Urgency == domain.UrgencyUrgent {
		return Result{Channels: []domain.Channel{domain.ChannelEmail, domain.ChannelSMS}}
	}

	var res Result
	switch {
	case in.Urgency == domain.UrgencyImportant:
		res.Channels = append(res.Channels, domain.ChannelEmail)
		if pref.SMSEnabled {
			res.Channels = append(res.Channels, domain.ChannelSMS)
		} else {
			res.Skipped = append(res.Skipped, domain.ChannelSMS)
		}

	case len(in.Requested) > 0:
		for _, c := range in.Requested {
			if pref.Enabled(c) {
				res.Channels = append(res.Channels, c)
			} else {
				res.Skipped = append(res.Skipped, c)
			}
		}

	default:
		for _, c := range domain.AllChannels {
			if pref.Enabled(c) {
				res.Channels = append(res.Channels, c)
			} else {
				res.Skipped = append(res.Skipped, c)
			}
		}
	}

	res.InQuietHours, res.QuietHoursEndAt = checkQuietHours(pref, in.Now)
	return res
}

// checkQuietHours evaluates the preference's quiet-hours window. A missing
// or malformed window never blocks resolution; it simply reads as
// not-in-quiet-hours.
func checkQuietHours(pref *domain.ChannelPreference, now time.Time) (bool, *time.Time) {
	if !pref.HasQuietHours() {
		return false, nil
	}
	v, err := quiethours.Evaluate(quiethours.Window{
		Start:    pref.QuietHoursStart,
		End:      pref.QuietHoursEnd,
		Timezone: pref.QuietHoursTZ,
	}, now)
	if err != nil || !v.InQuietHours {
		return false, nil
	}
	ends := v.EndsAt
	return true, &ends
}
