// Package domain holds the delivery engine's core model: messages, delivery
// requests and attempts, recipient channel preferences, and rendering
// templates, together with the attempt state machine and shared error values.
package domain

// Channel identifies a delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// AllChannels lists every supported channel in dispatch order.
var AllChannels = []Channel{ChannelEmail, ChannelSMS}

// Valid reports whether c is a known channel.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS:
		return true
	}
	return false
}

// Urgency classifies message priority. It drives channel forcing and
// quiet-hours bypass during resolution.
type Urgency string

const (
	UrgencyNormal    Urgency = "normal"
	UrgencyImportant Urgency = "important"
	UrgencyUrgent    Urgency = "urgent"
)

// Valid reports whether u is a known urgency level.
func (u Urgency) Valid() bool {
	switch u {
	case UrgencyNormal, UrgencyImportant, UrgencyUrgent:
		return true
	}
	return false
}

// ContentFormat describes how Message.Content is encoded.
type ContentFormat string

const (
	ContentFormatMarkdown ContentFormat = "markdown"
	ContentFormatPlain    ContentFormat = "plain"
)
