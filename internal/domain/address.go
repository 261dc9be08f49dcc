package domain

// RecipientAddress is one resolved delivery endpoint for a recipient.
// Either field may be empty; a recipient can have several addresses.
type RecipientAddress struct {
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// ForChannel returns the address string usable on the given channel, or ""
// when this address cannot serve it.
func (a RecipientAddress) ForChannel(c Channel) string {
	switch c {
	case ChannelEmail:
		return a.Email
	case ChannelSMS:
		return a.Phone
	}
	return ""
}
