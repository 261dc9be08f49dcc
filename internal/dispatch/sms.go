package dispatch

import (
	"context"

	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/provider"
)

// SMSDispatcher sends the plain-text content verbatim; there is no
// markdown or templating step for SMS.
type SMSDispatcher struct {
	provider provider.SMSProvider
}

// NewSMSDispatcher creates an SMSDispatcher.
func NewSMSDispatcher(p provider.SMSProvider) *SMSDispatcher {
	return &SMSDispatcher{provider: p}
}

// Channel returns the channel this dispatcher serves.
func (d *SMSDispatcher) Channel() domain.Channel { return domain.ChannelSMS }

// Dispatch sends the plain-text content to the given phone number.
func (d *SMSDispatcher) Dispatch(ctx context.Context, address, _ string, content, plainText string) Outcome {
	body := plainText
	if body == "" {
		body = content
	}
	id, err := d.provider.Send(ctx, address, body)
	if err != nil {
		return Outcome{Err: err.Error()}
	}
	return Outcome{Success: true, ProviderMessageID: id}
}
