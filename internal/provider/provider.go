// Package provider defines the narrow send contracts the engine depends on
// and ships the default implementations: SMTP for email and a JSON HTTP
// gateway for SMS. Vendor specifics stay behind these interfaces; the
// dispatch layer never sees them.
package provider

import "context"

// EmailMessage is one outbound email.
type EmailMessage struct {
	To        string
	Subject   string
	HTML      string
	PlainText string
	ReplyTo   string
}

// EmailProvider is the send contract for email backends. Send returns the
// provider-assigned message id on success.
type EmailProvider interface {
	Send(ctx context.Context, msg EmailMessage) (string, error)
}

// SMSProvider is the send contract for SMS backends. Send returns the
// provider-assigned message id on success.
type SMSProvider interface {
	Send(ctx context.Context, to, body string) (string, error)
}
