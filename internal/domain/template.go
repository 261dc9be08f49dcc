package domain

import (
	"fmt"
	"time"
)

// TemplateWrapper is a named, channel-scoped rendering template. The
// name+channel pair is the external lookup key; inactive templates are
// ignored at render time.
type TemplateWrapper struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Channel         Channel   `json:"channel"`
	SubjectTemplate string    `json:"subject_template,omitempty"`
	BodyTemplate    string    `json:"body_template"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Validate checks the template invariants.
func (t *TemplateWrapper) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: template requires a name", ErrInvalidInput)
	}
	if !t.Channel.Valid() {
		return fmt.Errorf("%w: unknown channel %q", ErrInvalidInput, t.Channel)
	}
	if t.BodyTemplate == "" {
		return fmt.Errorf("%w: template requires a body", ErrInvalidInput)
	}
	return nil
}
