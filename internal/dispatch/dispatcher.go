// Package dispatch implements the per-channel delivery strategies. Each
// Dispatcher renders content the way its channel needs (markdown to
// sanitized HTML for email, plain text for SMS) and invokes the matching
// provider send contract. Failures are captured in the Outcome, never
// panicked, so the orchestrator can record them as attempt rows.
package dispatch

import (
	"context"

	"github.com/herald-sh/herald/internal/domain"
)

// Outcome is the result of one dispatch call.
type Outcome struct {
	Success           bool
	ProviderMessageID string
	// Err holds the provider or rendering failure. Empty on success.
	Err string
}

// Dispatcher is the strategy contract implemented once per channel.
type Dispatcher interface {
	// Channel returns the channel this dispatcher serves.
	Channel() domain.Channel
	// Dispatch sends the given content to address. It never returns an
	// error: all failure detail lands in the Outcome.
	Dispatch(ctx context.Context, address, title, content, plainText string) Outcome
}

// Registry maps channels to their dispatchers.
type Registry map[domain.Channel]Dispatcher

// NewRegistry builds a Registry from the given dispatchers.
func NewRegistry(dispatchers ...Dispatcher) Registry {
	r := make(Registry, len(dispatchers))
	for _, d := range dispatchers {
		r[d.Channel()] = d
	}
	return r
}
