// Package consumer subscribes to the upstream event queue, dispatches each
// message to its event handler through a registry, and schedules broker-side
// retries for transient failures. Adding a new upstream event type means
// adding one registry entry and one handler; the consume loop never changes.
package consumer

import "context"

// Entry describes one known upstream event shape.
type Entry struct {
	// EventType is the canonical name, used for logging and metrics.
	EventType string
	// Detect structurally matches a raw message body. First match wins.
	Detect func(body []byte) bool
	// Handle decodes the body and runs the event's delivery flow.
	Handle func(ctx context.Context, body []byte) error
}

// Registry is an ordered collection of event entries.
type Registry struct {
	entries []Entry
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry { return &Registry{} }

// Register appends an entry. Order matters: Match returns the first entry
// whose Detect accepts the body.
func (r *Registry) Register(e Entry) {
	r.entries = append(r.entries, e)
}

// Match returns the first entry that detects the body.
func (r *Registry) Match(body []byte) (Entry, bool) {
	for _, e := range r.entries {
		if e.Detect(body) {
			return e, true
		}
	}
	return Entry{}, false
}
