// Package delivery orchestrates one delivery request end to end: channel
// resolution, per-channel dispatch, attempt persistence, and the
// distinguished retryable-failure signal the consumer layer keys off.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/herald-sh/herald/internal/dispatch"
	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/metrics"
	"github.com/herald-sh/herald/internal/resolver"
	"github.com/herald-sh/herald/internal/storage"
)

// ErrDeliveryRetryable is returned when every attempted channel failed to
// dispatch. It marks the failure as transient: the consumer layer schedules
// a retry instead of treating it as terminal.
var ErrDeliveryRetryable = errors.New("delivery failed on all attempted channels")

// AddressResolver resolves a recipient identity into zero or more delivery
// addresses. An empty result is not an error. The concrete lookup (user
// directory, CRM, …) is an external collaborator.
type AddressResolver interface {
	ResolveAddresses(ctx context.Context, userID, contactID string) ([]domain.RecipientAddress, error)
}

// Config holds the orchestrator's dependencies.
type Config struct {
	Dispatchers dispatch.Registry
	Addresses   AddressResolver
	Preferences storage.PreferenceStore
	Templates   storage.TemplateStore
	Requests    storage.RequestStore
	Attempts    storage.AttemptStore
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Deliverer runs delivery requests.
type Deliverer struct {
	cfg Config
}

// Result describes the outcome of one delivery request.
type Result struct {
	RequestID string
	Channels  []domain.Channel
	Skipped   []domain.Channel
	// InQuietHours and QuietHoursEndAt carry the advisory quiet-hours
	// verdict; dispatch is not held, callers decide what to do with it.
	InQuietHours    bool
	QuietHoursEndAt *time.Time
	Attempts        []domain.DeliveryAttempt
	// Delivered is true when at least one channel was sent successfully.
	Delivered bool
}

// New creates a Deliverer.
func New(cfg Config) *Deliverer {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Deliverer{cfg: cfg}
}

// Deliver runs one delivery request. Validation and missing-recipient
// failures are terminal (wrapped domain.ErrInvalidInput / domain.ErrNotFound);
// only the all-attempted-channels-failed condition returns
// ErrDeliveryRetryable. Per-channel dispatch failures never abort the other
// channels; each becomes its own attempt row. A request where nothing was
// attempted at all (no resolved channels, no matching addresses, or no
// dispatcher for any eligible channel) is still marked processed: retrying
// it cannot change the outcome.
func (d *Deliverer) Deliver(ctx context.Context, msg *domain.Message, req *domain.DeliveryRequest) (*Result, error) {
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("validating message: %w", err)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validating delivery request: %w", err)
	}

	pref, err := d.lookupPreference(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("loading channel preference: %w", err)
	}

	now := d.cfg.Now().UTC()
	res := resolver.Resolve(resolver.Input{
		Requested:  req.Channels,
		Preference: pref,
		Sensitive:  msg.Sensitive,
		Urgency:    msg.EffectiveUrgency(),
		Now:        now,
	})

	result := &Result{
		RequestID:       req.ID,
		Channels:        res.Channels,
		Skipped:         res.Skipped,
		InQuietHours:    res.InQuietHours,
		QuietHoursEndAt: res.QuietHoursEndAt,
	}
	if res.InQuietHours {
		d.cfg.Logger.Info("delivery inside recipient quiet hours",
			"request_id", req.ID, "quiet_hours_end_at", res.QuietHoursEndAt)
	}

	addresses, err := d.cfg.Addresses.ResolveAddresses(ctx, req.UserID, req.ContactID)
	if err != nil {
		return nil, fmt.Errorf("resolving recipient addresses: %w", err)
	}

	attempted, succeeded := 0, 0
	for _, ch := range res.Channels {
		dispatcher, ok := d.cfg.Dispatchers[ch]
		if !ok {
			d.cfg.Logger.Warn("no dispatcher registered for channel", "channel", ch)
			result.Skipped = append(result.Skipped, ch)
			continue
		}
		address := addressFor(addresses, ch)
		if address == "" {
			d.cfg.Logger.Info("recipient has no address for channel",
				"request_id", req.ID, "channel", ch)
			result.Skipped = append(result.Skipped, ch)
			continue
		}

		attempt, err := d.dispatchChannel(ctx, dispatcher, msg, req, ch, address)
		if err != nil {
			return nil, err
		}
		result.Attempts = append(result.Attempts, *attempt)
		attempted++
		if attempt.Status == domain.AttemptSent {
			succeeded++
		}
	}

	if attempted == 0 || succeeded > 0 {
		processedAt := d.cfg.Now().UTC()
		if err := d.cfg.Requests.MarkProcessed(ctx, req.ID, processedAt); err != nil {
			d.cfg.Logger.Error("marking request processed", "request_id", req.ID, "error", err)
		} else {
			req.ProcessedAt = &processedAt
		}
	}

	result.Delivered = succeeded > 0
	if attempted > 0 && succeeded == 0 {
		return result, fmt.Errorf("%w: request %s", ErrDeliveryRetryable, req.ID)
	}
	return result, nil
}

// dispatchChannel runs one channel attempt: create the pending row, call
// the dispatcher, and record the terminal outcome.
func (d *Deliverer) dispatchChannel(
	ctx context.Context,
	dispatcher dispatch.Dispatcher,
	msg *domain.Message,
	req *domain.DeliveryRequest,
	ch domain.Channel,
	address string,
) (*domain.DeliveryAttempt, error) {
	prior, err := d.cfg.Attempts.CountChannelAttempts(ctx, req.ID, ch)
	if err != nil {
		return nil, fmt.Errorf("counting prior attempts: %w", err)
	}

	attempt := &domain.DeliveryAttempt{
		ID:               uuid.NewString(),
		RequestID:        req.ID,
		Channel:          ch,
		RecipientAddress: address,
		Status:           domain.AttemptPending,
		AttemptNumber:    prior + 1,
		CreatedAt:        d.cfg.Now().UTC(),
	}
	if err := d.cfg.Attempts.CreateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("creating attempt row: %w", err)
	}

	title, content, plain := d.renderForChannel(ctx, msg, req, ch)
	out := dispatcher.Dispatch(ctx, address, title, content, plain)

	var transErr error
	if out.Success {
		transErr = attempt.Transition(domain.AttemptSent, domain.AttemptTransition{
			ProviderMessageID: out.ProviderMessageID,
		})
	} else {
		transErr = attempt.Transition(domain.AttemptFailed, domain.AttemptTransition{
			Error: out.Err,
		})
	}
	if transErr != nil {
		return nil, fmt.Errorf("recording attempt outcome: %w", transErr)
	}
	if err := d.cfg.Attempts.UpdateAttempt(ctx, attempt); err != nil {
		return nil, fmt.Errorf("updating attempt row: %w", err)
	}

	if d.cfg.Metrics != nil {
		d.cfg.Metrics.ObserveAttempt(string(ch), string(attempt.Status))
	}
	if attempt.Status == domain.AttemptFailed {
		d.cfg.Logger.Warn("channel dispatch failed",
			"request_id", req.ID, "channel", ch,
			"attempt_number", attempt.AttemptNumber, "error", attempt.Error)
	} else {
		d.cfg.Logger.Info("channel dispatch succeeded",
			"request_id", req.ID, "channel", ch,
			"provider_message_id", attempt.ProviderMessageID)
	}
	return attempt, nil
}

// renderForChannel applies the request's named template when one exists for
// the channel. Template problems fall back to the raw message content; they
// must not fail delivery.
func (d *Deliverer) renderForChannel(
	ctx context.Context,
	msg *domain.Message,
	req *domain.DeliveryRequest,
	ch domain.Channel,
) (title, content, plain string) {
	title, content, plain = msg.Title, msg.Content, msg.FallbackText()
	if req.TemplateName == "" || d.cfg.Templates == nil {
		return title, content, plain
	}

	tmpl, err := d.cfg.Templates.FindTemplate(ctx, req.TemplateName, ch)
	if err != nil {
		d.cfg.Logger.Warn("template lookup failed",
			"template", req.TemplateName, "channel", ch, "error", err)
		return title, content, plain
	}
	if tmpl == nil {
		return title, content, plain
	}

	rendered, err := renderTemplate(tmpl, msg)
	if err != nil {
		d.cfg.Logger.Warn("template rendering failed",
			"template", req.TemplateName, "channel", ch, "error", err)
		return title, content, plain
	}
	if rendered.Subject != "" {
		title = rendered.Subject
	}
	content = rendered.Body
	if ch == domain.ChannelSMS {
		plain = rendered.Body
	}
	return title, content, plain
}

// lookupPreference loads the recipient's stored preference, trying the user
// identity first. A missing preference is not an error; resolution falls
// back to defaults.
func (d *Deliverer) lookupPreference(ctx context.Context, req *domain.DeliveryRequest) (*domain.ChannelPreference, error) {
	if req.UserID != "" {
		pref, err := d.cfg.Preferences.FindByUserID(ctx, req.UserID)
		if err != nil || pref != nil {
			return pref, err
		}
	}
	if req.ContactID != "" {
		return d.cfg.Preferences.FindByContactID(ctx, req.ContactID)
	}
	return nil, nil
}

// addressFor picks the first resolved address usable on the channel.
func addressFor(addresses []domain.RecipientAddress, ch domain.Channel) string {
	for _, a := range addresses {
		if v := a.ForChannel(ch); v != "" {
			return v
		}
	}
	return ""
}
