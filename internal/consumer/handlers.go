package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/herald-sh/herald/internal/delivery"
	"github.com/herald-sh/herald/internal/domain"
	"github.com/herald-sh/herald/internal/storage"
)

// Deliverer is the slice of the orchestrator the handlers need.
type Deliverer interface {
	Deliver(ctx context.Context, msg *domain.Message, req *domain.DeliveryRequest) (*delivery.Result, error)
}

// senderService records the upstream service the handled events come from.
const senderService = "auth-service"

// Handlers turns typed upstream events into messages and delivery requests.
type Handlers struct {
	deliverer Deliverer
	messages  storage.MessageStore
	requests  storage.RequestStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewHandlers creates the event handlers.
func NewHandlers(d Deliverer, messages storage.MessageStore, requests storage.RequestStore, logger *slog.Logger) *Handlers {
	return &Handlers{
		deliverer: d,
		messages:  messages,
		requests:  requests,
		logger:    logger,
		now:       time.Now,
	}
}

// RegisterAll wires every known upstream event into the registry.
func (h *Handlers) RegisterAll(r *Registry) {
	r.Register(Entry{
		EventType: EventPasswordResetRequested,
		Detect:    detectEventType(EventPasswordResetRequested),
		Handle:    h.handlePasswordReset,
	})
	r.Register(Entry{
		EventType: EventEmailVerificationRequested,
		Detect:    detectEventType(EventEmailVerificationRequested),
		Handle:    h.handleEmailVerification,
	})
	r.Register(Entry{
		EventType: EventSecurityAlert,
		Detect:    detectEventType(EventSecurityAlert),
		Handle:    h.handleSecurityAlert,
	})
}

func (h *Handlers) handlePasswordReset(ctx context.Context, body []byte) error {
	var ev PasswordResetRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decoding password reset event: %w", err)
	}
	if ev.UserID == "" {
		return fmt.Errorf("%w: password reset event missing user_id", domain.ErrInvalidInput)
	}

	msg := &domain.Message{
		ID:            uuid.NewString(),
		SenderService: senderService,
		Title:         "Reset your password",
		Content: fmt.Sprintf(
			"We received a request to reset your password.\n\n"+
				"[Reset password](%s)\n\n"+
				"The link expires at %s. If you did not request this, you can ignore this message.",
			ev.ResetURL, ev.ExpiresAt.UTC().Format(time.RFC1123)),
		PlainText: fmt.Sprintf("Reset your password: %s (expires %s)",
			ev.ResetURL, ev.ExpiresAt.UTC().Format(time.RFC1123)),
		Format: domain.ContentFormatMarkdown,
		// Reset links are secrets: never sent over SMS.
		Sensitive: true,
		Urgency:   domain.UrgencyImportant,
		CreatedAt: h.now().UTC(),
	}

	return h.deliver(ctx, msg, ev.UserID, ev.CorrelationID, "password_reset")
}

func (h *Handlers) handleEmailVerification(ctx context.Context, body []byte) error {
	var ev EmailVerificationRequested
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decoding email verification event: %w", err)
	}
	if ev.UserID == "" || ev.Code == "" {
		return fmt.Errorf("%w: verification event missing user_id or code", domain.ErrInvalidInput)
	}

	msg := &domain.Message{
		ID:            uuid.NewString(),
		SenderService: senderService,
		Title:         "Verify your email address",
		Content: fmt.Sprintf(
			"Your verification code is **%s**.\n\nIt expires at %s.",
			ev.Code, ev.ExpiresAt.UTC().Format(time.RFC1123)),
		PlainText: fmt.Sprintf("Your verification code is %s", ev.Code),
		Format:    domain.ContentFormatMarkdown,
		Sensitive: true,
		Urgency:   domain.UrgencyImportant,
		CreatedAt: h.now().UTC(),
	}

	return h.deliver(ctx, msg, ev.UserID, ev.CorrelationID, "email_verification")
}

func (h *Handlers) handleSecurityAlert(ctx context.Context, body []byte) error {
	var ev SecurityAlert
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("decoding security alert event: %w", err)
	}
	if ev.UserID == "" {
		return fmt.Errorf("%w: security alert event missing user_id", domain.ErrInvalidInput)
	}

	detail := ev.Activity
	if ev.IPAddress != "" {
		detail = fmt.Sprintf("%s (from %s)", detail, ev.IPAddress)
	}
	msg := &domain.Message{
		ID:            uuid.NewString(),
		SenderService: senderService,
		Title:         "Security alert on your account",
		Content: fmt.Sprintf(
			"We noticed the following activity on your account at %s:\n\n> %s\n\n"+
				"If this was you, no action is needed. Otherwise, change your password immediately.",
			ev.OccurredAt.UTC().Format(time.RFC1123), detail),
		PlainText: fmt.Sprintf("Security alert: %s at %s",
			detail, ev.OccurredAt.UTC().Format(time.RFC1123)),
		Format: domain.ContentFormatMarkdown,
		// Urgent: reaches every channel and bypasses quiet hours.
		Urgency:   domain.UrgencyUrgent,
		CreatedAt: h.now().UTC(),
	}

	return h.deliver(ctx, msg, ev.UserID, ev.CorrelationID, "security_alert")
}

// deliver persists the message and request, then runs the orchestrator.
// The correlation id is the idempotency key: a broker redelivery of an
// already-seen event reuses the stored message and request, so new attempt
// rows append to the same request with incremented attempt numbers. The
// correlation id defaults to a fresh uuid when the producer sent none.
func (h *Handlers) deliver(ctx context.Context, msg *domain.Message, userID, correlationID, templateName string) error {
	if correlationID == "" {
		correlationID = uuid.NewString()
	}

	req, err := h.requests.FindByCorrelationID(ctx, correlationID)
	if err != nil {
		return fmt.Errorf("looking up request by correlation id: %w", err)
	}
	if req != nil {
		stored, err := h.messages.GetMessage(ctx, req.MessageID)
		if err != nil {
			return fmt.Errorf("loading message for redelivery: %w", err)
		}
		msg = stored
		h.logger.Info("reusing delivery request for redelivered event",
			"correlation_id", correlationID, "request_id", req.ID)
	} else {
		if err := h.messages.CreateMessage(ctx, msg); err != nil {
			return fmt.Errorf("persisting message: %w", err)
		}

		req = &domain.DeliveryRequest{
			ID:            uuid.NewString(),
			MessageID:     msg.ID,
			CorrelationID: correlationID,
			UserID:        userID,
			TemplateName:  templateName,
			CreatedAt:     h.now().UTC(),
		}
		if err := h.requests.CreateRequest(ctx, req); err != nil {
			return fmt.Errorf("persisting delivery request: %w", err)
		}
	}

	res, err := h.deliverer.Deliver(ctx, msg, req)
	if err != nil {
		return err
	}
	h.logger.Info("event delivered",
		"correlation_id", correlationID,
		"request_id", req.ID,
		"channels", res.Channels,
		"skipped", res.Skipped,
		"delivered", res.Delivered)
	return nil
}
