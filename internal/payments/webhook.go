package payments

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"athletehub-api/internal/apperrors"
	"athletehub-api/internal/metrics"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Webhook event types the gateway recognizes. Only a completed payment-mode
// checkout session changes state; the rest are acknowledged.
const (
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

var knownEventTypes = map[string]struct{}{
	EventCheckoutSessionCompleted:              {},
	"checkout.session.expired":                 {},
	"checkout.session.async_payment_succeeded": {},
	"checkout.session.async_payment_failed":    {},
	"payment_intent.succeeded":                 {},
	"payment_intent.payment_failed":            {},
	"invoice.paid":                             {},
	"invoice.payment_failed":                   {},
	"customer.subscription.created":            {},
	"customer.subscription.updated":            {},
	"customer.subscription.deleted":            {},
}

// Webhook outcomes recorded in metrics
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeMissing   = "missing_entity"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// DefaultTolerance is the accepted age of a signed payload
const DefaultTolerance = 5 * time.Minute

// PaidMarker marks an entity paid
type PaidMarker interface {
	MarkPaid(ctx context.Context, eventID string) error
}

// WebhookProcessor verifies and applies Stripe webhook deliveries
type WebhookProcessor struct {
	secret    string
	tolerance time.Duration
	marker    PaidMarker
	logger    *logrus.Logger
}

// NewWebhookProcessor creates a processor. An empty secret disables
// signature verification, which is only acceptable in development.
func NewWebhookProcessor(secret string, marker PaidMarker, logger *logrus.Logger) *WebhookProcessor {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if secret == "" {
		logger.Warn("STRIPE_WEBHOOK_SECRET is not set; webhook signatures will not be verified")
	}
	return &WebhookProcessor{
		secret:    secret,
		tolerance: DefaultTolerance,
		marker:    marker,
		logger:    logger,
	}
}

// HandleWebhookEvent parses, verifies and applies one delivery. A nil return
// means the delivery should be acknowledged with 200.
func (p *WebhookProcessor) HandleWebhookEvent(ctx context.Context, payload []byte, signature string) error {
	if !json.Valid(payload) {
		metrics.WebhookEvents.WithLabelValues("unknown", OutcomeRejected).Inc()
		return apperrors.Malformed("webhook payload is not valid JSON", nil)
	}

	event, err := p.parse(payload, signature)
	if err != nil {
		metrics.WebhookEvents.WithLabelValues("unknown", OutcomeRejected).Inc()
		return err
	}

	eventType := string(event.Type)
	log := p.logger.WithFields(logrus.Fields{
		"stripe_event_id": event.ID,
		"event_type":      eventType,
	})

	if _, known := knownEventTypes[eventType]; !known {
		log.Debug("Ignoring unrecognized webhook event")
		metrics.WebhookEvents.WithLabelValues("other", OutcomeIgnored).Inc()
		return nil
	}
	if eventType != EventCheckoutSessionCompleted {
		log.Info("Acknowledged webhook event without side effects")
		metrics.WebhookEvents.WithLabelValues(eventType, OutcomeIgnored).Inc()
		return nil
	}

	outcome, err := p.handleCheckoutCompleted(ctx, event, log)
	metrics.WebhookEvents.WithLabelValues(eventType, outcome).Inc()
	return err
}

func (p *WebhookProcessor) parse(payload []byte, signature string) (stripe.Event, error) {
	if p.secret == "" {
		var event stripe.Event
		if err := json.Unmarshal(payload, &event); err != nil {
			return stripe.Event{}, apperrors.Malformed("webhook payload is not a Stripe event", err)
		}
		return event, nil
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		Tolerance:                p.tolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		p.logger.WithError(err).Warn("Webhook signature verification failed")
		return stripe.Event{}, apperrors.Wrap(apperrors.ErrInvalidArgument, "verify_webhook", "invalid webhook signature", err)
	}
	return event, nil
}

func (p *WebhookProcessor) handleCheckoutCompleted(ctx context.Context, event stripe.Event, log *logrus.Entry) (string, error) {
	if event.Data == nil {
		log.Warn("Checkout session event without data")
		return OutcomeIgnored, nil
	}

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return OutcomeRejected, apperrors.Malformed("checkout session object is malformed", err)
	}

	eventID := session.Metadata["eventId"]
	if session.Mode != stripe.CheckoutSessionModePayment || eventID == "" {
		log.WithField("mode", session.Mode).Info("Checkout session completed without a payable event")
		return OutcomeIgnored, nil
	}

	log = log.WithField("event_id", eventID)
	if err := p.marker.MarkPaid(ctx, eventID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Retrying will never find it; acknowledge so Stripe stops redelivering.
			log.Warn("Checkout session references an unknown event")
			return OutcomeMissing, nil
		}
		log.WithError(err).Error("Failed to mark event paid")
		return OutcomeFailed, err
	}

	log.Info("Event marked paid")
	return OutcomeProcessed, nil
}
