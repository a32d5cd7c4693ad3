package webhooks

import (
	"encoding/json"
	"net/http"
	"time"

	"contextlattice-console/internal/billing"
	domain "contextlattice-console/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

// Stripe handles POST /webhooks/stripe. Signature verification is delegated
// to the Stripe SDK; only the webhook secret is configured here.
func (h *Handler) Stripe(c *gin.Context) {
	requestID := c.GetString("request_id")

	secret := h.cfg.Stripe.WebhookSecret
	if secret == "" {
		respondError(c, http.StatusInternalServerError, "Missing webhook secret")
		return
	}

	body, err := readRawBody(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Error reading request body")
		return
	}

	sig := c.GetHeader("Stripe-Signature")
	if sig == "" {
		respondError(c, http.StatusBadRequest, "Missing signature")
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		body,
		sig,
		secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	in := billing.EventInput{
		Provider:  domain.ProviderStripe,
		EventID:   event.ID,
		EventType: string(event.Type),
		Payload:   string(body),
		RequestID: &requestID,
	}

	in.Status = domain.EventReceived
	if _, err := h.store.RecordEvent(c.Request.Context(), in); err != nil {
		h.log.Error().Err(err).Str("request_id", requestID).Msg("stripe: record received event")
		respondError(c, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	if err := h.applyStripeEvent(c, event); err != nil {
		h.recordFailed(c, in, err)
		respondError(c, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	in.Status = domain.EventProcessed
	if _, err := h.store.RecordEvent(c.Request.Context(), in); err != nil {
		h.recordFailed(c, in, err)
		respondError(c, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	h.log.Info().
		Str("event_id", event.ID).
		Str("event_type", string(event.Type)).
		Str("request_id", requestID).
		Msg("stripe webhook processed")
	respondOK(c)
}

func (h *Handler) applyStripeEvent(c *gin.Context, event stripe.Event) error {
	ctx := c.Request.Context()

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return err
		}
		if session.Customer == nil || session.Customer.ID == "" ||
			session.Subscription == nil || session.Subscription.ID == "" {
			return nil
		}
		customer, err := h.store.FindCustomer(ctx, domain.ProviderStripe, session.Customer.ID)
		if err != nil {
			return err
		}
		if customer == nil {
			// No local mapping for this Stripe customer; nothing to attach
			// the subscription to. Skipped, not an error.
			return nil
		}
		return h.store.UpsertSubscription(ctx, &domain.BillingSubscription{
			UserID:       customer.UserID,
			Provider:     domain.ProviderStripe,
			Subscription: session.Subscription.ID,
			Status:       "active",
		})

	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return err
		}
		if sub.ID == "" {
			return nil
		}
		var currentPeriodEnd *time.Time
		if sub.CurrentPeriodEnd > 0 {
			t := time.Unix(sub.CurrentPeriodEnd, 0)
			currentPeriodEnd = &t
		}
		// Provider status and period end are copied verbatim.
		_, err := h.store.UpdateSubscription(ctx, domain.ProviderStripe, sub.ID, string(sub.Status), currentPeriodEnd)
		return err
	}

	// Unknown event types are acknowledged to stop provider retries.
	return nil
}
