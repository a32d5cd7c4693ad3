package webhooks

import (
	"encoding/json"
	"net/http"

	"contextlattice-console/internal/billing"
	domain "contextlattice-console/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// paypalPayload is the shape of a PayPal webhook body.
type paypalPayload struct {
	ID        string `json:"id"`
	EventType string `json:"event_type"`
	Resource  struct {
		ID string `json:"id"`
	} `json:"resource"`
}

// PayPal handles POST /webhooks/paypal.
//
// Verification here is a shared-secret HMAC placeholder, not PayPal's real
// certificate-based scheme. Proper verification needs the webhook id plus
// PayPal's cert chain; until that lands, the endpoint secret must be treated
// as the sole gate.
func (h *Handler) PayPal(c *gin.Context) {
	requestID := c.GetString("request_id")

	secret := h.cfg.PayPal.WebhookSecret
	if secret == "" {
		respondError(c, http.StatusInternalServerError, "Missing webhook secret")
		return
	}

	body, err := readRawBody(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Error reading request body")
		return
	}

	signature := c.GetHeader("paypal-signature")
	if !billing.VerifySharedSecretSignature(secret, body, signature) {
		respondError(c, http.StatusBadRequest, "Invalid signature")
		return
	}

	var payload paypalPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payload")
		return
	}

	eventID := payload.ID
	if eventID == "" {
		eventID = "paypal-unknown"
	}
	eventType := payload.EventType
	reference := payload.Resource.ID

	in := billing.EventInput{
		Provider:  domain.ProviderPayPal,
		EventID:   eventID,
		EventType: eventType,
		Payload:   string(body),
		RequestID: &requestID,
	}

	in.Status = domain.EventReceived
	if _, err := h.store.RecordEvent(c.Request.Context(), in); err != nil {
		h.log.Error().Err(err).Str("request_id", requestID).Msg("paypal: record received event")
		respondError(c, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	if reference != "" {
		status := domain.PayPalEventStatus(eventType)
		if _, err := h.store.UpdateIntentStatus(c.Request.Context(), domain.ProviderPayPal, reference, status); err != nil {
			h.recordFailed(c, in, err)
			respondError(c, http.StatusInternalServerError, "Webhook processing failed")
			return
		}
	}

	in.Status = domain.EventProcessed
	if _, err := h.store.RecordEvent(c.Request.Context(), in); err != nil {
		h.recordFailed(c, in, err)
		respondError(c, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	h.log.Info().
		Str("event_id", eventID).
		Str("event_type", eventType).
		Str("request_id", requestID).
		Msg("paypal webhook processed")
	respondOK(c)
}
