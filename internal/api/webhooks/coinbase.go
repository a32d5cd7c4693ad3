package webhooks

import (
	"encoding/json"
	"net/http"

	"contextlattice-console/internal/billing"
	domain "contextlattice-console/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

// coinbasePayload is the shape of a Coinbase Commerce webhook body.
type coinbasePayload struct {
	Event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	} `json:"event"`
}

// Coinbase handles POST /webhooks/coinbase.
func (h *Handler) Coinbase(c *gin.Context) {
	requestID := c.GetString("request_id")

	secret := h.cfg.Coinbase.WebhookSecret
	if secret == "" {
		respondError(c, http.StatusInternalServerError, "Missing webhook secret")
		return
	}

	body, err := readRawBody(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "Error reading request body")
		return
	}

	signature := c.GetHeader("x-cc-webhook-signature")
	if !billing.VerifySharedSecretSignature(secret, body, signature) {
		respondError(c, http.StatusBadRequest, "Invalid signature")
		return
	}

	var payload coinbasePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid payload")
		return
	}

	eventID := payload.Event.ID
	if eventID == "" {
		// Malformed events without an id collapse into one sentinel row.
		// Known limitation; kept deliberately.
		eventID = "coinbase-unknown"
	}
	eventType := payload.Event.Type
	reference := payload.Event.Data.ID

	in := billing.EventInput{
		Provider:  domain.ProviderCoinbase,
		EventID:   eventID,
		EventType: eventType,
		Payload:   string(body),
		RequestID: &requestID,
	}

	in.Status = domain.EventReceived
	if _, err := h.store.RecordEvent(c.Request.Context(), in); err != nil {
		h.log.Error().Err(err).Str("request_id", requestID).Msg("coinbase: record received event")
		respondError(c, http.StatusInternalServerError, "Webhook processing failed")
		return
	}

	if reference != "" {
		status := domain.CoinbaseEventStatus(eventType)
		if _, err := h.store.UpdateIntentStatus(c.Request.Context(), domain.ProviderCoinbase, reference, status); err != nil {
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
		Msg("coinbase webhook processed")
	respondOK(c)
}
