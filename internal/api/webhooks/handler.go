// Package webhooks hosts the inbound payment-provider webhook endpoints.
// Every handler follows the same shape: verify the signature over the raw
// body, upsert the event as received, map the event onto the intent ledger,
// then upsert the event as processed or failed. Nothing is persisted before
// the signature check passes, and no outbound calls are made from this path.
package webhooks

import (
	"io"
	"net/http"

	"contextlattice-console/config"
	"contextlattice-console/internal/billing"
	domain "contextlattice-console/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxWebhookBody = 65536

type Handler struct {
	store billing.Store
	cfg   *config.Config
	log   zerolog.Logger
}

func NewHandler(store billing.Store, cfg *config.Config, log zerolog.Logger) *Handler {
	return &Handler{store: store, cfg: cfg, log: log.With().Str("component", "webhooks").Logger()}
}

// readRawBody returns the exact request bytes. Signature verification needs
// them unparsed and unmodified.
func readRawBody(c *gin.Context) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	return io.ReadAll(c.Request.Body)
}

func respondOK(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func respondError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"ok": false, "error": msg})
}

// recordFailed marks the event failed with the processing error attached.
// Best effort: the webhook response already reports failure, so the provider
// retries delivery either way.
func (h *Handler) recordFailed(c *gin.Context, in billing.EventInput, procErr error) {
	msg := procErr.Error()
	in.Status = domain.EventFailed
	in.Error = &msg
	if _, err := h.store.RecordEvent(c.Request.Context(), in); err != nil {
		h.log.Error().Err(err).
			Str("provider", in.Provider).
			Str("event_id", in.EventID).
			Msg("failed to record failed billing event")
	}
}
