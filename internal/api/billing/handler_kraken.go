package billing

import (
	"fmt"
	"net/http"

	domain "contextlattice-console/internal/domain/billing"
	"contextlattice-console/internal/domain/plans"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// KrakenInstructions records a pending_manual intent and returns manual
// transfer instructions. The reference is generated here, not by the
// provider; the shared deposit address goes in metadata so concurrent
// intents never collide on the provider/reference key.
func (h *Handler) KrakenInstructions(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !h.cfg.Kraken.Enabled {
		respondError(c, http.StatusServiceUnavailable, "Kraken transfers are not configured")
		return
	}

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "plan_id is required")
		return
	}
	plan := plans.Find(req.PlanID)
	if plan == nil {
		respondError(c, http.StatusBadRequest, "Unknown plan")
		return
	}
	interval := plans.NormalizeInterval(req.Interval)
	amount := plan.Price(interval)

	reference := "kraken-" + uuid.NewString()
	intent := &domain.PaymentIntent{
		UserID:    userID,
		Provider:  domain.ProviderKraken,
		Status:    domain.StatusPendingManual,
		PlanID:    plan.ID,
		Interval:  interval,
		Amount:    amount,
		Currency:  h.cfg.Kraken.Asset,
		Reference: &reference,
		Metadata: encodeMetadata(map[string]string{
			"address": h.cfg.Kraken.Address,
			"asset":   h.cfg.Kraken.Asset,
			"note":    h.cfg.Kraken.Note,
		}),
	}
	if err := h.store.CreateIntent(c.Request.Context(), intent); err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("record kraken intent failed")
		respondError(c, http.StatusInternalServerError, "Could not record payment intent")
		return
	}

	instructions := fmt.Sprintf(
		"Send %.2f %s to %s. Include the note %q and keep reference %s for support.",
		amount, h.cfg.Kraken.Asset, h.cfg.Kraken.Address, h.cfg.Kraken.Note, reference,
	)
	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"provider":     domain.ProviderKraken,
		"reference":    reference,
		"address":      h.cfg.Kraken.Address,
		"asset":        h.cfg.Kraken.Asset,
		"amount":       amount,
		"note":         h.cfg.Kraken.Note,
		"instructions": instructions,
	})
}

type verifyRequest struct {
	Reference string `json:"reference" binding:"required"`
	Status    string `json:"status"`
}

// KrakenVerify is the operator's confirmation endpoint for manual transfers.
// Default status is confirmed.
func (h *Handler) KrakenVerify(c *gin.Context) {
	h.verifyManualIntent(c, domain.ProviderKraken)
}

func (h *Handler) verifyManualIntent(c *gin.Context, provider string) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "reference is required")
		return
	}
	status := req.Status
	if status == "" {
		status = domain.StatusConfirmed
	}

	n, err := h.store.UpdateIntentStatus(c.Request.Context(), provider, req.Reference, status)
	if err != nil {
		h.log.Error().Err(err).Str("reference", req.Reference).Msg("manual verification failed")
		respondError(c, http.StatusInternalServerError, "Could not update payment intent")
		return
	}
	if n == 0 {
		respondError(c, http.StatusNotFound, "Unknown reference")
		return
	}

	h.log.Info().
		Str("provider", provider).
		Str("reference", req.Reference).
		Str("status", status).
		Msg("manual verification recorded")
	c.JSON(http.StatusOK, gin.H{"ok": true, "reference": req.Reference, "status": status})
}
