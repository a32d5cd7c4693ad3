package billing

import (
	"net/http"

	domain "contextlattice-console/internal/domain/billing"
	"contextlattice-console/internal/domain/plans"
	"contextlattice-console/internal/infra/solanapay"

	"github.com/gin-gonic/gin"
)

// SolanaPayCreate generates a Solana Pay transfer request for a plan and
// records an intent keyed by the generated reference.
func (h *Handler) SolanaPayCreate(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !h.cfg.SolanaPay.Enabled {
		respondError(c, http.StatusServiceUnavailable, "Solana Pay is not configured")
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

	reference, err := solanapay.NewReference()
	if err != nil {
		h.log.Error().Err(err).Msg("solana reference generation failed")
		respondError(c, http.StatusInternalServerError, "Could not create payment reference")
		return
	}

	url := solanapay.EncodeURL(solanapay.Request{
		Recipient: h.cfg.SolanaPay.Recipient,
		Amount:    amount,
		SPLToken:  h.cfg.SolanaPay.SPLToken,
		Reference: reference,
		Label:     h.cfg.SolanaPay.Label,
		Message:   h.cfg.SolanaPay.Message,
		Memo:      h.cfg.SolanaPay.Memo,
	})

	intent := &domain.PaymentIntent{
		UserID:    userID,
		Provider:  domain.ProviderSolanaPay,
		Status:    domain.StatusCreated,
		PlanID:    plan.ID,
		Interval:  interval,
		Amount:    amount,
		Currency:  "USDC",
		Reference: &reference,
		Metadata:  encodeMetadata(map[string]string{"solanaPayUrl": url}),
	}
	if err := h.store.CreateIntent(c.Request.Context(), intent); err != nil {
		h.log.Error().Err(err).Str("reference", reference).Msg("record solana intent failed")
		respondError(c, http.StatusInternalServerError, "Could not record payment intent")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"reference": reference,
		"url":       url,
	})
}

// SolanaPayVerify is the operator's confirmation endpoint for settled
// transfer requests. Default status is confirmed.
func (h *Handler) SolanaPayVerify(c *gin.Context) {
	h.verifyManualIntent(c, domain.ProviderSolanaPay)
}
