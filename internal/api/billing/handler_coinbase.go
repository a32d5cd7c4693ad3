package billing

import (
	"fmt"
	"net/http"

	domain "contextlattice-console/internal/domain/billing"
	"contextlattice-console/internal/domain/plans"
	"contextlattice-console/internal/infra/coinbase"

	"github.com/gin-gonic/gin"
)

// CoinbaseCharge creates a Commerce charge for a plan and records a pending
// intent referencing the charge id.
func (h *Handler) CoinbaseCharge(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !h.cfg.Coinbase.Enabled || h.coinbase == nil {
		respondError(c, http.StatusServiceUnavailable, "Coinbase Commerce is not configured")
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

	ctx := c.Request.Context()
	charge, err := h.coinbase.CreateCharge(ctx, coinbase.CreateChargeParams{
		Name:        fmt.Sprintf("ContextLattice %s (%s)", plan.Name, interval),
		Description: plan.Description,
		PricingType: "fixed_price",
		LocalPrice: coinbase.LocalPrice{
			Amount:   fmt.Sprintf("%.2f", amount),
			Currency: "USD",
		},
		Metadata: map[string]string{
			"user_id": fmt.Sprintf("%d", userID),
			"plan_id": plan.ID,
		},
		RedirectURL: h.cfg.AppURL + "/billing?status=success",
		CancelURL:   h.cfg.AppURL + "/billing?status=cancelled",
	})
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("coinbase charge failed")
		respondError(c, http.StatusBadGateway, "Could not create charge")
		return
	}

	reference := charge.ID
	intent := &domain.PaymentIntent{
		UserID:    userID,
		Provider:  domain.ProviderCoinbase,
		Status:    domain.StatusCreated,
		PlanID:    plan.ID,
		Interval:  interval,
		Amount:    amount,
		Currency:  "USD",
		Reference: &reference,
		Metadata:  encodeMetadata(map[string]string{"hostedUrl": charge.HostedURL}),
	}
	if err := h.store.CreateIntent(ctx, intent); err != nil {
		h.log.Error().Err(err).Str("reference", reference).Msg("record coinbase intent failed")
		respondError(c, http.StatusInternalServerError, "Could not record payment intent")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":         true,
		"reference":  reference,
		"hosted_url": charge.HostedURL,
	})
}
