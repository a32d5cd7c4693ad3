package billing

import (
	"net/http"
	"time"

	domain "contextlattice-console/internal/domain/billing"
	"contextlattice-console/internal/domain/plans"

	"github.com/gin-gonic/gin"
)

type providerInfo struct {
	ID      string `json:"id"`
	Enabled bool   `json:"enabled"`
	Reason  string `json:"reason,omitempty"`
}

// Providers lists payment providers and whether each is usable in this
// deployment.
func (h *Handler) Providers(c *gin.Context) {
	describe := func(id string, enabled bool) providerInfo {
		info := providerInfo{ID: id, Enabled: enabled}
		if !enabled {
			info.Reason = "not configured"
		}
		return info
	}

	c.JSON(http.StatusOK, gin.H{
		"ok": true,
		"providers": []providerInfo{
			describe(domain.ProviderStripe, h.cfg.Stripe.Enabled),
			describe(domain.ProviderPayPal, h.cfg.PayPal.Enabled),
			describe(domain.ProviderCoinbase, h.cfg.Coinbase.Enabled),
			describe(domain.ProviderKraken, h.cfg.Kraken.Enabled),
			describe(domain.ProviderSolanaPay, h.cfg.SolanaPay.Enabled),
		},
	})
}

// Summary returns the current user's billing state: latest subscription,
// resolved plan and entitlements, recent intents, and a count of intents
// needing attention.
func (h *Handler) Summary(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	sub, err := h.store.LatestSubscriptionForUser(ctx, userID)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load subscription")
		return
	}

	planID := plans.DefaultPlanID
	active := false
	if sub != nil {
		active = domain.IsSubscriptionActive(sub.Status)
		if sub.PlanID != nil && *sub.PlanID != "" {
			planID = *sub.PlanID
		}
	}

	intents, err := h.store.ListIntentsByUser(ctx, userID, 10)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load payment intents")
		return
	}

	failedIntents := 0
	for _, intent := range intents {
		switch intent.Status {
		case domain.StatusFailed, domain.StatusCanceled, domain.StatusRequiresAction:
			failedIntents++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":                   true,
		"plan":                 plans.Find(planID),
		"subscription":         sub,
		"active":               active,
		"entitlements":         plans.GetEntitlements(planID),
		"intents":              intents,
		"failedIntents":        failedIntents,
		"requiresSubscription": !active,
	})
}

// ReconcileStatus reports 30 days of the user's intent history grouped by
// provider and status, plus the failed webhook count over the same window.
func (h *Handler) ReconcileStatus(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	cutoff := time.Now().AddDate(0, 0, -30)

	intents, err := h.store.ListIntentsByUserSince(ctx, userID, cutoff)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load payment intents")
		return
	}

	counts := map[string]map[string]int{}
	for _, intent := range intents {
		if counts[intent.Provider] == nil {
			counts[intent.Provider] = map[string]int{}
		}
		counts[intent.Provider][intent.Status]++
	}

	failedWebhooks, err := h.store.CountFailedEventsSince(ctx, cutoff)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load webhook events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":             true,
		"windowDays":     30,
		"intents":        counts,
		"failedWebhooks": failedWebhooks,
	})
}
