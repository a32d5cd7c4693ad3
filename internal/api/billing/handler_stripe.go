package billing

import (
	"fmt"
	"net/http"

	domain "contextlattice-console/internal/domain/billing"
	"contextlattice-console/internal/domain/plans"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	portalsession "github.com/stripe/stripe-go/v75/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/customer"
)

type checkoutRequest struct {
	PlanID   string `json:"plan_id" binding:"required"`
	Interval string `json:"interval"`
}

// StripeCheckout creates a subscription checkout session for the current
// user, bootstrapping the Stripe customer on first use, and records a
// payment intent referencing the session.
func (h *Handler) StripeCheckout(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !h.cfg.Stripe.Enabled {
		respondError(c, http.StatusServiceUnavailable, "Stripe is not configured")
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

	priceID := h.cfg.StripePriceID(plan.ID, interval)
	if priceID == "" {
		respondError(c, http.StatusBadRequest, "Plan is not available for this interval")
		return
	}

	ctx := c.Request.Context()
	customerID, err := h.ensureStripeCustomer(c)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("stripe customer bootstrap failed")
		respondError(c, http.StatusInternalServerError, "Could not create billing customer")
		return
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(customerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:          stripe.String(h.cfg.AppURL + "/billing?status=success"),
		CancelURL:           stripe.String(h.cfg.AppURL + "/billing?status=cancelled"),
		AllowPromotionCodes: stripe.Bool(true),
		ClientReferenceID:   stripe.String(fmt.Sprintf("%d", userID)),
	}
	session, err := checkoutsession.New(params)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("stripe checkout session failed")
		respondError(c, http.StatusInternalServerError, "Could not start checkout")
		return
	}

	reference := session.ID
	intent := &domain.PaymentIntent{
		UserID:    userID,
		Provider:  domain.ProviderStripe,
		Status:    domain.StatusCreated,
		PlanID:    plan.ID,
		Interval:  interval,
		Amount:    plan.Price(interval),
		Currency:  "USD",
		Reference: &reference,
		Metadata:  encodeMetadata(map[string]string{"checkoutUrl": session.URL}),
	}
	if err := h.store.CreateIntent(ctx, intent); err != nil {
		h.log.Error().Err(err).Str("reference", reference).Msg("record stripe intent failed")
		respondError(c, http.StatusInternalServerError, "Could not record payment intent")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "url": session.URL, "reference": reference})
}

// StripePortal opens a billing portal session for the current user's Stripe
// customer.
func (h *Handler) StripePortal(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if !h.cfg.Stripe.Enabled {
		respondError(c, http.StatusServiceUnavailable, "Stripe is not configured")
		return
	}

	existing, err := h.store.FindCustomerByUser(c.Request.Context(), userID, domain.ProviderStripe)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load billing customer")
		return
	}
	if existing == nil {
		respondError(c, http.StatusNotFound, "No billing customer yet")
		return
	}

	session, err := portalsession.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(existing.CustomerID),
		ReturnURL: stripe.String(h.cfg.AppURL + "/billing"),
	})
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("stripe portal session failed")
		respondError(c, http.StatusInternalServerError, "Could not open billing portal")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "url": session.URL})
}

// ensureStripeCustomer returns the user's Stripe customer id, creating the
// provider-side customer and local mapping on first use.
func (h *Handler) ensureStripeCustomer(c *gin.Context) (string, error) {
	ctx := c.Request.Context()
	userID, _ := currentUserID(c)
	email := c.GetString("email")

	existing, err := h.store.FindCustomerByUser(ctx, userID, domain.ProviderStripe)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.CustomerID, nil
	}

	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.AddMetadata("user_id", fmt.Sprintf("%d", userID))
	created, err := customer.New(params)
	if err != nil {
		return "", err
	}

	if err := h.store.CreateCustomer(ctx, &domain.BillingCustomer{
		UserID:     userID,
		Provider:   domain.ProviderStripe,
		CustomerID: created.ID,
		Email:      email,
	}); err != nil {
		return "", err
	}
	return created.ID, nil
}
