package billing

import (
	"net/http"

	domain "contextlattice-console/internal/domain/billing"

	"github.com/gin-gonic/gin"
)

type paypalCaptureRequest struct {
	OrderID string `json:"order_id" binding:"required"`
}

// PayPalCapture captures an approved PayPal order and marks the matching
// intent captured. The request id doubles as PayPal's idempotency key.
func (h *Handler) PayPalCapture(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	if !h.cfg.PayPal.Enabled || h.paypal == nil {
		respondError(c, http.StatusServiceUnavailable, "PayPal is not configured")
		return
	}

	var req paypalCaptureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "order_id is required")
		return
	}

	ctx := c.Request.Context()
	order, err := h.paypal.CaptureOrder(ctx, req.OrderID, c.GetString("request_id"))
	if err != nil {
		h.log.Error().Err(err).Str("order_id", req.OrderID).Msg("paypal capture failed")
		respondError(c, http.StatusBadGateway, "Could not capture order")
		return
	}

	status := domain.PayPalOrderStatus(order.Status)
	if _, err := h.store.UpdateIntentStatus(ctx, domain.ProviderPayPal, order.ID, status); err != nil {
		h.log.Error().Err(err).Str("order_id", order.ID).Msg("update paypal intent failed")
		respondError(c, http.StatusInternalServerError, "Could not update payment intent")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "order_id": order.ID, "status": status})
}
