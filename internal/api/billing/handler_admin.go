package billing

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// FailedEvents lists recent webhook events that failed processing, newest
// first. Admin only.
func (h *Handler) FailedEvents(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	events, err := h.store.ListFailedEvents(c.Request.Context(), limit)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Could not load webhook events")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "events": events})
}

// RunReconcile triggers a full reconcile pass and returns the job reports.
// Dry-run unless the apply flag is configured. Admin only.
func (h *Handler) RunReconcile(c *gin.Context) {
	if h.reconciler == nil {
		respondError(c, http.StatusServiceUnavailable, "Reconciler not available")
		return
	}
	reports := h.reconciler.RunAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"applied": h.cfg.Reconcile.Apply,
		"reports": reports,
	})
}
