// Package billing exposes the authenticated billing endpoints: provider
// checkout flows, the account summary, manual verification for providers
// without webhooks, and the admin reconcile surface.
package billing

import (
	"encoding/json"
	"net/http"

	"contextlattice-console/config"
	store "contextlattice-console/internal/billing"
	"contextlattice-console/internal/infra/coinbase"
	"contextlattice-console/internal/infra/paypal"
	"contextlattice-console/internal/reconcile"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type Handler struct {
	store      store.Store
	cfg        *config.Config
	log        zerolog.Logger
	paypal     *paypal.Client
	coinbase   *coinbase.Client
	reconciler *reconcile.Runner
}

func NewHandler(s store.Store, cfg *config.Config, log zerolog.Logger, reconciler *reconcile.Runner) *Handler {
	h := &Handler{
		store:      s,
		cfg:        cfg,
		log:        log.With().Str("component", "billing").Logger(),
		reconciler: reconciler,
	}
	if cfg.PayPal.Enabled {
		h.paypal = paypal.NewClient(cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, cfg.PayPal.Env)
	}
	if cfg.Coinbase.Enabled {
		h.coinbase = coinbase.NewClient(cfg.Coinbase.APIKey)
	}
	return h
}

// WithPayPalClient and WithCoinbaseClient override the provider clients
// (tests point them at local servers).
func (h *Handler) WithPayPalClient(c *paypal.Client) *Handler { h.paypal = c; return h }

func (h *Handler) WithCoinbaseClient(c *coinbase.Client) *Handler { h.coinbase = c; return h }

// currentUserID pulls the authenticated user id set by the JWT middleware.
func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"ok": false, "error": message})
}

func requireUser(c *gin.Context) (uint, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not found in token")
		return 0, false
	}
	return userID, true
}

// encodeMetadata renders intent metadata as a JSON string for the text column.
func encodeMetadata(meta map[string]string) string {
	if len(meta) == 0 {
		return ""
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return ""
	}
	return string(raw)
}
