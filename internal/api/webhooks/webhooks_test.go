package webhooks

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"contextlattice-console/config"
	"contextlattice-console/internal/app/http/middleware"
	"contextlattice-console/internal/billing/billingtest"
	domain "contextlattice-console/internal/domain/billing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func testConfig() *config.Config {
	return &config.Config{
		Stripe:   config.StripeConfig{WebhookSecret: "whsec_stripe"},
		PayPal:   config.PayPalConfig{WebhookSecret: "whsec_paypal"},
		Coinbase: config.CoinbaseConfig{WebhookSecret: "whsec_coinbase"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (*gin.Engine, *billingtest.InMemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := billingtest.NewStore()
	h := NewHandler(store, cfg, zerolog.Nop())

	r := gin.New()
	r.Use(middleware.RequestID())
	r.POST("/webhooks/stripe", h.Stripe)
	r.POST("/webhooks/paypal", h.PayPal)
	r.POST("/webhooks/coinbase", h.Coinbase)
	return r, store
}

func seedIntent(store *billingtest.InMemoryStore, provider, reference, status string) {
	ref := reference
	store.Intents = append(store.Intents, domain.PaymentIntent{
		ID:        uint(len(store.Intents) + 1),
		UserID:    1,
		Provider:  provider,
		Status:    status,
		PlanID:    "starter",
		Interval:  "monthly",
		Amount:    19,
		Currency:  "USD",
		Reference: &ref,
		CreatedAt: time.Now(),
	})
}

func postWebhook(r *gin.Engine, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
