package webhooks

import (
	"net/http"
	"testing"

	"contextlattice-console/internal/billing"
	domain "contextlattice-console/internal/domain/billing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayPalWebhookCapturesIntent(t *testing.T) {
	cfg := testConfig()
	r, store := newTestRouter(t, cfg)
	seedIntent(store, domain.ProviderPayPal, "order_1", domain.StatusCreated)

	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"order_1"}}`)
	w := postWebhook(r, "/webhooks/paypal", body, map[string]string{
		"paypal-signature": billing.SignBody(cfg.PayPal.WebhookSecret, body),
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.Events, 1)
	assert.Equal(t, domain.EventProcessed, store.Events[0].Status)
	assert.Equal(t, domain.StatusCaptured, store.Intents[0].Status)
}

func TestPayPalWebhookNonCompletedEventIsPending(t *testing.T) {
	cfg := testConfig()
	r, store := newTestRouter(t, cfg)
	seedIntent(store, domain.ProviderPayPal, "order_1", domain.StatusCreated)

	body := []byte(`{"id":"WH-2","event_type":"CHECKOUT.ORDER.APPROVED","resource":{"id":"order_1"}}`)
	w := postWebhook(r, "/webhooks/paypal", body, map[string]string{
		"paypal-signature": billing.SignBody(cfg.PayPal.WebhookSecret, body),
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domain.StatusPending, store.Intents[0].Status)
}

func TestPayPalWebhookRejectsBadSignature(t *testing.T) {
	cfg := testConfig()
	r, store := newTestRouter(t, cfg)

	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"order_1"}}`)
	w := postWebhook(r, "/webhooks/paypal", body, map[string]string{
		"paypal-signature": "not-hex",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, store.Events)
}

func TestPayPalWebhookEventWithoutID(t *testing.T) {
	cfg := testConfig()
	r, store := newTestRouter(t, cfg)

	body := []byte(`{"event_type":"PAYMENT.CAPTURE.DENIED","resource":{"id":""}}`)
	w := postWebhook(r, "/webhooks/paypal", body, map[string]string{
		"paypal-signature": billing.SignBody(cfg.PayPal.WebhookSecret, body),
	})

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, store.Events, 1)
	assert.Equal(t, "paypal-unknown", store.Events[0].EventID)
}

func TestPayPalWebhookRedeliveryIsIdempotent(t *testing.T) {
	cfg := testConfig()
	r, store := newTestRouter(t, cfg)
	seedIntent(store, domain.ProviderPayPal, "order_1", domain.StatusCreated)

	body := []byte(`{"id":"WH-1","event_type":"PAYMENT.CAPTURE.COMPLETED","resource":{"id":"order_1"}}`)
	headers := map[string]string{
		"paypal-signature": billing.SignBody(cfg.PayPal.WebhookSecret, body),
	}

	for i := 0; i < 2; i++ {
		w := postWebhook(r, "/webhooks/paypal", body, headers)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Len(t, store.Events, 1)
}
