package reconcile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"contextlattice-console/config"
	"contextlattice-console/internal/billing/billingtest"
	domain "contextlattice-console/internal/domain/billing"
	"contextlattice-console/internal/infra/coinbase"
	"contextlattice-console/internal/infra/paypal"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunner(store *billingtest.InMemoryStore, cfg *config.Config) *Runner {
	return NewRunner(store, cfg, zerolog.Nop())
}

func reconcileConfig() *config.Config {
	return &config.Config{
		Reconcile: config.ReconcileConfig{
			LookbackHours: 24,
			LookbackDays:  7,
			IntentLimit:   300,
		},
	}
}

func seedIntent(store *billingtest.InMemoryStore, provider, reference, status string, age time.Duration) uint {
	ref := reference
	id := uint(len(store.Intents) + 1)
	store.Intents = append(store.Intents, domain.PaymentIntent{
		ID:        id,
		UserID:    1,
		Provider:  provider,
		Status:    status,
		PlanID:    "starter",
		Interval:  "monthly",
		Amount:    19,
		Currency:  "USD",
		Reference: &ref,
		CreatedAt: time.Now().Add(-age),
	})
	return id
}

func TestSweepFindsOnlyOldNonTerminalIntents(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	seedIntent(store, domain.ProviderStripe, "cs_old", domain.StatusPending, 25*time.Hour)
	seedIntent(store, domain.ProviderStripe, "cs_fresh", domain.StatusPending, time.Hour)
	seedIntent(store, domain.ProviderStripe, "cs_done", domain.StatusPaid, 48*time.Hour)
	seedIntent(store, domain.ProviderKraken, "kraken-1", domain.StatusPendingManual, 30*time.Hour)

	report, err := testRunner(store, cfg).SweepStale(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	require.Len(t, report.Transitions, 2)
	assert.Equal(t, "cs_old", report.Transitions[0].Reference)
	assert.Equal(t, "kraken-1", report.Transitions[1].Reference)
	assert.Equal(t, domain.StatusStale, report.Transitions[0].To)
}

func TestSweepIsDryRunByDefault(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	seedIntent(store, domain.ProviderStripe, "cs_old", domain.StatusPending, 25*time.Hour)

	report, err := testRunner(store, cfg).SweepStale(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Updated)
	assert.False(t, report.Applied)
	assert.Equal(t, domain.StatusPending, store.Intents[0].Status)
}

func TestSweepMarksStaleWhenFlagged(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	cfg.Reconcile.MarkStale = true
	seedIntent(store, domain.ProviderStripe, "cs_old", domain.StatusPending, 25*time.Hour)

	report, err := testRunner(store, cfg).SweepStale(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.True(t, report.Applied)
	assert.Equal(t, domain.StatusStale, store.Intents[0].Status)
}

func coinbaseTestServer(t *testing.T, charges map[string]coinbase.Charge) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/charges/")
		charge, ok := charges[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]string{"message": "not found"}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": charge})
	}))
}

func TestReconcileCoinbaseDetectsDrift(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	cfg.Coinbase = config.CoinbaseConfig{APIKey: "key", Enabled: true}
	seedIntent(store, domain.ProviderCoinbase, "chg_1", domain.StatusPending, time.Hour)

	srv := coinbaseTestServer(t, map[string]coinbase.Charge{
		"chg_1": {ID: "chg_1", Timeline: []coinbase.TimelineEntry{
			{Status: "NEW"}, {Status: "PENDING"}, {Status: "COMPLETED"},
		}},
	})
	defer srv.Close()

	runner := testRunner(store, cfg).WithCoinbaseClient(coinbase.NewClient("key").WithBaseURL(srv.URL))
	report, err := runner.ReconcileCoinbase(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Checked)
	require.Len(t, report.Transitions, 1)
	assert.Equal(t, "completed", report.Transitions[0].To)
	// Dry run: the ledger is untouched.
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, domain.StatusPending, store.Intents[0].Status)
}

func TestReconcileCoinbaseAppliesWhenFlagged(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	cfg.Coinbase = config.CoinbaseConfig{APIKey: "key", Enabled: true}
	cfg.Reconcile.Apply = true
	seedIntent(store, domain.ProviderCoinbase, "chg_1", domain.StatusPending, time.Hour)

	srv := coinbaseTestServer(t, map[string]coinbase.Charge{
		"chg_1": {ID: "chg_1", Timeline: []coinbase.TimelineEntry{{Status: "CONFIRMED"}}},
	})
	defer srv.Close()

	runner := testRunner(store, cfg).WithCoinbaseClient(coinbase.NewClient("key").WithBaseURL(srv.URL))
	report, err := runner.ReconcileCoinbase(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, domain.StatusConfirmed, store.Intents[0].Status)
}

func TestReconcileCoinbaseSkipsFailedFetch(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	cfg.Coinbase = config.CoinbaseConfig{APIKey: "key", Enabled: true}
	cfg.Reconcile.Apply = true
	seedIntent(store, domain.ProviderCoinbase, "chg_gone", domain.StatusPending, time.Hour)
	seedIntent(store, domain.ProviderCoinbase, "chg_ok", domain.StatusPending, time.Hour)

	srv := coinbaseTestServer(t, map[string]coinbase.Charge{
		"chg_ok": {ID: "chg_ok", Timeline: []coinbase.TimelineEntry{{Status: "CONFIRMED"}}},
	})
	defer srv.Close()

	runner := testRunner(store, cfg).WithCoinbaseClient(coinbase.NewClient("key").WithBaseURL(srv.URL))
	report, err := runner.ReconcileCoinbase(context.Background())
	require.NoError(t, err)

	// One fetch failed, the other intent was still reconciled.
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, domain.StatusPending, store.Intents[0].Status)
	assert.Equal(t, domain.StatusConfirmed, store.Intents[1].Status)
}

func paypalTestServer(t *testing.T, orders map[string]paypal.Order) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/oauth2/token" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "test-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/v2/checkout/orders/")
		order, ok := orders[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"message": "order not found"})
			return
		}
		json.NewEncoder(w).Encode(order)
	}))
}

func TestReconcilePayPalAppliesCompletedOrders(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	cfg.PayPal = config.PayPalConfig{ClientID: "id", ClientSecret: "secret", Env: "sandbox", Enabled: true}
	cfg.Reconcile.Apply = true
	seedIntent(store, domain.ProviderPayPal, "order_1", domain.StatusPending, time.Hour)
	seedIntent(store, domain.ProviderPayPal, "order_2", domain.StatusPending, time.Hour)

	srv := paypalTestServer(t, map[string]paypal.Order{
		"order_1": {ID: "order_1", Status: "COMPLETED"},
		"order_2": {ID: "order_2", Status: "CREATED"},
	})
	defer srv.Close()

	runner := testRunner(store, cfg).WithPayPalClient(
		paypal.NewClient("id", "secret", "sandbox").WithBaseURL(srv.URL))
	report, err := runner.ReconcilePayPal(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, domain.StatusCaptured, store.Intents[0].Status)
	assert.Equal(t, "created", store.Intents[1].Status)
}

func TestReconcilePayPalDryRun(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	cfg.PayPal = config.PayPalConfig{ClientID: "id", ClientSecret: "secret", Env: "sandbox", Enabled: true}
	seedIntent(store, domain.ProviderPayPal, "order_1", domain.StatusPending, time.Hour)

	srv := paypalTestServer(t, map[string]paypal.Order{
		"order_1": {ID: "order_1", Status: "COMPLETED"},
	})
	defer srv.Close()

	runner := testRunner(store, cfg).WithPayPalClient(
		paypal.NewClient("id", "secret", "sandbox").WithBaseURL(srv.URL))
	report, err := runner.ReconcilePayPal(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Transitions, 1)
	assert.Equal(t, 0, report.Updated)
	assert.Equal(t, domain.StatusPending, store.Intents[0].Status)
}

func TestReconcileSkipsIntentsWithoutReference(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()
	cfg.Coinbase = config.CoinbaseConfig{APIKey: "key", Enabled: true}
	store.Intents = append(store.Intents, domain.PaymentIntent{
		ID: 1, UserID: 1, Provider: domain.ProviderCoinbase,
		Status: domain.StatusCreated, CreatedAt: time.Now(),
	})

	srv := coinbaseTestServer(t, nil)
	defer srv.Close()

	runner := testRunner(store, cfg).WithCoinbaseClient(coinbase.NewClient("key").WithBaseURL(srv.URL))
	report, err := runner.ReconcileCoinbase(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.Checked)
}

func TestRunAllSkipsDisabledProviders(t *testing.T) {
	store := billingtest.NewStore()
	cfg := reconcileConfig()

	reports := testRunner(store, cfg).RunAll(context.Background())

	// Only the sweep runs when no provider is configured.
	require.Len(t, reports, 1)
	assert.Equal(t, "sweep", reports[0].Job)
}
