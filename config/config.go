package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// StripeConfig holds Stripe credentials and the price-id table for the plan
// catalog.
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Enabled       bool
	// PriceIDs[planID][interval], interval is "monthly" | "annual".
	PriceIDs map[string]map[string]string
}

type PayPalConfig struct {
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	Env           string // "live" | "sandbox"
	Enabled       bool
}

type CoinbaseConfig struct {
	APIKey        string
	WebhookSecret string
	Enabled       bool
}

type KrakenConfig struct {
	Address string
	Asset   string
	Note    string
	Enabled bool
}

type SolanaPayConfig struct {
	Recipient string
	SPLToken  string
	Label     string
	Message   string
	Memo      string
	Enabled   bool
}

// ReconcileConfig tunes the reconciliation jobs. Apply gates real mutation;
// everything is dry-run/report-only without it.
type ReconcileConfig struct {
	LookbackHours int
	LookbackDays  int
	MarkStale     bool
	Apply         bool
	IntentLimit   int
}

type LogConfig struct {
	Level  string // trace|debug|info|warn|error
	Format string // json|console
}

// Config is built once at startup and immutable afterwards. Nothing re-reads
// the environment mid-process.
type Config struct {
	Port       string
	DBURL      string
	JWTSecret  string
	AppURL     string
	CORSOrigin string

	Log       LogConfig
	Stripe    StripeConfig
	PayPal    PayPalConfig
	Coinbase  CoinbaseConfig
	Kraken    KrakenConfig
	SolanaPay SolanaPayConfig
	Reconcile ReconcileConfig
}

// Load reads .env (if present) and the process environment into a Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}

	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		DBURL:      mustEnv("DB_URL"),
		JWTSecret:  mustEnv("JWT_SECRET"),
		AppURL:     getEnv("APP_URL", "http://localhost:3000"),
		CORSOrigin: getEnv("CORS_ORIGIN", "*"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Stripe: StripeConfig{
			SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
			WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
			PriceIDs: map[string]map[string]string{
				"starter": {
					"monthly": os.Getenv("STRIPE_PRICE_STARTER_MONTHLY"),
					"annual":  os.Getenv("STRIPE_PRICE_STARTER_ANNUAL"),
				},
				"team": {
					"monthly": os.Getenv("STRIPE_PRICE_TEAM_MONTHLY"),
					"annual":  os.Getenv("STRIPE_PRICE_TEAM_ANNUAL"),
				},
				"enterprise": {
					"monthly": os.Getenv("STRIPE_PRICE_ENTERPRISE_MONTHLY"),
					"annual":  os.Getenv("STRIPE_PRICE_ENTERPRISE_ANNUAL"),
				},
			},
		},
		PayPal: PayPalConfig{
			ClientID:      os.Getenv("PAYPAL_CLIENT_ID"),
			ClientSecret:  os.Getenv("PAYPAL_CLIENT_SECRET"),
			WebhookSecret: os.Getenv("PAYPAL_WEBHOOK_SECRET"),
			Env:           getEnv("PAYPAL_ENV", "sandbox"),
		},
		Coinbase: CoinbaseConfig{
			APIKey:        os.Getenv("COINBASE_COMMERCE_API_KEY"),
			WebhookSecret: os.Getenv("COINBASE_COMMERCE_WEBHOOK_SECRET"),
		},
		Kraken: KrakenConfig{
			Address: os.Getenv("KRAKEN_PAY_ADDRESS"),
			Asset:   getEnv("KRAKEN_PAY_ASSET", "USDC"),
			Note:    getEnv("KRAKEN_PAY_NOTE", "ContextLattice subscription"),
		},
		SolanaPay: SolanaPayConfig{
			Recipient: os.Getenv("SOLPAY_RECIPIENT"),
			SPLToken:  os.Getenv("SOLPAY_SPL_TOKEN"),
			Label:     getEnv("SOLPAY_LABEL", "ContextLattice"),
			Message:   os.Getenv("SOLPAY_MESSAGE"),
			Memo:      os.Getenv("SOLPAY_MEMO"),
		},
		Reconcile: ReconcileConfig{
			LookbackHours: getEnvInt("BILLING_RECONCILE_LOOKBACK_HOURS", 24),
			LookbackDays:  getEnvInt("BILLING_RECONCILE_LOOKBACK_DAYS", 7),
			MarkStale:     os.Getenv("BILLING_RECONCILE_MARK_STALE") == "true",
			Apply:         os.Getenv("BILLING_RECONCILE_APPLY") == "true",
			IntentLimit:   getEnvInt("BILLING_RECONCILE_INTENT_LIMIT", 500),
		},
	}

	// A provider is ready when its required credentials are present, and
	// enabled unless explicitly switched off.
	cfg.Stripe.Enabled = enabledWithFlag(cfg.Stripe.SecretKey != "", "STRIPE_ENABLED")
	cfg.PayPal.Enabled = enabledWithFlag(cfg.PayPal.ClientID != "" && cfg.PayPal.ClientSecret != "", "PAYPAL_ENABLED")
	cfg.Coinbase.Enabled = enabledWithFlag(cfg.Coinbase.APIKey != "", "COINBASE_COMMERCE_ENABLED")
	cfg.Kraken.Enabled = enabledWithFlag(cfg.Kraken.Address != "", "KRAKEN_PAY_ENABLED")
	cfg.SolanaPay.Enabled = enabledWithFlag(cfg.SolanaPay.Recipient != "", "SOLANA_PAY_ENABLED")

	return cfg
}

func enabledWithFlag(ready bool, flagKey string) bool {
	if !ready {
		return false
	}
	return os.Getenv(flagKey) != "false"
}

func mustEnv(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("Missing required environment variable: %s", key)
	}
	return v
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// StripePriceID resolves a (plan, interval) pair to a configured price id.
func (c *Config) StripePriceID(planID, interval string) string {
	plan, ok := c.Stripe.PriceIDs[planID]
	if !ok {
		return ""
	}
	return plan[interval]
}
