package billing

import "time"

// Provider identifiers as stored in the database and used in webhook routing.
const (
	ProviderStripe    = "stripe"
	ProviderPayPal    = "paypal"
	ProviderCoinbase  = "coinbase"
	ProviderKraken    = "kraken"
	ProviderSolanaPay = "solana-pay"
)

// PaymentIntent is one attempt to pay for a plan via a specific provider.
// Rows are created by checkout/charge handlers and mutated by webhook
// handlers and reconciliation jobs. They are never deleted.
type PaymentIntent struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	Provider string `gorm:"type:varchar(20);not null;index:idx_intents_provider_reference,unique,priority:1" json:"provider"`
	Status   string `gorm:"type:varchar(32);not null;index" json:"status"`
	PlanID   string `gorm:"type:varchar(50);not null" json:"plan_id"`
	Interval string `gorm:"type:varchar(16);not null" json:"interval"`
	Amount   float64
	Currency string `gorm:"type:varchar(8);not null" json:"currency"`
	// Provider-side identifier (checkout session / charge / order id).
	Reference *string `gorm:"type:varchar(191);index:idx_intents_provider_reference,unique,priority:2" json:"reference,omitempty"`
	Metadata  string  `gorm:"type:text" json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BillingEvent is one ingested webhook notification. Identity is fixed by
// (provider, event_id); redelivery upserts in place.
type BillingEvent struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Provider  string `gorm:"type:varchar(20);not null;index:idx_events_provider_event,unique,priority:1" json:"provider"`
	EventID   string `gorm:"type:varchar(191);not null;index:idx_events_provider_event,unique,priority:2" json:"event_id"`
	EventType string `gorm:"type:varchar(100)" json:"event_type"`
	// Raw request body, stored verbatim.
	Payload     string     `gorm:"type:text" json:"-"`
	Status      string     `gorm:"type:varchar(16);not null;index" json:"status"`
	Error       *string    `gorm:"type:text" json:"error,omitempty"`
	RequestID   *string    `gorm:"type:varchar(64)" json:"request_id,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BillingCustomer maps a local user to a provider-side billing identity.
// One row per (user, provider); Stripe is the only writer today.
type BillingCustomer struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	UserID     uint   `gorm:"not null;index:idx_customers_user_provider,unique,priority:1" json:"user_id"`
	Provider   string `gorm:"type:varchar(20);not null;index:idx_customers_user_provider,unique,priority:2;index:idx_customers_provider_customer,priority:1" json:"provider"`
	CustomerID string `gorm:"type:varchar(191);not null;index:idx_customers_provider_customer,priority:2" json:"customer_id"`
	Email      string `gorm:"type:varchar(200);default:''" json:"email"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BillingSubscription mirrors a provider-side subscription, keyed uniquely
// by (provider, subscription).
type BillingSubscription struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	UserID       uint    `gorm:"not null;index" json:"user_id"`
	Provider     string  `gorm:"type:varchar(20);not null;index:idx_subs_provider_subscription,unique,priority:1" json:"provider"`
	Subscription string  `gorm:"type:varchar(191);not null;index:idx_subs_provider_subscription,unique,priority:2" json:"subscription"`
	PlanID       *string `gorm:"type:varchar(50)" json:"plan_id,omitempty"`
	Status       string  `gorm:"type:varchar(32);not null" json:"status"`

	CurrentPeriodEnd *time.Time `json:"current_period_end,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
