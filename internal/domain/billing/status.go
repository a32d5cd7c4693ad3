package billing

import "strings"

// Intent statuses. Provider vocabularies are folded into this shared set;
// unknown provider statuses pass through lowercased.
const (
	StatusCreated        = "created"
	StatusPending        = "pending"
	StatusPendingManual  = "pending_manual"
	StatusCaptured       = "captured"
	StatusConfirmed      = "confirmed"
	StatusPaid           = "paid"
	StatusComplete       = "complete"
	StatusApproved       = "approved"
	StatusFailed         = "failed"
	StatusCanceled       = "canceled"
	StatusRequiresAction = "requires_action"
	// StatusStale is a bookkeeping terminal state set by the reconcile sweep:
	// "needs manual attention", not "failed".
	StatusStale = "stale"
)

// BillingEvent lifecycle.
const (
	EventReceived  = "received"
	EventProcessed = "processed"
	EventFailed    = "failed"
)

// NonTerminalStatuses are the intent statuses the staleness sweep considers
// still in flight.
var NonTerminalStatuses = []string{StatusCreated, StatusPending, StatusPendingManual}

// IsTerminal reports whether no further transition is expected for status
// absent manual intervention.
func IsTerminal(status string) bool {
	switch status {
	case StatusCaptured, StatusConfirmed, StatusPaid, StatusComplete,
		StatusFailed, StatusCanceled, StatusStale:
		return true
	}
	return false
}

// CoinbaseEventStatus maps a Coinbase Commerce webhook event type to an
// intent status. Anything without "confirmed" in the type is still pending.
func CoinbaseEventStatus(eventType string) string {
	if strings.Contains(eventType, "confirmed") {
		return StatusConfirmed
	}
	return StatusPending
}

// PayPalEventStatus maps a PayPal webhook event type to an intent status.
func PayPalEventStatus(eventType string) string {
	if strings.Contains(eventType, "COMPLETED") {
		return StatusCaptured
	}
	return StatusPending
}

// PayPalOrderStatus maps the status field of a fetched PayPal order onto the
// shared vocabulary; unmapped values pass through lowercased.
func PayPalOrderStatus(orderStatus string) string {
	switch s := strings.ToLower(orderStatus); s {
	case "completed":
		return StatusCaptured
	case "approved":
		return StatusApproved
	default:
		return s
	}
}

// StripeSessionStatus derives an intent status from a checkout session:
// payment_status "paid" wins, then session status "complete", then whichever
// raw value is non-empty.
func StripeSessionStatus(paymentStatus, sessionStatus, current string) string {
	if paymentStatus == "paid" {
		return StatusPaid
	}
	if sessionStatus == "complete" {
		return StatusComplete
	}
	if paymentStatus != "" {
		return paymentStatus
	}
	if sessionStatus != "" {
		return sessionStatus
	}
	return current
}

// ActiveSubscriptionStatuses gate plan entitlements.
var ActiveSubscriptionStatuses = map[string]bool{
	"active":   true,
	"trialing": true,
}

// IsSubscriptionActive reports whether a provider subscription status counts
// as entitling.
func IsSubscriptionActive(status string) bool {
	return ActiveSubscriptionStatuses[status]
}
