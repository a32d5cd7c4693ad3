package reconcile

import (
	"context"
	"strings"
	"time"

	domain "contextlattice-console/internal/domain/billing"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
	"github.com/stripe/stripe-go/v75/subscription"
)

// ReconcileStripe re-reads checkout sessions for recent Stripe intents and
// re-lists subscriptions for every known Stripe customer, reporting drift
// between provider state and the local ledger. Two reports come back, one
// per concern.
func (r *Runner) ReconcileStripe(ctx context.Context) ([]Report, error) {
	intents, err := r.reconcileStripeIntents(ctx)
	if err != nil {
		return nil, err
	}
	subs, err := r.reconcileStripeSubscriptions(ctx)
	if err != nil {
		return []Report{intents}, err
	}
	return []Report{intents, subs}, nil
}

func (r *Runner) reconcileStripeIntents(ctx context.Context) (Report, error) {
	report := Report{Job: "stripe-intents", Applied: r.cfg.Reconcile.Apply}

	intents, err := r.store.ListIntentsByProvider(ctx, domain.ProviderStripe, r.cfg.Reconcile.IntentLimit)
	if err != nil {
		return report, err
	}

	for _, intent := range intents {
		if intent.Reference == nil || *intent.Reference == "" {
			continue
		}
		report.Checked++

		sess, err := checkoutsession.Get(*intent.Reference, nil)
		if err != nil {
			r.skip("stripe-intents", *intent.Reference, err)
			continue
		}

		next := domain.StripeSessionStatus(string(sess.PaymentStatus), string(sess.Status), intent.Status)
		if next == intent.Status {
			continue
		}

		t := Transition{Reference: *intent.Reference, From: intent.Status, To: next}
		report.Transitions = append(report.Transitions, t)
		r.logTransition("stripe-intents", t)

		if r.cfg.Reconcile.Apply {
			if err := r.store.UpdateIntentStatusByID(ctx, intent.ID, next); err != nil {
				r.skip("stripe-intents", *intent.Reference, err)
				continue
			}
			report.Updated++
		}
	}
	return report, nil
}

func (r *Runner) reconcileStripeSubscriptions(ctx context.Context) (Report, error) {
	report := Report{Job: "stripe-subscriptions", Applied: r.cfg.Reconcile.Apply}

	customers, err := r.store.ListCustomersByProvider(ctx, domain.ProviderStripe)
	if err != nil {
		return report, err
	}
	cutoff := time.Now().AddDate(0, 0, -r.cfg.Reconcile.LookbackDays)

	for _, customer := range customers {
		params := &stripe.SubscriptionListParams{
			Customer: stripe.String(customer.CustomerID),
			Status:   stripe.String("all"),
			CreatedRange: &stripe.RangeQueryParams{
				GreaterThanOrEqual: cutoff.Unix(),
			},
		}

		iter := subscription.List(params)
		for iter.Next() {
			sub := iter.Subscription()
			report.Checked++

			var periodEnd *time.Time
			if sub.CurrentPeriodEnd > 0 {
				t := time.Unix(sub.CurrentPeriodEnd, 0)
				periodEnd = &t
			}
			providerStatus := strings.ToLower(string(sub.Status))

			local, err := r.store.FindSubscription(ctx, domain.ProviderStripe, sub.ID)
			if err != nil {
				r.skip("stripe-subscriptions", sub.ID, err)
				continue
			}

			if local == nil {
				t := Transition{Reference: sub.ID, From: "missing", To: providerStatus}
				report.Transitions = append(report.Transitions, t)
				r.logTransition("stripe-subscriptions", t)
				if r.cfg.Reconcile.Apply {
					if err := r.store.UpsertSubscription(ctx, &domain.BillingSubscription{
						UserID:           customer.UserID,
						Provider:         domain.ProviderStripe,
						Subscription:     sub.ID,
						Status:           providerStatus,
						CurrentPeriodEnd: periodEnd,
					}); err != nil {
						r.skip("stripe-subscriptions", sub.ID, err)
						continue
					}
					report.Updated++
				}
				continue
			}

			if local.Status == providerStatus && equalTime(local.CurrentPeriodEnd, periodEnd) {
				continue
			}

			t := Transition{Reference: sub.ID, From: local.Status, To: providerStatus}
			report.Transitions = append(report.Transitions, t)
			r.logTransition("stripe-subscriptions", t)
			if r.cfg.Reconcile.Apply {
				if _, err := r.store.UpdateSubscription(ctx, domain.ProviderStripe, sub.ID, providerStatus, periodEnd); err != nil {
					r.skip("stripe-subscriptions", sub.ID, err)
					continue
				}
				report.Updated++
			}
		}
		if err := iter.Err(); err != nil {
			r.skip("stripe-subscriptions", customer.CustomerID, err)
		}
	}
	return report, nil
}

func equalTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
