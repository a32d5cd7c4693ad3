package reconcile

import (
	"context"

	domain "contextlattice-console/internal/domain/billing"
)

// ReconcilePayPal re-reads PayPal orders for recent intents and reports
// status drift.
func (r *Runner) ReconcilePayPal(ctx context.Context) (Report, error) {
	report := Report{Job: "paypal", Applied: r.cfg.Reconcile.Apply}
	if r.paypal == nil {
		return report, nil
	}

	intents, err := r.store.ListIntentsByProvider(ctx, domain.ProviderPayPal, r.cfg.Reconcile.IntentLimit)
	if err != nil {
		return report, err
	}

	for _, intent := range intents {
		if intent.Reference == nil || *intent.Reference == "" {
			continue
		}
		report.Checked++

		order, err := r.paypal.GetOrder(ctx, *intent.Reference)
		if err != nil {
			r.skip("paypal", *intent.Reference, err)
			continue
		}

		next := domain.PayPalOrderStatus(order.Status)
		if next == intent.Status {
			continue
		}

		t := Transition{Reference: *intent.Reference, From: intent.Status, To: next}
		report.Transitions = append(report.Transitions, t)
		r.logTransition("paypal", t)

		if r.cfg.Reconcile.Apply {
			if err := r.store.UpdateIntentStatusByID(ctx, intent.ID, next); err != nil {
				r.skip("paypal", *intent.Reference, err)
				continue
			}
			report.Updated++
		}
	}
	return report, nil
}
