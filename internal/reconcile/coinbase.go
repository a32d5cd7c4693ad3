package reconcile

import (
	"context"
	"strings"

	domain "contextlattice-console/internal/domain/billing"
)

// ReconcileCoinbase re-reads Commerce charges for recent intents. The last
// timeline entry on the charge is taken as provider truth.
func (r *Runner) ReconcileCoinbase(ctx context.Context) (Report, error) {
	report := Report{Job: "coinbase", Applied: r.cfg.Reconcile.Apply}
	if r.coinbase == nil {
		return report, nil
	}

	intents, err := r.store.ListIntentsByProvider(ctx, domain.ProviderCoinbase, r.cfg.Reconcile.IntentLimit)
	if err != nil {
		return report, err
	}

	for _, intent := range intents {
		if intent.Reference == nil || *intent.Reference == "" {
			continue
		}
		report.Checked++

		charge, err := r.coinbase.GetCharge(ctx, *intent.Reference)
		if err != nil {
			r.skip("coinbase", *intent.Reference, err)
			continue
		}

		next := intent.Status
		if last := charge.LastTimelineStatus(); last != "" {
			next = strings.ToLower(last)
		}
		if next == intent.Status {
			continue
		}

		t := Transition{Reference: *intent.Reference, From: intent.Status, To: next}
		report.Transitions = append(report.Transitions, t)
		r.logTransition("coinbase", t)

		if r.cfg.Reconcile.Apply {
			if err := r.store.UpdateIntentStatusByID(ctx, intent.ID, next); err != nil {
				r.skip("coinbase", *intent.Reference, err)
				continue
			}
			report.Updated++
		}
	}
	return report, nil
}
