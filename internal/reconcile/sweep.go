package reconcile

import (
	"context"
	"time"

	domain "contextlattice-console/internal/domain/billing"
)

// SweepStale finds intents stuck in a non-terminal status past the lookback
// window. Marking them stale is gated behind its own flag; the default run
// only reports.
func (r *Runner) SweepStale(ctx context.Context) (Report, error) {
	report := Report{Job: "sweep", Applied: r.cfg.Reconcile.MarkStale}

	cutoff := time.Now().Add(-time.Duration(r.cfg.Reconcile.LookbackHours) * time.Hour)
	intents, err := r.store.ListIntentsInStatusOlderThan(ctx, domain.NonTerminalStatuses, cutoff)
	if err != nil {
		return report, err
	}
	report.Checked = len(intents)

	var ids []uint
	for _, intent := range intents {
		report.Transitions = append(report.Transitions, Transition{
			Reference: ref(intent.Reference),
			From:      intent.Status,
			To:        domain.StatusStale,
		})
		ids = append(ids, intent.ID)
	}

	if r.cfg.Reconcile.MarkStale && len(ids) > 0 {
		n, err := r.store.MarkIntentsStale(ctx, ids)
		if err != nil {
			return report, err
		}
		report.Updated = int(n)
	}
	return report, nil
}
