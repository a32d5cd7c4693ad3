// Package reconcile corrects local billing state that drifted from provider
// truth, out of band of the request path: a generic staleness sweep plus one
// job per provider with an API to poll. Jobs are dry-run by default; real
// mutation happens only when the apply flag is set. A fetch failure for one
// intent skips that intent and the job keeps going.
package reconcile

import (
	"context"
	"time"

	"contextlattice-console/config"
	"contextlattice-console/internal/billing"
	"contextlattice-console/internal/infra/coinbase"
	"contextlattice-console/internal/infra/paypal"

	"github.com/rs/zerolog"
)

// Transition is one detected status change.
type Transition struct {
	Reference string `json:"reference"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// Report summarizes one job run.
type Report struct {
	Job         string       `json:"job"`
	Checked     int          `json:"checked"`
	Updated     int          `json:"updated"`
	Applied     bool         `json:"applied"`
	Transitions []Transition `json:"transitions,omitempty"`
}

// Runner owns the store and provider clients the jobs need.
type Runner struct {
	store    billing.Store
	cfg      *config.Config
	log      zerolog.Logger
	paypal   *paypal.Client
	coinbase *coinbase.Client
}

func NewRunner(store billing.Store, cfg *config.Config, log zerolog.Logger) *Runner {
	r := &Runner{
		store: store,
		cfg:   cfg,
		log:   log.With().Str("component", "reconcile").Logger(),
	}
	if cfg.PayPal.Enabled {
		r.paypal = paypal.NewClient(cfg.PayPal.ClientID, cfg.PayPal.ClientSecret, cfg.PayPal.Env)
	}
	if cfg.Coinbase.Enabled {
		r.coinbase = coinbase.NewClient(cfg.Coinbase.APIKey)
	}
	return r
}

// WithPayPalClient and WithCoinbaseClient override the provider clients
// (tests point them at local servers).
func (r *Runner) WithPayPalClient(c *paypal.Client) *Runner { r.paypal = c; return r }

func (r *Runner) WithCoinbaseClient(c *coinbase.Client) *Runner { r.coinbase = c; return r }

// RunAll executes every enabled job and returns their reports. Job errors
// are reported per job, not propagated; one failing provider must not block
// the others.
func (r *Runner) RunAll(ctx context.Context) []Report {
	var reports []Report

	sweep, err := r.SweepStale(ctx)
	if err != nil {
		r.log.Error().Err(err).Msg("stale sweep failed")
	} else {
		reports = append(reports, sweep)
	}

	if r.cfg.Stripe.Enabled {
		if rep, err := r.ReconcileStripe(ctx); err != nil {
			r.log.Error().Err(err).Msg("stripe reconcile failed")
		} else {
			reports = append(reports, rep...)
		}
	}
	if r.cfg.PayPal.Enabled {
		if rep, err := r.ReconcilePayPal(ctx); err != nil {
			r.log.Error().Err(err).Msg("paypal reconcile failed")
		} else {
			reports = append(reports, rep)
		}
	}
	if r.cfg.Coinbase.Enabled {
		if rep, err := r.ReconcileCoinbase(ctx); err != nil {
			r.log.Error().Err(err).Msg("coinbase reconcile failed")
		} else {
			reports = append(reports, rep)
		}
	}
	return reports
}

// Loop runs RunAll on a fixed interval until the context is canceled.
func (r *Runner) Loop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, rep := range r.RunAll(ctx) {
				r.log.Info().
					Str("job", rep.Job).
					Int("checked", rep.Checked).
					Int("updated", rep.Updated).
					Bool("applied", rep.Applied).
					Msg("reconcile run finished")
			}
		}
	}
}

func (r *Runner) logTransition(job string, t Transition) {
	r.log.Info().
		Str("job", job).
		Str("reference", t.Reference).
		Str("from", t.From).
		Str("to", t.To).
		Msg("status drift detected")
}

func (r *Runner) skip(job, reference string, err error) {
	r.log.Warn().
		Str("job", job).
		Str("reference", reference).
		Err(err).
		Msg("fetch failed, skipping intent")
}

func ref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
