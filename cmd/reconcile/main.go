// Command reconcile runs the billing reconciliation jobs once or on an
// interval. Dry-run unless BILLING_RECONCILE_APPLY=true is set.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"contextlattice-console/config"
	"contextlattice-console/database"
	"contextlattice-console/internal/billing"
	"contextlattice-console/internal/infra/logging"
	"contextlattice-console/internal/reconcile"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v75"
)

func main() {
	job := flag.String("job", "all", "job to run: all|sweep|stripe|paypal|coinbase")
	interval := flag.Duration("interval", 0, "re-run on this interval instead of exiting (e.g. 1h)")
	apply := flag.Bool("apply", false, "write detected transitions instead of dry-running")
	flag.Parse()

	cfg := config.Load()
	if *apply {
		cfg.Reconcile.Apply = true
	}
	log := logging.New(cfg.Log)
	database.InitDB(cfg.DBURL)

	if cfg.Stripe.Enabled {
		stripe.Key = cfg.Stripe.SecretKey
	}

	store := billing.NewStore(database.DB)
	runner := reconcile.NewRunner(store, cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *interval > 0 {
		log.Info().Dur("interval", *interval).Msg("reconcile loop started")
		runner.Loop(ctx, *interval)
		return
	}

	var reports []reconcile.Report
	switch *job {
	case "all":
		reports = runner.RunAll(ctx)
	case "sweep":
		rep, err := runner.SweepStale(ctx)
		exitOnErr(log, "sweep", err)
		reports = []reconcile.Report{rep}
	case "stripe":
		rep, err := runner.ReconcileStripe(ctx)
		exitOnErr(log, "stripe", err)
		reports = rep
	case "paypal":
		rep, err := runner.ReconcilePayPal(ctx)
		exitOnErr(log, "paypal", err)
		reports = []reconcile.Report{rep}
	case "coinbase":
		rep, err := runner.ReconcileCoinbase(ctx)
		exitOnErr(log, "coinbase", err)
		reports = []reconcile.Report{rep}
	default:
		log.Fatal().Str("job", *job).Msg("unknown job")
	}

	for _, rep := range reports {
		log.Info().
			Str("job", rep.Job).
			Int("checked", rep.Checked).
			Int("updated", rep.Updated).
			Bool("applied", rep.Applied).
			Int("transitions", len(rep.Transitions)).
			Msg("reconcile finished")
	}
}

func exitOnErr(log zerolog.Logger, job string, err error) {
	if err != nil {
		log.Fatal().Err(err).Str("job", job).Msg("reconcile job failed")
	}
}
