package main

import (
	"time"

	"contextlattice-console/config"
	"contextlattice-console/database"
	routes "contextlattice-console/internal/app/http"
	"contextlattice-console/internal/billing"
	"contextlattice-console/internal/infra/logging"
	"contextlattice-console/internal/reconcile"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
)

func main() {
	cfg := config.Load()
	log := logging.New(cfg.Log)
	database.InitDB(cfg.DBURL)

	if cfg.Stripe.Enabled {
		stripe.Key = cfg.Stripe.SecretKey
	}

	store := billing.NewStore(database.DB)
	reconciler := reconcile.NewRunner(store, cfg, log)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-request-id"},
		ExposeHeaders:    []string{"Content-Length", "x-request-id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, store, cfg, log, reconciler)

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
