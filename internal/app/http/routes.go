package routes

import (
	"contextlattice-console/config"
	authapi "contextlattice-console/internal/api/auth"
	billingapi "contextlattice-console/internal/api/billing"
	webhooksapi "contextlattice-console/internal/api/webhooks"
	"contextlattice-console/internal/app/http/middleware"
	store "contextlattice-console/internal/billing"
	"contextlattice-console/internal/domain/plans"
	"contextlattice-console/internal/reconcile"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func RegisterRoutes(r *gin.Engine, s store.Store, cfg *config.Config, log zerolog.Logger, reconciler *reconcile.Runner) {
	r.Use(middleware.RequestID())

	authHandler := authapi.NewHandler(cfg, log)
	billingHandler := billingapi.NewHandler(s, cfg, log, reconciler)
	webhookHandler := webhooksapi.NewHandler(s, cfg, log)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Webhooks stay outside the sanitize group; their bodies must reach the
	// handlers byte-for-byte for signature verification.
	r.POST("/webhooks/stripe", webhookHandler.Stripe)
	r.POST("/webhooks/paypal", webhookHandler.PayPal)
	r.POST("/webhooks/coinbase", webhookHandler.Coinbase)

	public := r.Group("/")
	public.Use(middleware.SanitizeInput())
	public.POST("/register", authHandler.Register)
	public.POST("/login", authHandler.Login)
	public.GET("/plans", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "plans": plans.Catalog})
	})

	auth := r.Group("/")
	auth.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	auth.POST("/change-password", authHandler.ChangePassword)

	auth.GET("/billing/providers", billingHandler.Providers)
	auth.GET("/billing/summary", billingHandler.Summary)
	auth.GET("/billing/reconcile/status", billingHandler.ReconcileStatus)

	auth.POST("/billing/stripe/checkout", billingHandler.StripeCheckout)
	auth.POST("/billing/stripe/portal", billingHandler.StripePortal)
	auth.POST("/billing/coinbase/charge", billingHandler.CoinbaseCharge)
	auth.POST("/billing/paypal/capture", billingHandler.PayPalCapture)
	auth.POST("/billing/kraken/instructions", billingHandler.KrakenInstructions)
	auth.POST("/billing/solana-pay", billingHandler.SolanaPayCreate)

	// Operator surface: manual verification and reconcile controls.
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireRole("admin"))
	admin.POST("/billing/kraken/verify", billingHandler.KrakenVerify)
	admin.POST("/billing/solana-pay/verify", billingHandler.SolanaPayVerify)
	admin.GET("/billing/events/failed", billingHandler.FailedEvents)
	admin.POST("/billing/reconcile/run", billingHandler.RunReconcile)
}
