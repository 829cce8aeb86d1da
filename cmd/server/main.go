package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipdigest/backend/internal/config"
	"github.com/clipdigest/backend/internal/domain"
	"github.com/clipdigest/backend/internal/handler"
	appMiddleware "github.com/clipdigest/backend/internal/middleware"
	"github.com/clipdigest/backend/internal/repository"
	"github.com/clipdigest/backend/internal/service"
	"github.com/clipdigest/backend/pkg/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (for local development)
	_ = godotenv.Load()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Config error: %v", err)
	}

	ctx := context.Background()

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("❌ Database error: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("❌ Migration error: %v", err)
	}
	log.Println("✅ Database connected & migrated")

	// Plan registry and price table are immutable and injected, never ambient.
	registry := domain.DefaultRegistry()
	prices := domain.DefaultPriceTable()

	// Payment gateways. Missing credentials fall back to the mock so local
	// development works without gateway accounts.
	gateways := map[domain.BusinessType]payment.Gateway{}
	if cfg.StripeSecretKey != "" {
		gateways[domain.BusinessStripeCheckout] = payment.NewStripeGateway(
			cfg.StripeSecretKey, cfg.StripeSuccessURL, cfg.StripeCancelURL)
		log.Println("✅ Stripe gateway configured")
	} else {
		gateways[domain.BusinessStripeCheckout] = payment.NewMockGateway()
		log.Println("⚠️  STRIPE_SECRET_KEY not set, using mock gateway")
	}
	if cfg.PayPalClientID != "" && cfg.PayPalSecret != "" {
		pp, err := payment.NewPayPalGateway(
			cfg.PayPalClientID, cfg.PayPalSecret, cfg.PayPalLive,
			cfg.PayPalReturnURL, cfg.PayPalCancelURL)
		if err != nil {
			log.Fatalf("❌ PayPal error: %v", err)
		}
		gateways[domain.BusinessPayPalCheckout] = pp
		gateways[domain.BusinessPayPalSmart] = pp
		log.Println("✅ PayPal gateway configured")
	} else {
		mock := payment.NewMockGateway()
		gateways[domain.BusinessPayPalCheckout] = mock
		gateways[domain.BusinessPayPalSmart] = mock
		log.Println("⚠️  PayPal credentials not set, using mock gateway")
	}

	// Repositories and services
	usageRepo := repository.NewUsageRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)

	ledgerSvc := service.NewLedgerService(usageRepo, registry, nil)
	rewardSvc := service.NewRewardService(usageRepo, ledgerSvc)
	paymentSvc := service.NewPaymentService(orderRepo, ledgerSvc, prices, gateways, nil)
	identitySvc := service.NewIdentityService(cfg.JWTSecret, service.NewGoogleProvider(cfg.OAuthTokenInfoURL), userRepo)

	// Handlers
	usageHandler := handler.NewUsageHandler(ledgerSvc, rewardSvc, identitySvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, identitySvc)
	plansHandler := handler.NewPlansHandler(registry)
	healthHandler := handler.NewHealthHandler(db)
	authHandler := handler.NewAuthHandler(identitySvc)

	// Build router
	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Identity is optional on most of the surface: guests are first-class.
	r.Use(appMiddleware.Identity(identitySvc))

	// Public routes
	r.Get("/health", healthHandler.Check)
	r.Get("/api/plans", plansHandler.List)
	r.Post("/auth/exchange", authHandler.Exchange)

	// Ledger surface
	r.Post("/usage/get", usageHandler.Get)
	r.Post("/usage/check-and-consume", usageHandler.CheckAndConsume)
	r.Post("/usage/survey-submit", usageHandler.SurveySubmit)

	// Payment surface; checkout creation fans out to gateway APIs, so it
	// gets the strict limiter.
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/pay/create", paymentHandler.Create)
		r.Post("/pay/paypal-create", paymentHandler.PayPalCreate)
		r.Post("/pay/paypal-smart-create", paymentHandler.PayPalSmartCreate)
	})
	r.Post("/pay/paypal-smart-capture", paymentHandler.PayPalSmartCapture)
	r.Get("/pay/verify", paymentHandler.Verify)
	r.Get("/pay/await", paymentHandler.Await)

	// Start server
	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("🛑 Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("🚀 ClipDigest Backend listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("❌ Server error: %v", err)
	}
}
