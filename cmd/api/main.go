package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kainan-backend/config"
	"kainan-backend/internal/delivery/http/middleware"
	v1 "kainan-backend/internal/delivery/http/v1"
	"kainan-backend/internal/events"
	"kainan-backend/internal/infrastructure/cache"
	"kainan-backend/internal/repository/postgres"
	"kainan-backend/internal/usecase"
	"kainan-backend/pkg/logger"
	"kainan-backend/pkg/storage"
	"kainan-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
)

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	tokens := utils.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenExpiry)

	// Initialize Database with pgx
	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Successfully connected to PostgreSQL via pgx")

	// Initialize Repositories
	userRepo := postgres.NewUserRepository(pgxPool)
	orderRepo := postgres.NewOrderRepository(pgxPool)
	assignmentRepo := postgres.NewAssignmentRepository(pgxPool)
	txManager := postgres.NewTransactionManager(pgxPool)

	// Initialize Cache (In-Memory)
	memCache := cache.NewMemoryCache(cfg.CacheOrderTTL, 2*cfg.CacheOrderTTL)

	// Order events: in-process hub for SSE, optionally mirrored to Kafka.
	hub := events.NewHub()
	var publisher events.Publisher = hub
	var kafkaPub *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, hub)
		publisher = kafkaPub
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("Kafka order events enabled")
	}

	// Object storage for proof-of-delivery photos
	proofStorage, err := storage.NewS3Storage(
		context.Background(),
		cfg.StorageEndpoint,
		cfg.StorageRegion,
		cfg.StorageAccessKey,
		cfg.StorageAccessSecret,
		cfg.StorageBucketName,
		cfg.StoragePublicURL,
		cfg.StorageUploadTimeout,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	// Set up Router
	mux := http.NewServeMux()

	// --- Modules Initialization ---

	// Auth Module
	authUC := usecase.NewAuthUsecase(userRepo, tokens)
	authHandler := v1.NewAuthHandler(authUC)

	// Order Module
	pricing := usecase.CheckoutPricing{
		DeliveryFees: cfg.DeliveryFees,
		TaxRate:      cfg.TaxRate,
		DefaultETA:   time.Duration(cfg.DefaultETAMin) * time.Minute,
	}
	orderUC := usecase.NewOrderUsecase(orderRepo, assignmentRepo, txManager, publisher, memCache, cfg.CacheOrderTTL, pricing)
	orderHandler := v1.NewOrderHandler(orderUC)
	adminOrderHandler := v1.NewAdminOrderHandler(orderUC)

	// Rider Module
	riderUC := usecase.NewRiderUsecase(orderUC)
	proofFlow := usecase.NewProofFlow(proofStorage)
	riderHandler := v1.NewRiderHandler(riderUC, proofFlow, cfg.MaxUploadSizeMB)

	// Realtime Module
	eventsHandler := v1.NewEventsHandler(hub)

	// Middleware chains
	auth := middleware.NewAuthMiddleware(tokens)
	asCustomer := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole("customer", "admin")(h))
	}
	asRider := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole("rider")(h))
	}
	asAdmin := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole("admin")(h))
	}
	authed := func(h http.HandlerFunc) http.Handler {
		return auth(http.HandlerFunc(h))
	}

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.Handle("GET /api/v1/auth/me", authed(authHandler.Me))

	// Customer Orders
	mux.Handle("POST /api/v1/checkout", asCustomer(orderHandler.Checkout))
	mux.Handle("GET /api/v1/orders", authed(orderHandler.ListMyOrders))
	mux.Handle("GET /api/v1/orders/{id}", authed(orderHandler.GetOrder))

	// Realtime order updates (SSE)
	mux.Handle("GET /api/v1/orders/{id}/events", authed(eventsHandler.StreamOrder))

	// Rider
	mux.Handle("GET /api/v1/rider/orders/available", asRider(riderHandler.ListAvailable))
	mux.Handle("POST /api/v1/rider/orders/{id}/claim", asRider(riderHandler.ClaimOrder))
	mux.Handle("POST /api/v1/rider/orders/{id}/picked-up", asRider(riderHandler.MarkPickedUp))
	mux.Handle("POST /api/v1/rider/orders/{id}/verify-cod", asRider(riderHandler.VerifyCODPayment))
	mux.Handle("POST /api/v1/rider/orders/{id}/proof", asRider(riderHandler.UploadProof))
	mux.Handle("POST /api/v1/rider/orders/{id}/delivered", asRider(riderHandler.MarkDelivered))

	// Admin Orders
	mux.Handle("GET /api/v1/admin/orders", asAdmin(adminOrderHandler.ListOrders))
	mux.Handle("GET /api/v1/admin/orders/{id}", asAdmin(adminOrderHandler.GetOrder))
	mux.Handle("PATCH /api/v1/admin/orders/{id}/status", asAdmin(adminOrderHandler.UpdateStatus))
	mux.Handle("POST /api/v1/admin/orders/{id}/verify-payment", asAdmin(adminOrderHandler.VerifyPayment))
	mux.Handle("GET /api/v1/admin/orders/{id}/history", asAdmin(adminOrderHandler.GetHistory))

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok", "db": "connected"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Initialize Rate Limiter with lifecycle management
	// 50 req/s, burst 100, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		50,
		100,
		time.Minute,
		3*time.Minute,
	)

	// Apply CORS (with config injection), Request Logger, Rate Limit, and Gzip
	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	log.Info().Msgf("Server starting on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()
	if kafkaPub != nil {
		if err := kafkaPub.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Kafka publisher")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	pgxPool.Close()
	log.Info().Msg("Server exited properly")
}
