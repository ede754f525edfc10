package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopcore-backend/config"
	"shopcore-backend/internal/infrastructure/cache"
	"shopcore-backend/internal/notification"
	"shopcore-backend/internal/repository/postgres"
	"shopcore-backend/internal/usecase"
	"shopcore-backend/pkg/logger"
)

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Initialize Database with pgx
	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Successfully connected to PostgreSQL via pgx")

	// Initialize Repositories
	cartRepo := postgres.NewCartRepository(pgxPool)
	couponRepo := postgres.NewCouponRepository(pgxPool)
	orderRepo := postgres.NewOrderRepository(pgxPool)
	inventoryRepo := postgres.NewInventoryRepository(pgxPool)
	txManager := postgres.NewTransactionManager(pgxPool)

	// Catalog gateway with in-memory facts cache
	memCache := cache.NewMemoryCache(cfg.CacheCatalogTTL, 2*cfg.CacheCatalogTTL)
	catalog := usecase.NewCachedCatalog(postgres.NewCatalogGateway(pgxPool), memCache, cfg.CacheCatalogTTL)

	// Notification dispatch (fire-and-forget, rate limited)
	dispatcher := notification.NewAsyncDispatcher(
		context.Background(),
		notification.LogSender{},
		cfg.NotificationRate,
		cfg.NotificationBurst,
	)

	// --- Modules Initialization ---

	couponEngine := usecase.NewCouponEngine(couponRepo, orderRepo)
	couponUC := usecase.NewCouponUsecase(couponRepo)

	quoter := usecase.NewFlatRateQuoter(0, 0)
	cartUC := usecase.NewCartUsecase(cartRepo, catalog, quoter, couponEngine, cfg.MaxCartQuantity)

	orderUC := usecase.NewOrderUsecase(
		orderRepo, cartRepo, inventoryRepo, catalog,
		couponEngine, txManager, dispatcher, cfg.Currency,
	)

	_ = couponUC
	_ = cartUC
	_ = orderUC

	// Delivery surfaces (HTTP/gRPC handlers) mount here; the core is wired
	// and ready behind the usecases above.

	// Health Check
	mux := http.NewServeMux()
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok", "db": "connected"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler) // Support root health check for Load Balancers

	addr := fmt.Sprintf(":%s", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	log.Info().Msgf("Server starting on %s", addr)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Flush in-flight notifications before closing the pool.
	dispatcher.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	pgxPool.Close()
	log.Info().Msg("Server exited properly")
}
