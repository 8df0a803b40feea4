package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coffee-pos/internal/cache"
	"coffee-pos/internal/config"
	"coffee-pos/internal/database"
	"coffee-pos/internal/events"
	"coffee-pos/internal/handler"
	"coffee-pos/internal/promofeed"
	"coffee-pos/internal/repository"
	"coffee-pos/internal/router"
	"coffee-pos/internal/service"

	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting coffee-pos API server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Repositories
	productRepo := repository.NewProductRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)
	inventoryRepo := repository.NewInventoryRepository(pool, logger)
	promotionRepo := repository.NewPromotionRepository(pool, logger)
	supplierRepo := repository.NewSupplierRepository(pool, logger)
	dashboardRepo := repository.NewDashboardRepository(pool, logger)

	// The catalogue cache fronts product reads for the API only.
	catalogueRepo := productRepo
	if cfg.Redis.Enabled {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, serving the catalogue from postgres")
		} else {
			defer rdb.Close()
			catalogueRepo = cache.NewCachedProductRepository(productRepo, rdb, cfg.Redis.TTL, logger)
			logger.Info().Str("addr", cfg.Redis.Addr).Msg("catalogue cache enabled")
		}
	}

	publisher := newPublisher(ctx, cfg.RabbitMQ, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close event publisher")
		}
	}()

	importPromotions(ctx, cfg, promotionRepo, logger)

	// Services
	orderService := service.NewOrderService(orderRepo, productRepo, promotionRepo, inventoryRepo, publisher, cfg.Inventory, logger)
	productService := service.NewProductService(catalogueRepo, logger)
	inventoryService := service.NewInventoryService(inventoryRepo, publisher, cfg.Inventory, logger)
	promotionService := service.NewPromotionService(promotionRepo, logger)
	supplierService := service.NewSupplierService(supplierRepo, logger)
	dashboardService := service.NewDashboardService(dashboardRepo, logger)

	mux := router.New(router.Handlers{
		Orders:     handler.NewOrderHandler(orderService, logger),
		Products:   handler.NewProductHandler(productService, logger),
		Inventory:  handler.NewInventoryHandler(inventoryService, logger),
		Suppliers:  handler.NewSupplierHandler(supplierService, logger),
		Promotions: handler.NewPromotionHandler(promotionService, logger),
		Dashboard:  handler.NewDashboardHandler(dashboardService, logger),
	}, router.Options{
		APIKey:         cfg.Auth.APIKey,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Ping:           pool.Ping,
	}, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Info().
			Str("address", cfg.Server.Address()).
			Msg("HTTP server started")
		serverErrors <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("failed to shutdown server gracefully")
			if closeErr := server.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close server")
			}
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info().Msg("server shutdown completed")
	}

	return nil
}

// newPublisher connects to RabbitMQ when enabled. Settlement never depends on
// the broker, so any failure degrades to a no-op publisher.
func newPublisher(ctx context.Context, cfg config.RabbitMQConfig, logger zerolog.Logger) events.Publisher {
	if !cfg.Enabled {
		logger.Info().Msg("event publishing disabled")
		return events.NewNopPublisher()
	}

	p, err := events.NewRabbitPublisher(ctx, cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Msg("rabbitmq unavailable, events will not be published")
		return events.NewNopPublisher()
	}
	return p
}

// importPromotions loads the configured feed files from S3, falling back to
// the local file system. Failures are logged and do not stop the server.
func importPromotions(ctx context.Context, cfg *config.Config, store promofeed.Upserter, logger zerolog.Logger) {
	if len(cfg.PromoFeed.Files) == 0 {
		return
	}

	var primary promofeed.Loader
	if cfg.S3.Enabled {
		s3Loader, err := promofeed.NewS3Loader(ctx, cfg.S3.Bucket, cfg.S3.Region, logger)
		if err != nil {
			logger.Warn().
				Err(err).
				Msg("failed to initialise S3 loader, falling back to local file system only")
		} else {
			primary = s3Loader
		}
	}

	loader := promofeed.NewFallbackLoader(primary, promofeed.NewFileLoader(logger), cfg.S3.Prefix, logger)

	importCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	n, err := promofeed.NewImporter(loader, store, logger).Import(importCtx, cfg.PromoFeed.Files)
	if err != nil {
		logger.Error().Err(err).Strs("files", cfg.PromoFeed.Files).Msg("promotion feed import failed")
		return
	}
	logger.Info().Int("promotions", n).Msg("promotion feed imported")
}
