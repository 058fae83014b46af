package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"order-desk/internal/config"
	"order-desk/internal/database"
	"order-desk/internal/events"
	"order-desk/internal/handler"
	"order-desk/internal/middleware"
	"order-desk/internal/repository"
	"order-desk/internal/router"
	"order-desk/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Logger)
	logger.Info().Msg("starting order-desk API server")

	// Create context for application lifecycle
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool, logger); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	// Initialize repositories
	productRepo := repository.NewProductRepository(pool, logger)
	voucherRepo := repository.NewVoucherRepository(pool, logger)
	orderRepo := repository.NewOrderRepository(pool, logger)

	// Order events go to SNS when a topic is configured, otherwise to the log
	var publisher events.Publisher = events.NewLogPublisher(logger)
	if cfg.Events.SNSTopicARN != "" {
		snsPublisher, err := events.NewSNSPublisher(ctx, cfg.Events.SNSTopicARN, cfg.Events.Region, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize event publisher: %w", err)
		}
		publisher = snsPublisher
	} else {
		logger.Info().Msg("no SNS topic configured, order events are logged only")
	}

	// Initialize services
	productService := service.NewProductService(productRepo, logger)
	voucherService := service.NewVoucherService(voucherRepo, nil, logger)
	orderService := service.NewOrderService(orderRepo, productRepo, voucherRepo, publisher, nil, logger)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		limiter.StartCleanup(ctx)
	}

	// Initialize router
	mux := router.New(router.Handlers{
		Health:  handler.NewHealthHandler(pool, logger),
		Product: handler.NewProductHandler(productService, logger),
		Voucher: handler.NewVoucherHandler(voucherService, logger),
		Order:   handler.NewOrderHandler(orderService, logger),
	}, cfg, limiter, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Channel to listen for errors from the server
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
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info().
			Str("signal", sig.String()).
			Msg("shutdown signal received, starting graceful shutdown")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
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
