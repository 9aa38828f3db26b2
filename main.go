package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrops-br/apip-render/internal/app/service"
	"github.com/mrops-br/apip-render/internal/infrastructure/config"
	"github.com/mrops-br/apip-render/internal/infrastructure/http"
	"github.com/mrops-br/apip-render/internal/infrastructure/http/handler"
	"github.com/mrops-br/apip-render/internal/infrastructure/sanitize"
	"github.com/mrops-br/apip-render/internal/infrastructure/telemetry"
	"github.com/mrops-br/apip-render/internal/infrastructure/upstream"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize OpenTelemetry
	telem, err := telemetry.New(&cfg.OTLP)
	if err != nil {
		log.Fatalf("Failed to initialize telemetry: %v", err)
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Ensure telemetry is shutdown on exit
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := telem.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down telemetry: %v", err)
		}
	}()

	// Get tracer, meter, and logger instances
	tracer := telem.TracerProvider.Tracer("apip-render")
	meter := telem.MeterProvider.Meter("apip-render")
	logger := telem.Logger

	logger.Info("Starting product block renderer",
		slog.String("embed_endpoint", cfg.Upstream.EmbedEndpoint),
		slog.Bool("prefetch", cfg.Render.Prefetch),
	)
	if cfg.Upstream.EmbedEndpoint == "" {
		logger.Warn("No embed endpoint configured, every block will use the fallback button")
	}

	metrics := service.NewMetrics(meter)

	// Adapters
	policy := sanitize.NewPolicy()
	embed := upstream.NewEmbedClient(cfg.Upstream.EmbedEndpoint, cfg.Upstream.Timeout, logger)
	prober, err := upstream.NewCachedImageProber(
		upstream.NewHTTPImageProber(cfg.Images.ProbeTimeout),
		cfg.Images.DimensionCacheSize,
	)
	if err != nil {
		log.Fatalf("Failed to initialize image prober: %v", err)
	}

	// Render pipeline (dependency injection)
	fetcher := service.NewUpstreamFetcher(embed, policy, cfg.Upstream.DefaultPartnerID, tracer, logger, metrics)
	images := service.NewImageNormalizer(prober, tracer, logger, metrics)
	resolver := service.NewProductResolver(fetcher, images, metrics)
	blocks := service.NewBlockRenderer(resolver, policy, tracer, logger, metrics)
	pages := service.NewPageRenderer(blocks, resolver, policy, service.PageOptions{
		Prefetch:      cfg.Render.Prefetch,
		PrefetchLimit: cfg.Render.PrefetchLimit,
	}, tracer, logger)

	// Initialize handler
	renderHandler := handler.NewRenderHandler(pages, logger)

	// Initialize HTTP server
	server := http.NewServer(&cfg.Server, renderHandler, telem.MeterProvider, logger)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("Server error", "error", err.Error())
			cancel()
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("Shutting down server...")
	case <-ctx.Done():
		logger.Info("Context cancelled, shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err.Error())
	}

	logger.Info("Server stopped")
}
