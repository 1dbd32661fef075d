package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/mapdriver/internal/animation"
	"github.com/UnknownOlympus/mapdriver/internal/config"
	"github.com/UnknownOlympus/mapdriver/internal/driver"
	"github.com/UnknownOlympus/mapdriver/internal/geocoding"
	"github.com/UnknownOlympus/mapdriver/internal/mapfacade/headless"
	"github.com/UnknownOlympus/mapdriver/internal/metrics"
	"github.com/UnknownOlympus/mapdriver/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

const appName = "mapdriver"

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env, os.Stdout)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	// Create geocoding provider using factory pattern based on configuration
	geoProvider, err := geocoding.NewProvider(geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.Provider.Type),
		APIKey:    cfg.Provider.APIKey,
		RateLimit: cfg.Provider.RateLimit,
		Logger:    logger,
	})
	if err != nil {
		log.Fatalf("Failed to create geocoding provider: %v", err)
	}
	geocoder := geocoding.NewInstrumented(geoProvider, cfg.Provider.Type, appMetrics)

	logger.InfoContext(ctx, "Geocoding provider initialized", "type", cfg.Provider.Type)

	// The frame loop drives every marker animation.
	scheduler := animation.NewTickerScheduler(cfg.Animation.FPS, logger)
	go scheduler.Run(ctx)

	doc := headless.NewDocument()
	doc.Register(cfg.Selector, "DIV")

	mapDriver, err := driver.New(
		headless.NewLibrary(logger),
		doc,
		cfg.Selector,
		cfg.Map,
		geocoder,
		scheduler,
		logger,
		appMetrics,
	)
	if err != nil {
		log.Fatalf("Failed to create map driver: %v", err)
	}

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, mapDriver, cfg.Port)

	// Log that the application has started.
	logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.")

	placeMarkers(ctx, logger, mapDriver, cfg)

	// Wait for the context to be canceled (e.g., by Ctrl+C).
	<-ctx.Done()

	// Log that a shutdown signal has been received.
	logger.InfoContext(ctx, "Shutdown signal received. Stopping application...")

	for _, id := range mapDriver.GetMarkers() {
		if err = mapDriver.DestroyMarker(id); err != nil {
			logger.ErrorContext(ctx, "Failed to destroy marker", "id", id, "error", err)
		}
	}

	// Log graceful shutdown completion.
	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// placeMarkers geocodes the configured addresses into markers, focuses the
// map on them and moves the first marker onto the last one.
func placeMarkers(ctx context.Context, log *slog.Logger, mapDriver *driver.MapDriver, cfg *config.Config) {
	for _, address := range cfg.Addresses {
		id, err := mapDriver.CreateMarker(ctx, driver.MarkerConfig{
			Location:    models.PostalAddress(address),
			Title:       address,
			InfoContent: driver.Text(address),
		})
		if errors.Is(err, driver.ErrAddressNotFound) {
			log.WarnContext(ctx, "Address could not be placed on the map", "address", address)
			continue
		}
		if err != nil {
			log.ErrorContext(ctx, "Failed to create marker", "address", address, "error", err)
			continue
		}
		log.InfoContext(ctx, "Marker placed", "id", id, "address", address)
	}

	markers := mapDriver.GetMarkers()
	if len(markers) == 0 {
		log.WarnContext(ctx, "No markers were placed")
		return
	}
	if err := mapDriver.FocusAll(); err != nil {
		log.ErrorContext(ctx, "Failed to focus markers", "error", err)
		return
	}
	if len(markers) < 2 { //nolint:mnd // a move needs two markers
		return
	}

	last, _ := mapDriver.Marker(markers[len(markers)-1])
	task, err := mapDriver.MoveMarker(markers[0], last.Position(), driver.WithDuration(cfg.Animation.Duration))
	if err != nil {
		log.ErrorContext(ctx, "Failed to move marker", "error", err)
		return
	}

	go func() {
		select {
		case <-task.Done():
			log.InfoContext(ctx, "Marker arrived", "id", markers[0], "cancelled", task.Cancelled())
		case <-ctx.Done():
		}
	}()
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - mapDriver: The driver whose marker count is reported by the health check.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	mapDriver *driver.MapDriver,
	port int,
) {
	http.HandleFunc("/healthz", func(writer http.ResponseWriter, _ *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		writer.WriteHeader(http.StatusOK)
		_, err := fmt.Fprintf(writer, "OK markers=%d", mapDriver.Len())
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", http.StatusOK)
	})
	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      http.DefaultServeMux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(readTimeout)*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes a logger for env writing to out. Every record
// carries the application name and environment.
func setupLogger(env string, out io.Writer) *slog.Logger {
	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	var handler slog.Handler
	switch env {
	case envLocal:
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug, AddSource: true})
	case envDev:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo})
	case envProd:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelWarn, ReplaceAttr: dropTime})
	default:
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelError, ReplaceAttr: dropTime})
	}

	log := slog.New(handler).With(slog.String("app", appName), slog.String("env", env))
	if env != envLocal && env != envDev && env != envProd {
		log.Error(
			"The MAPDRIVER_ENV parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}
