// Entry point for the visitor kiosk service
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"visitor.kiosk/internal/api"
	"visitor.kiosk/internal/config"
	"visitor.kiosk/internal/core"
	"visitor.kiosk/internal/core/model"
	"visitor.kiosk/internal/ports/gateway"
	"visitor.kiosk/pkg/logger"
	"visitor.kiosk/pkg/telemetry"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	// Configure structured logging
	logger.Setup(cfg.IsLocalDev)

	// Configure OpenTelemetry Tracing
	shutdownTracer, err := telemetry.InitTracer("visitor-kiosk", cfg.OTLPEndpoint, cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	// The department this kiosk operates for; every scan is classified
	// against it.
	target := model.Department{
		ID:       cfg.DepartmentID,
		OfficeID: cfg.OfficeID,
		Name:     cfg.DepartmentName,
	}

	// Initialize dependencies
	gw := gateway.NewHTTPGateway(cfg.VisitorAPIURL, cfg.OperatorID, cfg.HTTPTimeout)
	migrator := core.NewImageMigrator(gw)
	reconciler := core.NewTransferReconciler(gw, migrator)
	controller := core.NewSessionController(gw, reconciler)

	// Setup router and server
	router := api.NewRouter(controller, target)

	// Middleware to inject logger with trace ID
	loggerMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.EnrichContextWithLogger(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}

	// Wrap the router with OpenTelemetry middleware to create spans for each request
	handler := otelhttp.NewHandler(loggerMiddleware(router), "kiosk")

	serverAddr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: handler,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("port", cfg.ServerPort).
			Int64("department_id", cfg.DepartmentID).
			Int64("office_id", cfg.OfficeID).
			Msg("Kiosk service starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
