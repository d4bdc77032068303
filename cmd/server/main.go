package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"led-fleet-gateway/internal/api"
	"led-fleet-gateway/internal/collector"
	"led-fleet-gateway/internal/config"
	"led-fleet-gateway/internal/gateway"
	"led-fleet-gateway/internal/observability/metrics"
	"led-fleet-gateway/internal/telemetry"
	"led-fleet-gateway/pkg/router"
	"led-fleet-gateway/pkg/utils"
)

// drainPause gives in-flight session teardowns a moment to settle after
// the transports are closed.
const drainPause = 250 * time.Millisecond

func main() {
	sigCtx, sigCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer sigCancel()

	config, err := config.New()
	if err != nil {
		fatalIfErr(slog.Default(), fmt.Errorf("failed to create config: %w", err))
	}

	defer utils.LogOnError(slog.Default(), config.Close, "failed to close config")

	// Initialize logger
	logger := getLogger(config)

	// Gateway core
	registry := gateway.NewRegistry(logger, config.EvictAfter)
	pending := gateway.NewPendingTable()
	dispatcher := gateway.NewDispatcher(logger, registry, pending)

	collectorClient := collector.NewClient(logger, config.CollectorURL, config.CollectorToken)
	if !collectorClient.Enabled() {
		logger.Warn("collector forwarding disabled, no collector url configured")
	}

	telemetryRouter := telemetry.NewRouter(logger, collectorClient)
	sessions := gateway.NewSessionManager(logger, registry, pending, telemetryRouter)
	prober := gateway.NewProber(logger, registry, config.PingInterval)

	go prober.Run(sigCtx)

	// Device TCP listener
	deviceAddr := fmt.Sprintf(":%d", config.DevicePort)
	deviceServer := gateway.NewServer(logger, deviceAddr, sessions)

	go func() {
		if err := deviceServer.Serve(sigCtx); err != nil {
			logger.Error("device listener failed", utils.ErrAttr(err))
			sigCancel()
		}
	}()

	// HTTP facade
	apiHandler := api.NewHandler(logger, registry, dispatcher, sessions, config.CommandTimeout)
	mw := api.NewMiddlewareHandler(logger, config.AdminToken)

	rb := router.NewRouteBuilder(logger)
	registerHTTPHandlers(logger, rb, apiHandler, mw)

	httpServer := api.NewHTTPServer(logger, fmt.Sprintf(":%d", config.Port), rb.Router())
	httpServer.StartOnBackground(sigCancel)

	// Wait for signal (either OS or some failure)
	<-sigCtx.Done()
	logger.Info("received signal, shutting down...")

	logger.Info("device listener shutting down...")

	if err := deviceServer.Close(); err != nil {
		logger.Error("device listener shutdown failed", utils.ErrAttr(err))
	}

	registry.CloseAll("server_shutdown")
	time.Sleep(drainPause)

	logger.Info("http server shutting down...")

	if err := httpServer.ShutdownWithDefaultTimeout(); err != nil {
		logger.Error("http server shutdown failed", utils.ErrAttr(err))
	}

	logger.Info("server exited gracefully")
}

// registerHTTPHandlers registers all HTTP handlers.
func registerHTTPHandlers(l *slog.Logger, rb *router.RouteBuilder, h *api.Handler, mw *api.MiddlewareHandler) {
	l.Info("Registering HTTP handlers...")

	rb.Use(mw.RequestIDMiddleware)
	rb.Use(mw.LoggerMiddleware)
	rb.Use(mw.RecoveryMiddleware)

	h.RegisterHealth("/health", rb)
	h.RegisterDeviceWS("/device/ws", rb)
	rb.Router().Handle("/metrics", metrics.Handler())

	rb.Group(func(rb *router.RouteBuilder) {
		rb.Use(mw.AuthMiddleware)

		h.RegisterDevices(rb)
		h.RegisterCommands(rb)
	})

	rb.Router().HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusMovedPermanently)
	})

	l.Info("HTTP handlers registered successfully")
}

func getLogger(config *config.Config) *slog.Logger {
	logOptions := slog.HandlerOptions{
		Level:       config.LogLevel,
		ReplaceAttr: utils.SlogReplacer,
	}

	logHandler := slog.NewJSONHandler(config.LogOutput, &logOptions)

	return slog.New(logHandler).With(slog.String("version", utils.GetVersionShort()))
}

func fatalIfErr(l *slog.Logger, err error) {
	if err == nil {
		return
	}

	l.Error("error", utils.ErrAttr(err))
	os.Exit(1)
}
