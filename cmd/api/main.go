package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/kirillkom/batikgram/internal/adapters/http"
	"github.com/kirillkom/batikgram/internal/bootstrap"
	"github.com/kirillkom/batikgram/internal/config"
	"github.com/kirillkom/batikgram/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "api")
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	go app.RunSessionSweeper(ctx)

	router := httpadapter.NewRouter(cfg, httpadapter.Services{
		Sessions:  app.Sessions,
		Capture:   app.Capture,
		Catalog:   app.Catalog,
		Chat:      app.Chat,
		Results:   app.Results,
		Readiness: app.Readiness(),
		Metrics:   app.Metrics,
	}).Handler()

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A fitting call may take the whole fitting timeout.
		WriteTimeout: cfg.FittingTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", server.Addr)
	if err != nil {
		logger.Error("api_listen_failed", "addr", server.Addr, "error", err)
		os.Exit(1)
	}
	if cfg.APIMaxInFlight > 0 {
		// Connections beyond twice the in-flight cap wait in the accept queue.
		listener = netutil.LimitListener(listener, cfg.APIMaxInFlight*2)
	}

	go func() {
		logger.Info("api_listening",
			"addr", server.Addr,
			"fitting_service_url", cfg.FittingServiceURL,
			"chat_backend", cfg.ChatBackend,
			"events_enabled", cfg.EventsEnabled,
		)
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}
