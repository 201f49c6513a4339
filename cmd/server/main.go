package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/wichtelbot/internal/assignment"
	"github.com/mmynk/wichtelbot/internal/auth"
	"github.com/mmynk/wichtelbot/internal/config"
	"github.com/mmynk/wichtelbot/internal/metrics"
	"github.com/mmynk/wichtelbot/internal/middleware"
	"github.com/mmynk/wichtelbot/internal/notify"
	"github.com/mmynk/wichtelbot/internal/router"
	"github.com/mmynk/wichtelbot/internal/santa"
	"github.com/mmynk/wichtelbot/internal/service"
	"github.com/mmynk/wichtelbot/internal/storage"
	"github.com/mmynk/wichtelbot/internal/storage/badgerstore"
	"github.com/mmynk/wichtelbot/internal/storage/jsonfile"
	"github.com/mmynk/wichtelbot/internal/storage/sqlite"
	"github.com/mmynk/wichtelbot/pkg/gateway"
	"github.com/mmynk/wichtelbot/pkg/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(cfg.StoreDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.StoreDriver, err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "driver", cfg.StoreDriver, "path", cfg.DBPath)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	engine, err := assignment.NewEngine(
		assignment.WithMaxAttempts(cfg.Assign.MaxAttempts),
		assignment.WithTimeout(cfg.Assign.Timeout),
		assignment.WithForbidMutual(cfg.Assign.ForbidMutual),
	)
	if err != nil {
		return fmt.Errorf("create assignment engine: %w", err)
	}

	coord, err := santa.New(ctx, store, engine,
		notify.NewDispatcher(cfg.Notify.Concurrency, cfg.Notify.Timeout, m),
		santa.Options{
			AdminUsername: cfg.AdminUsername,
			Metrics:       m,
		},
	)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}

	routerOpts := router.Options{
		PendingTimeout: cfg.PendingTimeout,
		Metrics:        m,
	}
	if cfg.Notify.WebhookURL != "" {
		routerOpts.Sender = notify.NewWebhook(cfg.Notify.WebhookURL, &http.Client{Timeout: cfg.Notify.Timeout})
		slog.Info("Reveals are sent through the webhook")
	}

	interceptors := []connect.Interceptor{middleware.LoggingInterceptor()}
	if cfg.GatewaySecret != "" {
		jwtManager, err := auth.NewJWTManager(cfg.GatewaySecret, 0)
		if err != nil {
			return err
		}
		interceptors = append(interceptors, middleware.RequireAuth(jwtManager))
	} else {
		slog.Warn("GATEWAY_SECRET is not set, the gateway accepts unauthenticated calls")
	}

	mux := http.NewServeMux()

	gatewayPath, gatewayHandler := gateway.NewGatewayServiceHandler(
		service.NewGatewayService(router.New(coord, routerOpts)),
		connect.WithInterceptors(interceptors...),
	)
	mux.Handle(gatewayPath, gatewayHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           h2c.NewHandler(loggingMiddleware(mux), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.ListenAddr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(driver, path string) (storage.Store, error) {
	var (
		store storage.Store
		err   error
	)
	switch driver {
	case config.DriverSQLite:
		store, err = sqlite.New(path)
	case config.DriverBadger:
		store, err = badgerstore.Open(path)
	case config.DriverJSON:
		store, err = jsonfile.New(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}
