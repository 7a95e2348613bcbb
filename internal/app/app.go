// Package app wires configuration, storage, domain services and the HTTP
// server into a runnable process.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/econstore/internal/domain/order"
	"github.com/xenking/econstore/internal/domain/product"
	"github.com/xenking/econstore/internal/handler"
	"github.com/xenking/econstore/internal/storage/postgres"
	"github.com/xenking/econstore/pkg/health"
	"github.com/xenking/econstore/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	// PostgreSQL pool + migrations.
	pool, err := postgres.NewPool(ctx, postgres.PoolConfig{
		URL:      cfg.Database.URL,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	provider, err := postgres.NewProvider(pool, postgres.ProviderConfig{
		AcquireTimeout: cfg.Database.AcquireTimeout,
		IsolationLevel: cfg.Database.IsolationLevel,
	})
	if err != nil {
		return errors.Wrap(err, "create connection provider")
	}

	probes := health.New()
	probes.Register(health.Readiness, health.Probe{Name: "postgres", Timeout: 5 * time.Second, Check: health.PingCheck(pool)})
	probes.Register(health.Readiness, health.Probe{Name: "postgres_pool", Check: health.PoolSaturationCheck(pool)})
	probes.Register(health.Liveness, health.Probe{Name: "goroutines", Check: health.GoroutineCountCheck(cfg.Health.MaxGoroutines)})

	// Repositories and domain services.
	productRepo := postgres.NewProductRepository()
	orderRepo := postgres.NewOrderRepository()

	catalog := product.NewCatalog(pool, productRepo)
	orderService, err := order.NewService(provider, productRepo, orderRepo, order.Options{
		TxTimeout:      cfg.Database.TxTimeout,
		TracerProvider: m.TracerProvider(),
		MeterProvider:  m.MeterProvider(),
	})
	if err != nil {
		return errors.Wrap(err, "create order service")
	}
	orderLister := order.NewLister(pool, orderRepo, order.ListerOptions{
		BatchItems:     cfg.Orders.BatchItems,
		TracerProvider: m.TracerProvider(),
	})

	h := handler.NewHandler(
		handler.HandlerConfig{ImageBaseURL: cfg.ImageBaseURL},
		catalog,
		orderService,
		orderLister,
	)

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Method(http.MethodGet, "/livez", probes.Handler(health.Liveness))
	r.Method(http.MethodGet, "/readyz", probes.Handler(health.Readiness))
	h.Routes(r)

	middlewares := []httpmiddleware.Middleware{
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Recovery(),
		httpmiddleware.LogRequests(),
	}
	var limiter *httpmiddleware.Limiter
	if cfg.RateLimit.Enabled {
		limiter = httpmiddleware.NewLimiter(httpmiddleware.RateLimitConfig{
			Max:    cfg.RateLimit.Max,
			Window: cfg.RateLimit.Window,
		})
		middlewares = append(middlewares, limiter.Middleware())
	}

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      cfg.Database.TxTimeout + 5*time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(
			otelhttp.NewHandler(r, "econstore",
				otelhttp.WithTracerProvider(m.TracerProvider()),
				otelhttp.WithMeterProvider(m.MeterProvider()),
			),
			middlewares...,
		),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return probes.Run(gctx, cfg.Health.Interval)
	})
	if limiter != nil {
		g.Go(func() error {
			return limiter.Run(gctx)
		})
	}
	g.Go(func() error {
		// Graceful shutdown: drop readiness, drain, then stop.
		<-gctx.Done()
		probes.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	g.Go(func() error {
		probes.SetReady(true)
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "server")
		}
		return nil
	})

	return g.Wait()
}
