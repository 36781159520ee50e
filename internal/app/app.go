package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/pos-sales/internal/domain/cart"
	"github.com/xenking/pos-sales/internal/domain/order"
	"github.com/xenking/pos-sales/internal/domain/report"
	"github.com/xenking/pos-sales/internal/handler"
	"github.com/xenking/pos-sales/pkg/health"
	"github.com/xenking/pos-sales/pkg/httpmiddleware"
)

const serviceName = "pos-sales"

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	st, err := openStorage(ctx, lg, cfg)
	if err != nil {
		return errors.Wrap(err, "open storage")
	}
	defer st.close()

	api, checks, err := newHandler(lg, cfg, st, m.TracerProvider(), m.MeterProvider())
	if err != nil {
		return err
	}
	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler:           api,
	}

	checks.Start(ctx, 10*time.Second)
	defer checks.Stop()
	checks.SetReady(true)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		lg.Info("Server listening", zap.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		checks.SetReady(false)
		if ctx.Err() != nil {
			// Only drain on a real shutdown, not when the listener failed.
			lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
			time.Sleep(cfg.Graceful.ReadinessDelay)
		}

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			return errors.Wrap(err, "shutdown")
		}
		return nil
	})
	return g.Wait()
}

// newHandler builds the services on st and returns the instrumented HTTP
// handler along with the checks backing /livez and /readyz.
func newHandler(
	lg *zap.Logger,
	cfg *Config,
	st *storage,
	tp trace.TracerProvider,
	mp metric.MeterProvider,
) (http.Handler, *health.Registry, error) {
	checks := health.New()
	checks.Liveness("goroutines", health.GoroutineLimit(10000))
	if st.db != nil {
		checks.Readiness("postgres", health.Database(st.db), health.WithTimeout(5*time.Second))
	}

	orders, err := order.NewService(st.uow, st.orders,
		mp.Meter(serviceName),
		tp.Tracer(serviceName),
	)
	if err != nil {
		return nil, nil, errors.Wrap(err, "order service")
	}
	h := handler.NewHandler(
		cart.NewService(st.carts),
		orders,
		report.NewService(st.reports),
	)
	sec := handler.NewSecurityHandler(st.apikeys, []byte(cfg.APIKeyPepper))

	mux := http.NewServeMux()
	mux.Handle("GET /livez", checks.LiveHandler())
	mux.Handle("GET /readyz", checks.ReadyHandler())
	h.Register(mux, sec)

	find := httpmiddleware.MakeRouteFinder(mux)
	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.InjectLogger(lg),
		httpmiddleware.Instrument(serviceName, find, tp, mp),
		httpmiddleware.LogRequests(find),
	), checks, nil
}
