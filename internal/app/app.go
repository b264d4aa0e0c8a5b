package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/xenking/order-intake/internal/domain/discount"
	"github.com/xenking/order-intake/internal/domain/order"
	"github.com/xenking/order-intake/internal/domain/workflow"
	"github.com/xenking/order-intake/internal/handler"
	"github.com/xenking/order-intake/internal/intake"
	"github.com/xenking/order-intake/internal/pipeline"
	"github.com/xenking/order-intake/internal/storage/postgres"
	"github.com/xenking/order-intake/pkg/health"
	"github.com/xenking/order-intake/pkg/httpmiddleware"
)

// Telemetry provides tracer and meter providers, e.g. *app.Telemetry from
// go-faster/sdk.
type Telemetry interface {
	TracerProvider() trace.TracerProvider
	MeterProvider() metric.MeterProvider
}

// Deps are the long-lived dependencies shared by the HTTP server and the
// Lambda entry point.
type Deps struct {
	Pool    *pgxpool.Pool
	Intake  *intake.Client
	Service *pipeline.Service
}

// Close releases the database pool.
func (d *Deps) Close() {
	d.Pool.Close()
}

// Build connects to Postgres, applies migrations and wires the order
// pipeline.
func Build(ctx context.Context, cfg *Config, m Telemetry) (*Deps, error) {
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "create db pool")
	}
	if err := postgres.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "run migrations")
	}

	resolver := discount.NewResolver(postgres.NewDiscountRepository(pool))
	builder := order.NewBuilder(postgres.NewCatalogRepository(pool), resolver)

	client := intake.NewClient(intake.Options{
		BaseURL: cfg.Intake.BaseURL,
		Key:     cfg.Intake.Key,
		Timeout: cfg.Intake.Timeout,
	})

	svc, err := pipeline.NewService(
		postgres.NewCartRepository(pool),
		order.NewAssembler(builder),
		postgres.NewOrderRepository(pool),
		workflow.NewRecorder(postgres.NewWorkflowRepository(pool)),
		client,
		pipeline.Options{
			Location:       cfg.Location(),
			TracerProvider: m.TracerProvider(),
			MeterProvider:  m.MeterProvider(),
		},
	)
	if err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "create pipeline")
	}

	return &Deps{Pool: pool, Intake: client, Service: svc}, nil
}

// NewHTTPHandler mounts health and order routes behind the middleware chain.
// Idle rate limit keys are evicted until ctx is done.
func NewHTTPHandler(ctx context.Context, cfg *Config, orders handler.OrderCreator, healthSvc *health.Health, m Telemetry) http.Handler {
	mux := http.NewServeMux()
	healthSvc.Register(mux)
	handler.NewHandler(orders).Register(mux)
	routeFinder := httpmiddleware.MakeRouteFinder(mux)

	return httpmiddleware.Wrap(mux,
		httpmiddleware.Recovery(),
		httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		}),
		httpmiddleware.InjectLogger(zctx.From(ctx)),
		httpmiddleware.RequestID(),
		httpmiddleware.Instrument("order-intake", routeFinder, m),
		httpmiddleware.LogRequests(routeFinder),
		httpmiddleware.Labeler(routeFinder),
	)
}

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown.
func Run(ctx context.Context, lg *zap.Logger, m Telemetry, cfg *Config) error {
	lg.Info("Initializing",
		zap.String("addr", cfg.Addr),
		zap.String("intake", cfg.Intake.BaseURL),
	)

	deps, err := Build(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer deps.Close()

	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, health.PingCheck(deps.Pool))
	healthSvc.AddReadinessCheck("intake", 5*time.Second, health.EndpointCheck(nil, cfg.Intake.BaseURL))
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		// Submission waits on the intake API.
		WriteTimeout:   cfg.Intake.Timeout + 10*time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
		Addr:           cfg.Addr,
		Handler:        NewHTTPHandler(ctx, cfg, deps.Service, healthSvc, m),
	}

	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}
