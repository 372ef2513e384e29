// Package app assembles the worker process: stores, country bundles, the
// job dispatcher, the change bridge and the ops HTTP surface.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"creditflow/internal/audit"
	"creditflow/internal/bankdata"
	"creditflow/internal/country"
	"creditflow/internal/country/colombia"
	"creditflow/internal/country/mexico"
	"creditflow/internal/credit/ports"
	"creditflow/internal/credit/service"
	"creditflow/internal/credit/store"
	"creditflow/internal/jobs"
	"creditflow/internal/notify"
	"creditflow/internal/platform/config"
	"creditflow/internal/platform/httpclient"
	"creditflow/internal/platform/httpserver"
	"creditflow/internal/platform/kafka"
	"creditflow/internal/platform/metrics"
	"creditflow/internal/platform/postgres"
	"creditflow/internal/platform/redis"
	"creditflow/internal/webhook"
	"creditflow/internal/workflow"
	"creditflow/pkg/platform/httputil"
	"creditflow/pkg/platform/middleware/metadata"
	"creditflow/pkg/platform/middleware/requesttime"
	"creditflow/pkg/platform/tx"
)

// App is a fully wired worker. Build it with New, start it with Run and
// release it with Close.
type App struct {
	cfg    config.Config
	logger *slog.Logger

	Registry    *prometheus.Registry
	Requests    ports.RequestStore
	Banking     ports.BankingStore
	Transitions ports.TransitionStore
	Statuses    *service.Statuses
	Countries   *country.Registry
	Intake      *service.Intake
	Dispatcher  *jobs.Dispatcher
	Bridge      *notify.Bridge
	Webhooks    *webhook.Service
	Router      http.Handler

	statusStore ports.StatusStore
	background  []func(ctx context.Context) error
	health      map[string]func(ctx context.Context) error
	closers     []func() error
}

type options struct {
	poster   bankdata.Poster
	registry *prometheus.Registry
}

type Option func(*options)

// WithPoster replaces the bureau HTTP client.
func WithPoster(p bankdata.Poster) Option {
	return func(o *options) {
		o.poster = p
	}
}

// WithRegistry replaces the process metrics registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New builds the worker. An empty DATABASE_URL selects in-memory stores,
// queue and change feed; Redis and Kafka publishers are added when configured.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (a *App, err error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.registry == nil {
		o.registry = metrics.NewRegistry()
	}
	if o.poster == nil {
		o.poster = httpclient.New(cfg.Providers.Timeout)
	}

	a = &App{
		cfg:      cfg,
		logger:   logger,
		Registry: o.registry,
		health:   map[string]func(ctx context.Context) error{},
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	runner, jobStore, source, err := a.openPersistence(ctx)
	if err != nil {
		return nil, err
	}

	a.Statuses, err = service.NewStatuses(a.statusStore, a.Requests, service.WithStatusesLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := a.Statuses.Load(ctx); err != nil {
		return nil, fmt.Errorf("load statuses: %w", err)
	}

	a.Countries, err = buildCountries(cfg, o.poster, logger)
	if err != nil {
		return nil, err
	}

	auditWriter := audit.New(a.Transitions,
		audit.WithLogger(logger),
		audit.WithMetrics(audit.NewMetrics(o.registry)),
	)

	a.Intake, err = service.NewIntake(a.Requests, a.Statuses, a.Countries, auditWriter,
		service.WithIntakeLogger(logger),
		service.WithIntakeTx(runner),
	)
	if err != nil {
		return nil, err
	}

	workflowMetrics := workflow.NewMetrics(o.registry)
	strategies, err := workflow.NewDefaultRegistry(workflow.Deps{
		Countries: a.Countries,
		Banking:   a.Banking,
		Statuses:  a.Statuses,
		Audit:     auditWriter,
		Tx:        runner,
		Logger:    logger,
		Metrics:   workflowMetrics,
	})
	if err != nil {
		return nil, err
	}

	a.Dispatcher, err = jobs.NewDispatcher(jobStore,
		jobs.WithLogger(logger),
		jobs.WithMetrics(jobs.NewMetrics(o.registry)),
		jobs.WithWorkers(cfg.Jobs.Workers),
		jobs.WithPollInterval(cfg.Jobs.PollInterval),
		jobs.WithStaleAfter(cfg.Jobs.StaleAfter),
		jobs.WithTracer(otel.Tracer("creditflow/jobs")),
	)
	if err != nil {
		return nil, err
	}
	handler, err := workflow.NewTransitionHandler(a.Requests, a.Statuses, strategies,
		workflow.WithHandlerLogger(logger),
		workflow.WithHandlerMetrics(workflowMetrics),
	)
	if err != nil {
		return nil, err
	}
	if err := handler.Register(a.Dispatcher, cfg.Jobs.TransitionRetries, cfg.Jobs.TransitionBackoff); err != nil {
		return nil, err
	}

	notifyMetrics := notify.NewMetrics(o.registry)
	publisher, err := a.openPublishers(ctx, notifyMetrics)
	if err != nil {
		return nil, err
	}
	a.Bridge, err = notify.NewBridge(source, a.Dispatcher, a.Requests, a.Statuses, strategies,
		notify.WithPublisher(publisher),
		notify.WithTransitions(a.Transitions),
		notify.WithLogger(logger),
		notify.WithMetrics(notifyMetrics),
	)
	if err != nil {
		return nil, err
	}

	a.Webhooks, err = webhook.NewService(a.Countries, a.Requests, a.Banking, a.Statuses, auditWriter,
		webhook.WithTx(runner),
		webhook.WithLogger(logger),
		webhook.WithMetrics(webhook.NewMetrics(o.registry)),
	)
	if err != nil {
		return nil, err
	}

	a.Router = a.router()
	a.background = append(a.background, a.Dispatcher.Start, a.Bridge.Run)
	return a, nil
}

func (a *App) openPersistence(ctx context.Context) (tx.Runner, jobs.Store, notify.Source, error) {
	if a.cfg.Database.URL == "" {
		a.logger.WarnContext(ctx, "DATABASE_URL not set, using in-memory stores")
		statuses := store.NewInMemoryStatusStore(nil)
		list, _ := statuses.List(ctx)
		requests := store.NewInMemoryRequestStore(list)
		a.statusStore = statuses
		a.Requests = requests
		a.Banking = store.NewInMemoryBankingStore()
		a.Transitions = store.NewInMemoryTransitionStore()

		source := notify.NewMemorySource(requests, 0)
		a.closers = append(a.closers, func() error { source.Close(); return nil })
		return tx.NoopRunner{}, jobs.NewInMemoryStore(), source, nil
	}

	db, err := postgres.OpenSQL(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	a.closers = append(a.closers, db.Close)
	if err := postgres.Migrate(ctx, db); err != nil {
		return nil, nil, nil, err
	}
	pool, err := postgres.OpenPool(ctx, a.cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })

	pg := store.NewPostgres(db)
	a.statusStore = pg.Statuses()
	a.Requests = pg.Requests()
	a.Banking = pg.Banking()
	a.Transitions = pg.Transitions()
	a.health["postgres"] = postgresHealth(db, pool)

	source := notify.NewPostgresSource(a.cfg.Database.URL, a.cfg.Database.NotifyChannel,
		notify.WithSourceLogger(a.logger),
	)
	a.background = append(a.background, source.Run)
	return tx.NewSQLRunner(db), jobs.NewPostgresStore(pool), source, nil
}

func (a *App) openPublishers(ctx context.Context, m *notify.Metrics) (notify.Publisher, error) {
	var publishers notify.Fanout

	rdb, err := redis.New(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rdb != nil {
		a.closers = append(a.closers, rdb.Close)
		a.health["redis"] = rdb.Health
		publishers = append(publishers, notify.Guard("redis",
			notify.NewRedisLiveUpdates(rdb, a.cfg.Redis.UpdateChannel),
			notify.WithGuardLogger(a.logger), notify.WithGuardMetrics(m)))
	}

	kc, err := kafka.New(ctx, a.cfg.Kafka)
	if err != nil {
		return nil, err
	}
	if kc != nil {
		a.closers = append(a.closers, func() error { kc.Close(); return nil })
		a.health["kafka"] = kc.Health
		publishers = append(publishers, notify.Guard("kafka",
			notify.NewKafkaLiveUpdates(kc, kc.Topic()),
			notify.WithGuardLogger(a.logger), notify.WithGuardMetrics(m)))
	}

	if len(publishers) == 0 {
		return notify.NopPublisher{}, nil
	}
	return publishers, nil
}

func buildCountries(cfg config.Config, poster bankdata.Poster, logger *slog.Logger) (*country.Registry, error) {
	providerOpts := []bankdata.Option{
		bankdata.WithLogger(logger),
		bankdata.WithTracer(otel.Tracer("creditflow/bankdata")),
	}
	mx, err := mexico.New(cfg.Providers.Mexico, cfg.Webhook.BaseURL, poster, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("mexico bundle: %w", err)
	}
	co, err := colombia.New(cfg.Providers.Colombia, cfg.Webhook.BaseURL, poster, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("colombia bundle: %w", err)
	}
	return country.NewRegistry(mx, co)
}

func (a *App) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(metadata.ClientMetadata)
	r.Use(requesttime.Middleware)

	r.Get("/healthz", a.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(a.Registry))
	webhook.NewHandler(a.Webhooks, a.logger).Register(r)
	return r
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	checks := make(map[string]string, len(a.health))
	for name, check := range a.health {
		if err := check(r.Context()); err != nil {
			status = http.StatusServiceUnavailable
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}
	httputil.WriteJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": checks})
}

// Run blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, run := range a.background {
		g.Go(func() error { return run(ctx) })
	}
	g.Go(func() error {
		return httpserver.Serve(ctx, httpserver.New(a.cfg.Server.Addr, a.Router), a.logger)
	})
	return g.Wait()
}

// RunBackground starts the dispatcher and bridge without the HTTP server.
func (a *App) RunBackground(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, run := range a.background {
		g.Go(func() error { return run(ctx) })
	}
	return g.Wait()
}

// Close releases connections in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func postgresHealth(db *sql.DB, pool *pgxpool.Pool) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return err
		}
		return pool.Ping(ctx)
	}
}
