package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/notifykit/pkg/config"
	"github.com/dmitrymomot/notifykit/pkg/email"
	"github.com/dmitrymomot/notifykit/pkg/integration"
	"github.com/dmitrymomot/notifykit/pkg/logger"
	"github.com/dmitrymomot/notifykit/pkg/mongo"
	"github.com/dmitrymomot/notifykit/pkg/pg"
	"github.com/dmitrymomot/notifykit/pkg/redis"
	"github.com/dmitrymomot/notifykit/pkg/render"
	"github.com/dmitrymomot/notifykit/pkg/telemetry"
	"github.com/dmitrymomot/notifykit/pkg/tenant"
	"github.com/dmitrymomot/notifykit/pkg/testsend"
)

// app owns the process wide dependencies of one command run.
type app struct {
	cfg     appConfig
	log     *slog.Logger
	metrics *prometheus.Registry

	mu      sync.Mutex
	closers []func()
}

func newApp(cfg appConfig, logOut io.Writer) *app {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.ServiceName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithOutput(logOut),
		logger.WithContextExtractors(tenant.LogExtractor),
	}
	if cfg.LogNoColor {
		opts = append(opts, logger.WithNoColor())
	}

	return &app{
		cfg:     cfg,
		log:     logger.New(opts...),
		metrics: prometheus.NewRegistry(),
	}
}

func (a *app) onClose(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closers = append(a.closers, fn)
}

// Close releases connections in reverse order and writes the metrics textfile.
func (a *app) Close() error {
	a.mu.Lock()
	closers := a.closers
	a.closers = nil
	a.mu.Unlock()

	for i := len(closers) - 1; i >= 0; i-- {
		closers[i]()
	}

	if a.cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(a.cfg.MetricsFile, a.metrics); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func (a *app) telemetry() (telemetry.Sink, error) {
	metrics, err := telemetry.NewMetricsSink(a.metrics)
	if err != nil {
		return nil, err
	}
	return telemetry.Multi(telemetry.NewLogSink(a.log), metrics), nil
}

func (a *app) registry() *email.Registry {
	return email.DefaultRegistry(email.WithDevDirectory(a.cfg.DevMailDir))
}

func (a *app) newService(tenants tenant.Store, resolver testsend.CredentialResolver, source render.Source) (*testsend.Service, error) {
	sink, err := a.telemetry()
	if err != nil {
		return nil, err
	}
	return testsend.NewService(
		a.cfg.TestSend,
		tenants,
		resolver,
		render.NewTemplateRenderer(source),
		a.registry(),
		testsend.WithLogger(a.log),
		testsend.WithTelemetry(sink),
	), nil
}

// liveService wires the postgres stores, the tenant cache and the template source.
func (a *app) liveService(ctx context.Context) (*testsend.Service, error) {
	appKey, err := a.cfg.appKey()
	if err != nil {
		return nil, err
	}

	pool, err := a.postgres(ctx)
	if err != nil {
		return nil, err
	}

	cache, err := a.tenantCache(ctx)
	if err != nil {
		return nil, err
	}
	tenants := tenant.NewCachedStore(tenant.NewPostgresStore(pool), cache, a.cfg.TenantCacheTTL)

	creds, err := integration.NewPostgresStore(pool, appKey)
	if err != nil {
		return nil, err
	}

	source, err := a.templateSource(ctx)
	if err != nil {
		return nil, err
	}

	return a.newService(tenants, integration.NewResolver(creds), source)
}

// dryRunService serves the request from memory: the tenant exists and has a
// single dev integration, so the message lands in DEV_MAIL_DIR.
func (a *app) dryRunService(req *testsend.Request) (*testsend.Service, error) {
	if req.TenantID == "" {
		req.TenantID = uuid.NewString()
	}
	if req.EnvironmentID == "" {
		req.EnvironmentID = "dry-run"
	}
	id, err := tenant.ParseID(req.TenantID)
	if err != nil {
		return nil, err
	}

	tenants := tenant.NewMemoryStore(&tenant.Tenant{ID: id, Name: "Dry Run", Active: true})
	creds := integration.NewMemoryStore(integration.CredentialSet{
		ID:            "dry-run",
		TenantID:      req.TenantID,
		EnvironmentID: req.EnvironmentID,
		Channel:       integration.ChannelEmail,
		Provider:      email.ProviderDev,
		Active:        true,
	})

	return a.newService(tenants, integration.NewResolver(creds), render.NewFSSource(os.DirFS(a.cfg.TemplatesDir)))
}

func (a *app) postgres(ctx context.Context) (*pgxpool.Pool, error) {
	var cfg pg.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	pool, err := pg.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(pool.Close)
	return pool, nil
}

func (a *app) tenantCache(ctx context.Context) (tenant.Cache, error) {
	if !a.cfg.UseRedisCache {
		return tenant.NewMemoryCache(a.cfg.TenantCacheTTL, 2*a.cfg.TenantCacheTTL), nil
	}
	client, _, err := a.redis(ctx)
	if err != nil {
		return nil, err
	}
	return tenant.NewRedisCache(client, a.cfg.TenantCachePrefix), nil
}

func (a *app) redis(ctx context.Context) (*goredis.Client, redis.Config, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, cfg, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, cfg, err
	}
	a.onClose(func() { _ = client.Close() })
	return client, cfg, nil
}

func (a *app) templateSource(ctx context.Context) (render.Source, error) {
	if !a.cfg.UseMongoTemplates {
		if _, err := os.Stat(a.cfg.TemplatesDir); err != nil {
			return nil, fmt.Errorf("templates directory: %w", err)
		}
		return render.NewFSSource(os.DirFS(a.cfg.TemplatesDir)), nil
	}

	var cfg mongo.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	db, err := mongo.NewWithDatabase(ctx, cfg, "")
	if err != nil {
		return nil, err
	}
	a.onClose(func() {
		_ = db.Client().Disconnect(context.WithoutCancel(ctx))
	})
	return render.NewMongoSource(db), nil
}
