package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/curiofm/curio-backend/internal/data/db"
	"github.com/curiofm/curio-backend/internal/http"
	"github.com/curiofm/curio-backend/internal/observability"
	"github.com/curiofm/curio-backend/internal/platform/logger"
	"github.com/curiofm/curio-backend/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Server   *http.Server
	Cfg      Config
	Repos    Repos
	Clients  Clients
	Services Services
	Hub      *realtime.Hub
	Metrics  *observability.Metrics

	store        *db.Service
	shutdownOtel func(context.Context) error
	cancel       context.CancelFunc
}

// New builds the full application. Migrations run only when migrate is set;
// the CLI runs them separately.
func New(ctx context.Context, log *logger.Logger, cfg Config, migrate bool) (*App, error) {
	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.Init()
	}
	shutdownOtel := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.Otel.Enabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Otel.Endpoint,
		Headers:     observability.ParseHeaders(cfg.Otel.Headers),
		Insecure:    cfg.Otel.Insecure,
		SampleRatio: cfg.Otel.SampleRatio,
	})

	store, err := OpenDatabase(log, cfg)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := db.AutoMigrateAll(store.DB()); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := store.DB()

	clients, err := wireClients(log, cfg, metrics)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	hub := realtime.NewHub(log)
	hub.OnDrop(metrics.IncRealtimeDrop)

	reposet := wireRepos(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients, hub, metrics)
	handlerset := wireHandlers(theDB, log, serviceset, hub)
	server := wireServer(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		DB:           theDB,
		Server:       server,
		Cfg:          cfg,
		Repos:        reposet,
		Clients:      clients,
		Services:     serviceset,
		Hub:          hub,
		Metrics:      metrics,
		store:        store,
		shutdownOtel: shutdownOtel,
	}, nil
}

// OpenDatabase connects using the configured DSN.
func OpenDatabase(log *logger.Logger, cfg Config) (*db.Service, error) {
	dsn := cfg.Database.DSN()
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL or POSTGRES_HOST must be set")
	}
	store, err := db.New(log, db.Config{
		URL:             dsn,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	return store, nil
}

// Start launches background work: the cross-instance event forwarder when a
// bus is configured.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.Clients.EventBus != nil {
		if err := a.Clients.EventBus.StartForwarder(ctx, a.Hub.Broadcast); err != nil {
			return fmt.Errorf("start event forwarder: %w", err)
		}
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Services.Notifications.Wait()
	a.Clients.Close()
	if a.shutdownOtel != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownOtel(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	a.Log.Sync()
}
