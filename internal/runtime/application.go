// Package runtime wires configuration, storage, services and the HTTP
// server into a runnable application.
package runtime

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	_ "github.com/lib/pq"

	"github.com/webatelier/platform/internal/auth"
	"github.com/webatelier/platform/internal/cache"
	"github.com/webatelier/platform/internal/config"
	"github.com/webatelier/platform/internal/httpapi"
	"github.com/webatelier/platform/internal/httputil"
	"github.com/webatelier/platform/internal/logging"
	"github.com/webatelier/platform/internal/media"
	"github.com/webatelier/platform/internal/scheduler"
	"github.com/webatelier/platform/internal/services/assets"
	catalogsvc "github.com/webatelier/platform/internal/services/catalog"
	costssvc "github.com/webatelier/platform/internal/services/costs"
	eventssvc "github.com/webatelier/platform/internal/services/events"
	healthsvc "github.com/webatelier/platform/internal/services/health"
	journeyssvc "github.com/webatelier/platform/internal/services/journeys"
	profilessvc "github.com/webatelier/platform/internal/services/profiles"
	userssvc "github.com/webatelier/platform/internal/services/users"
	venturessvc "github.com/webatelier/platform/internal/services/ventures"
	"github.com/webatelier/platform/internal/storage/postgres"
)

// Application owns the platform's long-lived components.
type Application struct {
	cfg       *config.Config
	log       *logging.Logger
	server    *http.Server
	scheduler *scheduler.Scheduler
	db        *sql.DB
	cache     *cache.Cache
}

// NewApplication loads configuration and wires every component.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApplication(cfg)
}

func newApplication(cfg *config.Config) (*Application, error) {
	log := logging.New("platform", cfg.Logging.Level, cfg.Logging.Format)

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	store := postgres.New(db)

	var c *cache.Cache
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		c, err = cache.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
		cancel()
		if err != nil {
			// The platform degrades to uncached reads; don't refuse to start.
			log.WithError(err).Warn("redis unavailable, running without cache")
			c = nil
		}
	}

	var blobs media.Store
	if cfg.Blob.AccountURL != "" {
		blobs, err = media.NewAzureStore(cfg.Blob.AccountURL, cfg.Blob.Container)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("init blob storage: %w", err)
		}
	} else {
		log.Warn("blob storage not configured, using in-memory store")
		blobs = media.NewMemory()
	}

	issuer := auth.NewTokenIssuer([]byte(cfg.Auth.Secret), cfg.Auth.Issuer, cfg.Auth.TokenLifetime)

	usersSvc := userssvc.New(store, issuer, log)
	profilesSvc := profilessvc.New(store, store, log)
	eventsSvc := eventssvc.New(store, c, log)
	journeysSvc := journeyssvc.New(store, log)
	catalogSvc := catalogsvc.New(store, log)
	venturesSvc := venturessvc.New(store, log)
	costsSvc := costssvc.New(store, httputil.NewClient(httputil.ClientConfig{}), cfg.Costs.ExportURL, log)
	assetsSvc := assets.New(blobs, log)
	healthSvc := healthsvc.New(db, c, log)

	originsBySite := make(map[string][]string, len(cfg.Sites))
	for key, site := range cfg.Sites {
		originsBySite[key] = site.AllowedOrigins
	}

	router, err := httpapi.New(httpapi.Config{
		Logger:          log,
		Issuer:          issuer,
		Resolver:        cfg,
		Cache:           c,
		Users:           usersSvc,
		Profiles:        profilesSvc,
		Events:          eventsSvc,
		Journeys:        journeysSvc,
		Catalog:         catalogSvc,
		Ventures:        venturesSvc,
		Costs:           costsSvc,
		Assets:          assetsSvc,
		Health:          healthSvc,
		OriginsBySite:   originsBySite,
		RatePerSecond:   cfg.RateLimit.RequestsPerSecond,
		RateBurst:       cfg.RateLimit.Burst,
		AuditMaxEntries: cfg.Audit.MaxEntries,
		AuditFilePath:   cfg.Audit.FilePath,
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("build router: %w", err)
	}

	sched := scheduler.New(eventsSvc, journeysSvc, catalogSvc, costsSvc, cfg.Costs.RollupSchedule, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Application{
		cfg:       cfg,
		log:       log,
		server:    server,
		scheduler: sched,
		db:        db,
		cache:     c,
	}, nil
}

// Run starts the scheduler and HTTP server and blocks until the context is
// cancelled or the server fails.
func (a *Application) Run(ctx context.Context) error {
	if err := a.scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", a.server.Addr).Info("HTTP server listening")
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Shutdown stops the server, the scheduler and every connection.
func (a *Application) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := a.scheduler.Stop(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("scheduler did not stop cleanly")
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.WithError(err).Warn("error closing redis connection")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.WithError(err).Warn("error closing database connection")
		}
	}
	return nil
}

func openDatabase(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.Driver == "" {
		return nil, fmt.Errorf("database driver not configured")
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn not configured")
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
