// Package app wires the storefront services from configuration. Both the
// HTTP server and the CLI commands start from here.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"example.com/storefront/internal/config"
	domproduct "example.com/storefront/internal/domain/product"
	domsession "example.com/storefront/internal/domain/session"
	"example.com/storefront/internal/infra/catalogclient"
	"example.com/storefront/internal/infra/gateway"
	"example.com/storefront/internal/infra/metrics"
	"example.com/storefront/internal/infra/persistence/file"
	"example.com/storefront/internal/infra/persistence/kv"
	"example.com/storefront/internal/infra/persistence/memory"
	"example.com/storefront/internal/infra/persistence/mysql"
	"example.com/storefront/internal/infra/persistence/postgres"
	"example.com/storefront/internal/infra/persistence/redis"
	"example.com/storefront/internal/infra/security"
	"example.com/storefront/internal/infra/telemetry"
	"example.com/storefront/internal/infra/widget"
	authuc "example.com/storefront/internal/usecase/auth"
	cartuc "example.com/storefront/internal/usecase/cart"
	cataloguc "example.com/storefront/internal/usecase/catalog"
	checkoutuc "example.com/storefront/internal/usecase/checkout"
)

const pingTimeout = 5 * time.Second

// Frontend supplies the payment widget and the presenter. A nil PaymentUI
// means the HTTP widget bridge.
type Frontend struct {
	PaymentUI checkoutuc.PaymentUI
	Presenter checkoutuc.Presenter
}

type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Storage domsession.Storage
	Metrics *metrics.Metrics
	Tokens  *security.JWTService
	Bridge  *widget.Bridge
	// Products is set when the catalog is served from MySQL.
	Products *mysql.ProductRepository

	Auth     *authuc.Service
	Cart     *cartuc.Service
	Catalog  *cataloguc.Service
	Checkout *checkoutuc.Service

	closers []func(context.Context) error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, fe Frontend) (*App, error) {
	a := &App{Config: cfg, Logger: logger, Metrics: metrics.New()}

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: "storefront",
		Endpoint:    cfg.Tracing.Endpoint,
		Probability: cfg.Tracing.Probability,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, shutdownTracing)

	storage, closeStorage, err := OpenStorage(ctx, cfg.Storage, logger)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Storage = storage
	a.closers = append(a.closers, closeStorage)

	unit := cfg.CurrencyUnit()
	a.Tokens = security.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	a.Auth = authuc.NewService(storage, a.Tokens)

	carts := kv.NewCartRepository(storage, logger, a.Metrics.CartSize)
	a.Cart = cartuc.NewService(carts, unit, logger, a.Metrics)

	catalog, err := a.openCatalog(ctx, cfg)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}
	a.Catalog = cataloguc.NewService(catalog, unit, logger, a.Metrics)

	opts := checkoutuc.DefaultOptions()
	opts.StoreName = cfg.Checkout.StoreName
	opts.Contact = cfg.Checkout.Contact
	opts.NotesAddress = cfg.Checkout.NotesAddress
	opts.ThemeColor = cfg.Checkout.ThemeColor
	opts.LoginPath = cfg.Checkout.LoginPath
	opts.HomePath = cfg.Checkout.HomePath
	opts.HomeDelay = cfg.Checkout.HomeDelay

	ui := fe.PaymentUI
	if ui == nil {
		a.Bridge = widget.NewBridge(opts.AttemptTTL)
		ui = a.Bridge
	}

	a.Checkout = checkoutuc.NewService(checkoutuc.Dependencies{
		Cart:      a.Cart,
		Identity:  a.Auth,
		Gateway:   gateway.New(cfg.Gateway.BaseURL, telemetry.HTTPClient(cfg.Gateway.Timeout)),
		PaymentUI: ui,
		Presenter: fe.Presenter,
		Recorder:  a.Metrics,
		Logger:    logger,
	}, opts)

	return a, nil
}

// Close releases storage and flushes traces, newest first.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) openCatalog(ctx context.Context, cfg *config.Config) (domproduct.Source, error) {
	if cfg.Catalog.Source != config.CatalogMySQL {
		return catalogclient.New(cfg.Catalog.BaseURL, telemetry.HTTPClient(cfg.Catalog.Timeout)), nil
	}

	db, err := openMySQL(ctx, cfg.Storage.MySQLDSN)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	repo := mysql.NewProductRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("mysql migrate products: %w", err)
	}
	a.Products = repo
	return repo, nil
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return db, nil
}

// OpenStorage connects the configured session storage driver.
func OpenStorage(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (domsession.Storage, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch cfg.Driver {
	case config.DriverMemory:
		return memory.NewStorage(), noop, nil

	case config.DriverFile:
		return file.NewStorage(cfg.File, logger), noop, nil

	case config.DriverMySQL:
		db, err := openMySQL(ctx, cfg.MySQLDSN)
		if err != nil {
			return nil, nil, err
		}
		s := mysql.NewSessionStorage(db)
		if err := s.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("mysql migrate: %w", err)
		}
		return s, func(context.Context) error { return db.Close() }, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("pg connect: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg ping: %w", err)
		}
		s := postgres.NewSessionStorage(pool)
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("pg migrate: %w", err)
		}
		return s, func(context.Context) error { pool.Close(); return nil }, nil

	case config.DriverRedis:
		client := goredis.NewClient(&goredis.Options{Addr: cfg.Redis})
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return redis.NewSessionStorage(client, cfg.TTL), func(context.Context) error { return client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("storage driver %q is not supported", cfg.Driver)
	}
}
