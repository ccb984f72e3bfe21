// Package app wires configuration into concrete stores and services so
// the command binaries share one bootstrap path.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"petrol-price-lab/internal/config"
	"petrol-price-lab/internal/logging"
	"petrol-price-lab/internal/observability"
	"petrol-price-lab/internal/storage"
	"petrol-price-lab/internal/storage/clickhouse"
	"petrol-price-lab/internal/storage/memory"
	"petrol-price-lab/internal/storage/migrations"
	"petrol-price-lab/internal/storage/postgres"
)

// Stores bundles every store interface the services need.
type Stores struct {
	Prices   storage.RawPetrolPriceStore
	Exog     storage.RawExogenousDataStore
	Features storage.FeatureStore
	Registry storage.ModelRegistryStore
	Logs     storage.PredictionLogStore
}

// App is one bootstrapped process: config, logger, metrics and stores.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Metrics *observability.Metrics
	Stores  Stores

	pool   *postgres.Pool
	chConn *clickhouse.Conn
}

// New loads config and connects the selected storage backend, running
// migrations for persistent backends.
func New(ctx context.Context, configPath string) (*App, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:  cfg,
		Logger:  logging.New(cfg.Log.Level, cfg.Log.Format),
		Metrics: observability.NewMetrics(),
	}

	switch cfg.Storage.Backend {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		a.pool = pool
		a.Stores = Stores{
			Prices:   postgres.NewRawPetrolPriceStore(pool),
			Exog:     postgres.NewRawExogenousDataStore(pool),
			Features: postgres.NewFeatureStore(pool),
			Registry: postgres.NewModelRegistryStore(pool),
			Logs:     postgres.NewPredictionLogStore(pool),
		}
	default:
		a.Stores = Stores{
			Prices:   memory.NewRawPetrolPriceStore(),
			Exog:     memory.NewRawExogenousDataStore(),
			Features: memory.NewFeatureStore(),
			Registry: memory.NewModelRegistryStore(),
			Logs:     memory.NewPredictionLogStore(),
		}
	}

	// An optional ClickHouse DSN moves the append-only audit log onto
	// the analytical store.
	if dsn := cfg.Storage.ClickhouseDSN; dsn != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		a.chConn = conn
		a.Stores.Logs = clickhouse.NewPredictionLogStore(conn)
	}

	return a, nil
}

// ServeMetrics starts the Prometheus endpoint when enabled. The server
// runs until the process exits.
func (a *App) ServeMetrics() {
	if !a.Config.Metrics.Enabled {
		return
	}
	mux := http.NewServeMux()
	mux.Handle(a.Config.Metrics.Path, a.Metrics.Handler())
	go func() {
		if err := http.ListenAndServe(a.Config.Metrics.Addr, mux); err != nil {
			a.Logger.Error().Err(err).Msg("metrics endpoint stopped")
		}
	}()
}

// Close releases storage connections.
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.chConn != nil {
		a.chConn.Close()
	}
}
