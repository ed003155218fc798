package main

import (
	"context"
	"fmt"
	"time"

	"github.com/danthegoodman1/fedb/crdb"
	"github.com/danthegoodman1/fedb/engine"
	"github.com/danthegoodman1/fedb/future"
	"github.com/danthegoodman1/fedb/manifest"
	"github.com/danthegoodman1/fedb/metrics"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Manifest string
		Workers  int
		CRDBDSN  string
	}

	// App is a loaded database and the pool its queries deliver on.
	App struct {
		DB   *engine.Database
		Exec *future.AntsExecutor
	}
)

func configFromViper(v *viper.Viper) Config {
	return Config{
		Manifest: v.GetString("manifest"),
		Workers:  v.GetInt("workers"),
		CRDBDSN:  v.GetString("crdb-dsn"),
	}
}

func NewApp(ctx context.Context, cfg Config) (*App, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 64
	}
	exec, err := future.NewAntsExecutor(cfg.Workers)
	if err != nil {
		return nil, err
	}
	app := &App{
		DB:   engine.New(engine.WithExecutor(exec)),
		Exec: exec,
	}
	metrics.SetDeliveryPool(exec.Running)

	if cfg.CRDBDSN != "" {
		if err := crdb.ConnectToDB(cfg.CRDBDSN); err != nil {
			app.Shutdown()
			return nil, fmt.Errorf("error connecting to CRDB: %w", err)
		}
	}

	if cfg.Manifest != "" {
		m, err := manifest.Load(cfg.Manifest)
		if err != nil {
			app.Shutdown()
			return nil, fmt.Errorf("error loading manifest: %w", err)
		}
		if err := m.Apply(ctx, app.DB); err != nil {
			app.Shutdown()
			return nil, fmt.Errorf("error applying manifest: %w", err)
		}
		logger.Info().Str("manifest", cfg.Manifest).Strs("tables", app.DB.Tables()).Msg("loaded manifest")
	}
	return app, nil
}

func (a *App) Shutdown() {
	crdb.Close()
	if err := a.Exec.Shutdown(time.Second * 5); err != nil {
		logger.Warn().Err(err).Msg("delivery pool did not drain")
	}
}
