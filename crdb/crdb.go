package crdb

import (
	"context"
	"time"

	"github.com/danthegoodman1/fedb/gologger"
	"github.com/jackc/pgx/v4/pgxpool"
)

var (
	// PGPool backs the postgres datasource. It stays nil unless ConnectToDB ran.
	PGPool                 *pgxpool.Pool
	StandardContextTimeout = 10 * time.Second

	logger = gologger.NewLogger()
)

func ConnectToDB(dsn string) error {
	logger.Debug().Msg("connecting to CRDB...")
	var err error
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return err
	}

	config.MaxConns = 10
	config.MinConns = 1
	config.HealthCheckPeriod = time.Second * 5
	config.MaxConnLifetime = time.Minute * 30
	config.MaxConnIdleTime = time.Minute * 30

	ctx, cancel := context.WithTimeout(context.Background(), StandardContextTimeout)
	defer cancel()
	PGPool, err = pgxpool.ConnectConfig(ctx, config)
	if err != nil {
		return err
	}
	logger.Debug().Msg("connected to CRDB")
	return nil
}

func Close() {
	if PGPool != nil {
		PGPool.Close()
		PGPool = nil
	}
}
