package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UltimateTournament/backoff/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

type permanent interface {
	IsPermanent() bool
}

// ReliableExec acquires a connection from the pool and runs f, retrying with
// exponential backoff until maxTimeout elapses. Errors implementing
// IsPermanent() (see PermError) stop the retries immediately.
func ReliableExec(ctx context.Context, pool *pgxpool.Pool, maxTimeout time.Duration, f func(ctx context.Context, conn *pgxpool.Conn) error) error {
	if pool == nil {
		return ErrNoPool
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = maxTimeout

	return backoff.Retry(func() error {
		conn, err := pool.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("error in pool.Acquire: %w", err)
		}
		defer conn.Release()

		err = f(ctx, conn)
		var perm permanent
		if errors.As(err, &perm) && perm.IsPermanent() {
			return backoff.Permanent(err)
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}
