package future

import (
	"fmt"
	"time"

	"github.com/danthegoodman1/fedb/gologger"
	"github.com/panjf2000/ants/v2"
)

var logger = gologger.NewLogger()

type (
	// Executor runs delivery tasks off the caller's goroutine.
	Executor interface {
		Submit(task func()) error
	}

	// GoExecutor starts one goroutine per task.
	GoExecutor struct{}

	// AntsExecutor runs tasks on a bounded ants pool.
	AntsExecutor struct {
		pool *ants.Pool
	}
)

func (GoExecutor) Submit(task func()) error {
	go task()
	return nil
}

func NewAntsExecutor(size int) (*AntsExecutor, error) {
	pool, err := ants.NewPool(size, ants.WithPanicHandler(func(v any) {
		logger.Error().Interface("panic", v).Msg("delivery task panic")
	}))
	if err != nil {
		return nil, fmt.Errorf("error in ants.NewPool: %w", err)
	}
	return &AntsExecutor{pool: pool}, nil
}

func (e *AntsExecutor) Submit(task func()) error {
	if err := e.pool.Submit(task); err != nil {
		return fmt.Errorf("error in pool.Submit: %w", err)
	}
	return nil
}

func (e *AntsExecutor) Running() int {
	return e.pool.Running()
}

func (e *AntsExecutor) Shutdown(timeout time.Duration) error {
	return e.pool.ReleaseTimeout(timeout)
}
