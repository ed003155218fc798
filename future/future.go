// Package future delivers values computed synchronously to callers that wait
// for them asynchronously. A Future resolves exactly once.
package future

import (
	"context"
	"sync"
)

type Future[T any] struct {
	done  chan struct{}
	once  sync.Once
	value T
	err   error
}

func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolve settles the future with v. Only the first settle call has an effect.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. Only the first settle call has an effect.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	return f.settle(zero, err)
}

func (f *Future[T]) settle(v T, err error) (settled bool) {
	f.once.Do(func() {
		f.value = v
		f.err = err
		close(f.done)
		settled = true
	})
	return
}

// Done is closed once the future has settled.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the future settles or ctx is done. Cancelling ctx abandons
// the wait only; the future still settles.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then runs fn on the executor once the future settles.
func (f *Future[T]) Then(exec Executor, fn func(T, error)) error {
	return exec.Submit(func() {
		<-f.done
		fn(f.value, f.err)
	})
}

// Deliver returns a future that is resolved with v on exec, but not before gate
// is closed. Callers close gate when they return control, which guarantees the
// value is never observable before the caller has the future in hand.
func Deliver[T any](exec Executor, gate <-chan struct{}, v T) (*Future[T], error) {
	f := New[T]()
	err := exec.Submit(func() {
		<-gate
		f.Resolve(v)
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}
