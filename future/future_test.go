package future

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestResolveOnce(t *testing.T) {
	f := New[int]()
	if !f.Resolve(1) {
		t.Fatal("first resolve should settle")
	}
	if f.Resolve(2) || f.Reject(errors.New("nope")) {
		t.Fatal("second settle should be ignored")
	}
	v, err := f.Await(context.Background())
	if err != nil || v != 1 {
		t.Fatalf("got %d %v", v, err)
	}
}

func TestDeliverWaitsForGate(t *testing.T) {
	gate := make(chan struct{})
	f, err := Deliver[string](GoExecutor{}, gate, "ok")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case <-f.Done():
		t.Fatal("resolved before the gate closed")
	case <-time.After(20 * time.Millisecond):
	}

	close(gate)
	v, err := f.Await(context.Background())
	if err != nil || v != "ok" {
		t.Fatalf("got %q %v", v, err)
	}
}

func TestAwaitContext(t *testing.T) {
	f := New[int]()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAntsExecutor(t *testing.T) {
	exec, err := NewAntsExecutor(2)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Shutdown(time.Second)

	var calls int64
	gate := make(chan struct{})
	close(gate)
	for i := 0; i < 10; i++ {
		f, err := Deliver(exec, gate, i)
		if err != nil {
			t.Fatal(err)
		}
		done := make(chan struct{})
		if err := f.Then(exec, func(v int, err error) {
			atomic.AddInt64(&calls, 1)
			close(done)
		}); err != nil {
			t.Fatal(err)
		}
		<-done
	}
	if atomic.LoadInt64(&calls) != 10 {
		t.Fatalf("expected 10 callbacks, got %d", calls)
	}
}

func TestAntsExecutorRunning(t *testing.T) {
	exec, err := NewAntsExecutor(2)
	if err != nil {
		t.Fatal(err)
	}
	defer exec.Shutdown(time.Second)

	started, release := make(chan struct{}), make(chan struct{})
	if err := exec.Submit(func() {
		close(started)
		<-release
	}); err != nil {
		t.Fatal(err)
	}
	<-started
	if got := exec.Running(); got != 1 {
		t.Fatalf("expected 1 running worker, got %d", got)
	}
	close(release)
}
