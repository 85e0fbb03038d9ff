package shutdown_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"todoui/internal/shutdown"
)

// TestShutdownCancelsContext verifies in-flight operations observe shutdown
func TestShutdownCancelsContext(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())

	if mgr.IsShutdown() {
		t.Fatal("manager should not start shut down")
	}

	mgr.Shutdown()
	mgr.Shutdown() // no-op

	select {
	case <-mgr.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("context should be cancelled after Shutdown")
	}
	if !mgr.IsShutdown() {
		t.Error("IsShutdown should report true")
	}
}

// TestParentCancellation verifies the manager context follows its parent
func TestParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	mgr := shutdown.NewManager(parent)
	cancel()

	select {
	case <-mgr.Context().Done():
	case <-time.After(time.Second):
		t.Fatal("manager context should follow parent")
	}
}

// TestCleanupLIFO verifies cleanups run in reverse registration order
func TestCleanupLIFO(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())

	var mu sync.Mutex
	var order []string
	for _, name := range []string{"log-file", "backend", "tui"} {
		name := name
		mgr.RegisterCleanup(name, func(ctx context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		})
	}

	mgr.Shutdown()
	if err := mgr.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}

	want := []string{"tui", "backend", "log-file"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

// TestCleanupErrorsDoNotStopOthers verifies a failing cleanup does not skip the rest
func TestCleanupErrorsDoNotStopOthers(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	var ran atomic.Bool

	mgr.RegisterCleanup("first", func(ctx context.Context) error {
		ran.Store(true)
		return nil
	})
	mgr.RegisterCleanup("broken", func(ctx context.Context) error {
		return errors.New("boom")
	})

	if err := mgr.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if !ran.Load() {
		t.Error("expected remaining cleanups to run")
	}
}

// TestWaitRunsOnce verifies cleanups are not repeated
func TestWaitRunsOnce(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	var calls atomic.Int32
	mgr.RegisterCleanup("count", func(ctx context.Context) error {
		calls.Add(1)
		return nil
	})

	_ = mgr.Wait(context.Background())
	_ = mgr.Wait(context.Background())

	if calls.Load() != 1 {
		t.Errorf("expected 1 cleanup call, got %d", calls.Load())
	}
}

// TestWaitTimeout verifies a slow cleanup is abandoned at the deadline
func TestWaitTimeout(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	release := make(chan struct{})
	defer close(release)

	mgr.RegisterCleanup("slow", func(ctx context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := mgr.Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

// TestListenSignal verifies a delivered signal triggers shutdown
func TestListenSignal(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	stop := mgr.Listen(syscall.SIGUSR1)
	defer stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("failed to send signal: %v", err)
	}

	select {
	case <-mgr.Context().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("signal should trigger shutdown")
	}
	if mgr.Signal() != syscall.SIGUSR1 {
		t.Errorf("expected SIGUSR1, got %v", mgr.Signal())
	}
}

// TestListenStop verifies stop releases the handler without shutting down
func TestListenStop(t *testing.T) {
	mgr := shutdown.NewManager(context.Background())
	stop := mgr.Listen()
	stop()
	stop()

	if mgr.IsShutdown() {
		t.Error("stopping the listener should not shut down")
	}
}
