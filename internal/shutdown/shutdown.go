// Package shutdown coordinates interrupt handling and cleanup on exit.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"todoui/internal/utils"
)

// CleanupFunc is a function that performs cleanup on shutdown.
// It receives a context that will be cancelled when the shutdown times out.
type CleanupFunc func(ctx context.Context) error

// cleanupEntry holds a registered cleanup function with its name.
type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager handles graceful shutdown coordination.
type Manager struct {
	mu       sync.Mutex
	cleanups []cleanupEntry
	shutdown bool
	signal   os.Signal
	ctx      context.Context
	cancel   context.CancelFunc
	once     sync.Once
	waitOnce sync.Once
}

// NewManager creates a shutdown manager whose context derives from parent.
func NewManager(parent context.Context) *Manager {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	return &Manager{
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first called).
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown cancels the manager context.
// Safe to call multiple times; only the first call has effect.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()
		m.cancel()
	})
}

// Listen triggers Shutdown on SIGINT or SIGTERM (or the given signals).
// The returned stop function releases the signal handler.
func (m *Manager) Listen(signals ...os.Signal) (stop func()) {
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM}
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-ch:
			utils.Debugf("received %s, shutting down", sig)
			m.mu.Lock()
			m.signal = sig
			m.mu.Unlock()
			m.Shutdown()
		case <-done:
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			signal.Stop(ch)
			close(done)
		})
	}
}

// runCleanups executes all cleanup functions in LIFO order.
// Failures are logged and the remaining cleanups still run.
func (m *Manager) runCleanups(ctx context.Context) {
	m.mu.Lock()
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i].fn(ctx); err != nil {
			utils.Warnf("cleanup %s failed: %v", cleanups[i].name, err)
		}
	}
}

// Wait runs the registered cleanups once.
// Returns ctx.Err() if they do not finish before ctx is done.
func (m *Manager) Wait(ctx context.Context) error {
	var err error
	m.waitOnce.Do(func() {
		done := make(chan struct{})
		go func() {
			m.runCleanups(ctx)
			close(done)
		}()

		select {
		case <-done:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

// IsShutdown returns true if shutdown has been initiated.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Signal returns the signal that triggered shutdown, if any.
func (m *Manager) Signal() os.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.signal
}

// Context returns a context that is cancelled when shutdown is initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}
