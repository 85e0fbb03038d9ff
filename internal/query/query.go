// Package query provides the in-memory client-side cache for fetched todos.
package query

import (
	"context"
	"sort"
	"sync"
	"time"

	"todoui/backend"
)

// Well-known cache keys
const (
	// KeyTodos holds the displayed list
	KeyTodos = "todos"
	// KeyTodosOriginal holds the unfiltered snapshot
	KeyTodosOriginal = "todos-original"
)

// Status is the loading state of a cache key
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Outcome classifies a finished fetch
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeEmpty   Outcome = "empty"
	OutcomeError   Outcome = "error"
)

// Result is the outcome of a single fetch
type Result struct {
	Todos []backend.Todo
	Err   error
}

// Outcome reports whether the fetch failed, returned nothing, or returned todos.
func (r Result) Outcome() Outcome {
	switch {
	case r.Err != nil:
		return OutcomeError
	case len(r.Todos) == 0:
		return OutcomeEmpty
	default:
		return OutcomeSuccess
	}
}

// State describes the last known loading state of a key
type State struct {
	Status    Status
	Err       error
	UpdatedAt time.Time
}

type entry struct {
	todos   []backend.Todo
	present bool
	gen     uint64
	state   State
}

// Cache is a concurrency-safe keyed store of todo lists
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
}

// New creates an empty cache
func New() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// entryFor returns the entry for key, creating it. Caller holds the write lock.
func (c *Cache) entryFor(key string) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{state: State{Status: StatusIdle}}
		c.entries[key] = e
	}
	return e
}

// Get returns a copy of the list stored under key.
// Absent keys report ok=false and an empty list.
func (c *Cache) Get(key string) ([]backend.Todo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || !e.present {
		return []backend.Todo{}, false
	}
	return backend.CloneTodos(e.todos), true
}

// Set replaces the list stored under key
func (c *Cache) Set(key string, todos []backend.Todo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryFor(key)
	e.todos = backend.CloneTodos(todos)
	e.present = true
}

// Remove drops the list and state stored under key
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Keys returns the keys holding a list, sorted
func (c *Cache) Keys() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if e.present {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clear drops every entry
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Begin marks key as loading and returns the generation a later Resolve must present.
func (c *Cache) Begin(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryFor(key)
	e.gen++
	e.state = State{Status: StatusLoading, UpdatedAt: c.now()}
	return e.gen
}

// Resolve stores the outcome of the fetch started with gen.
// Results from a superseded generation are dropped and Resolve returns false.
func (c *Cache) Resolve(key string, gen uint64, todos []backend.Todo, err error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryFor(key)
	if gen != e.gen {
		return false
	}

	if err != nil {
		e.state = State{Status: StatusError, Err: err, UpdatedAt: c.now()}
		return true
	}

	e.todos = backend.CloneTodos(todos)
	e.present = true
	e.state = State{Status: StatusSuccess, UpdatedAt: c.now()}
	return true
}

// Invalidate marks key stale so any in-flight fetch for it is dropped.
// The stored list is kept until the next successful Resolve.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entryFor(key)
	e.gen++
	if e.state.Status == StatusLoading {
		e.state = State{Status: StatusIdle, UpdatedAt: c.now()}
	}
}

// State returns the loading state of key
func (c *Cache) State(key string) State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return State{Status: StatusIdle}
	}
	return e.state
}

// Fetch runs fn as a tracked load of key.
// A result superseded by a newer Begin or Invalidate is still returned to the
// caller but does not touch the cache.
func (c *Cache) Fetch(ctx context.Context, key string, fn func(context.Context) ([]backend.Todo, error)) Result {
	gen := c.Begin(key)
	todos, err := fn(ctx)
	if err == nil && todos == nil {
		todos = []backend.Todo{}
	}
	c.Resolve(key, gen, todos, err)
	return Result{Todos: todos, Err: err}
}
