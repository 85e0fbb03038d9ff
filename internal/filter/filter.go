// Package filter narrows todo lists by completion state.
package filter

import (
	"fmt"
	"strings"
	"sync"

	"todoui/backend"
	"todoui/internal/query"
	"todoui/internal/utils"
)

// Mode is a filter selection
type Mode string

const (
	All        Mode = "all"
	Completed  Mode = "completed"
	InProgress Mode = "in-progress"
)

// Strategy names accepted by NewEngine
const (
	StrategyDerived  = "derived"
	StrategySnapshot = "snapshot"
)

// Modes returns every filter mode in display order
func Modes() []Mode {
	return []Mode{All, Completed, InProgress}
}

// ModeNames returns the string form of every mode
func ModeNames() []string {
	modes := Modes()
	names := make([]string, len(modes))
	for i, m := range modes {
		names[i] = string(m)
	}
	return names
}

// Label returns the display label of a mode
func (m Mode) Label() string {
	switch m {
	case Completed:
		return "Completed"
	case InProgress:
		return "In Progress"
	default:
		return "All"
	}
}

// Next returns the mode after m, wrapping around
func (m Mode) Next() Mode {
	modes := Modes()
	for i, candidate := range modes {
		if candidate == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return All
}

// ParseMode validates a user supplied mode
func ParseMode(s string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes() {
		if string(m) == normalized {
			return m, nil
		}
	}
	return "", utils.ErrInvalidFilter(s, ModeNames())
}

// Apply returns the todos matching mode in their original order.
// Unknown modes behave like All. The input is never modified.
func Apply(todos []backend.Todo, mode Mode) []backend.Todo {
	out := make([]backend.Todo, 0, len(todos))
	for _, t := range todos {
		switch mode {
		case Completed:
			if !t.Completed {
				continue
			}
		case InProgress:
			if t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Engine tracks the active filter and produces the displayed list
type Engine interface {
	// Select makes mode the active filter
	Select(mode Mode)
	// Active returns the selected mode
	Active() Mode
	// Displayed returns the list the view should render
	Displayed() []backend.Todo
}

// NewEngine creates the engine for strategy over cache
func NewEngine(strategy string, cache *query.Cache) (Engine, error) {
	switch strings.ToLower(strings.TrimSpace(strategy)) {
	case "", StrategyDerived:
		return NewDerived(cache), nil
	case StrategySnapshot:
		return NewSnapshot(cache), nil
	default:
		return nil, fmt.Errorf("unknown filter strategy %q (valid: %s, %s)", strategy, StrategyDerived, StrategySnapshot)
	}
}

// =============================================================================
// Derived strategy
// =============================================================================

// DerivedFilter computes the displayed list from the canonical todos entry on
// every read
type DerivedFilter struct {
	mu     sync.RWMutex
	cache  *query.Cache
	active Mode
}

// NewDerived creates a derived filter starting at All
func NewDerived(cache *query.Cache) *DerivedFilter {
	return &DerivedFilter{cache: cache, active: All}
}

// Select implements Engine
func (f *DerivedFilter) Select(mode Mode) {
	f.mu.Lock()
	f.active = mode
	f.mu.Unlock()
}

// Active implements Engine
func (f *DerivedFilter) Active() Mode {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.active
}

// Displayed implements Engine
func (f *DerivedFilter) Displayed() []backend.Todo {
	todos, _ := f.cache.Get(query.KeyTodos)
	return Apply(todos, f.Active())
}

// =============================================================================
// Snapshot strategy
// =============================================================================

// SnapshotFilter narrows the todos entry from a snapshot captured on the first
// selection. That first selection only arms the snapshot.
type SnapshotFilter struct {
	mu     sync.Mutex
	cache  *query.Cache
	active Mode
}

// NewSnapshot creates a snapshot filter starting at All
func NewSnapshot(cache *query.Cache) *SnapshotFilter {
	return &SnapshotFilter{cache: cache, active: All}
}

// Select implements Engine
func (f *SnapshotFilter) Select(mode Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.active = mode

	snapshot, ok := f.cache.Get(query.KeyTodosOriginal)
	if !ok {
		current, _ := f.cache.Get(query.KeyTodos)
		f.cache.Set(query.KeyTodosOriginal, current)
		utils.Debugf("filter snapshot armed with %d todos", len(current))
		return
	}

	f.cache.Set(query.KeyTodos, Apply(snapshot, mode))
}

// Active implements Engine
func (f *SnapshotFilter) Active() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Displayed implements Engine
func (f *SnapshotFilter) Displayed() []backend.Todo {
	todos, _ := f.cache.Get(query.KeyTodos)
	return todos
}

var (
	_ Engine = (*DerivedFilter)(nil)
	_ Engine = (*SnapshotFilter)(nil)
)
