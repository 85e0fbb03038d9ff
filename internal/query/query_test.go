package query

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"todoui/backend"
)

func sampleTodos() []backend.Todo {
	return []backend.Todo{
		{ID: 1, Body: "a", Completed: false},
		{ID: 2, Body: "b", Completed: true},
	}
}

func TestGetAbsentKey(t *testing.T) {
	c := New()
	todos, ok := c.Get(KeyTodos)
	if ok {
		t.Error("expected absent key to report ok=false")
	}
	if todos == nil || len(todos) != 0 {
		t.Errorf("expected empty list for absent key, got %#v", todos)
	}
}

func TestSetReplacesWholesale(t *testing.T) {
	c := New()
	c.Set(KeyTodos, sampleTodos())
	c.Set(KeyTodos, []backend.Todo{{ID: 3, Body: "c"}})

	todos, ok := c.Get(KeyTodos)
	if !ok {
		t.Fatal("expected key to be present")
	}
	if len(todos) != 1 || todos[0].ID != 3 {
		t.Errorf("expected replaced list, got %+v", todos)
	}
}

func TestSetEmptyIsPresent(t *testing.T) {
	c := New()
	c.Set(KeyTodosOriginal, nil)
	if _, ok := c.Get(KeyTodosOriginal); !ok {
		t.Error("an empty snapshot is still a snapshot")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	c := New()
	in := sampleTodos()
	c.Set(KeyTodos, in)

	in[0].Body = "mutated input"
	out, _ := c.Get(KeyTodos)
	if out[0].Body != "a" {
		t.Error("Set should copy its input")
	}

	out[1].Completed = false
	again, _ := c.Get(KeyTodos)
	if !again[1].Completed {
		t.Error("Get should return a copy")
	}
}

func TestKeysRemoveClear(t *testing.T) {
	c := New()
	c.Set(KeyTodosOriginal, sampleTodos())
	c.Set(KeyTodos, sampleTodos())
	c.Begin("other") // loading state only, no list

	keys := c.Keys()
	if len(keys) != 2 || keys[0] != KeyTodos || keys[1] != KeyTodosOriginal {
		t.Errorf("unexpected keys %v", keys)
	}

	c.Remove(KeyTodosOriginal)
	if _, ok := c.Get(KeyTodosOriginal); ok {
		t.Error("expected key to be removed")
	}

	c.Clear()
	if len(c.Keys()) != 0 {
		t.Errorf("expected no keys after Clear, got %v", c.Keys())
	}
}

func TestBeginResolve(t *testing.T) {
	c := New()
	if c.State(KeyTodos).Status != StatusIdle {
		t.Errorf("expected idle state, got %s", c.State(KeyTodos).Status)
	}

	gen := c.Begin(KeyTodos)
	if c.State(KeyTodos).Status != StatusLoading {
		t.Errorf("expected loading state, got %s", c.State(KeyTodos).Status)
	}

	if !c.Resolve(KeyTodos, gen, sampleTodos(), nil) {
		t.Fatal("expected current generation to resolve")
	}
	st := c.State(KeyTodos)
	if st.Status != StatusSuccess || st.Err != nil || st.UpdatedAt.IsZero() {
		t.Errorf("unexpected state %+v", st)
	}
	todos, _ := c.Get(KeyTodos)
	if len(todos) != 2 {
		t.Errorf("expected 2 todos, got %d", len(todos))
	}
}

func TestResolveErrorKeepsPreviousList(t *testing.T) {
	c := New()
	c.Set(KeyTodos, sampleTodos())

	boom := errors.New("boom")
	gen := c.Begin(KeyTodos)
	c.Resolve(KeyTodos, gen, nil, boom)

	st := c.State(KeyTodos)
	if st.Status != StatusError || !errors.Is(st.Err, boom) {
		t.Errorf("expected error state, got %+v", st)
	}
	todos, _ := c.Get(KeyTodos)
	if len(todos) != 2 {
		t.Errorf("failed fetch should not clear the list, got %+v", todos)
	}
}

func TestStaleResolveDropped(t *testing.T) {
	c := New()

	first := c.Begin(KeyTodos)
	second := c.Begin(KeyTodos)

	if !c.Resolve(KeyTodos, second, []backend.Todo{{ID: 2, Body: "new"}}, nil) {
		t.Fatal("expected newest generation to resolve")
	}
	if c.Resolve(KeyTodos, first, []backend.Todo{{ID: 1, Body: "old"}}, nil) {
		t.Error("expected superseded generation to be dropped")
	}

	todos, _ := c.Get(KeyTodos)
	if len(todos) != 1 || todos[0].Body != "new" {
		t.Errorf("stale result overwrote newer one: %+v", todos)
	}
}

func TestInvalidateDropsInFlight(t *testing.T) {
	c := New()
	c.Set(KeyTodos, sampleTodos())

	gen := c.Begin(KeyTodos)
	c.Invalidate(KeyTodos)

	if c.State(KeyTodos).Status != StatusIdle {
		t.Errorf("expected idle after invalidating a load, got %s", c.State(KeyTodos).Status)
	}
	if c.Resolve(KeyTodos, gen, nil, nil) {
		t.Error("expected invalidated generation to be dropped")
	}
	todos, _ := c.Get(KeyTodos)
	if len(todos) != 2 {
		t.Error("Invalidate should keep the stored list")
	}
}

func TestResultOutcome(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want Outcome
	}{
		{"success", Result{Todos: sampleTodos()}, OutcomeSuccess},
		{"empty", Result{Todos: []backend.Todo{}}, OutcomeEmpty},
		{"nil is empty", Result{}, OutcomeEmpty},
		{"error", Result{Err: errors.New("x"), Todos: sampleTodos()}, OutcomeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Outcome(); got != tt.want {
				t.Errorf("Outcome() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFetch(t *testing.T) {
	c := New()
	res := c.Fetch(context.Background(), KeyTodos, func(context.Context) ([]backend.Todo, error) {
		return nil, nil
	})
	if res.Outcome() != OutcomeEmpty || res.Todos == nil {
		t.Errorf("expected empty non-nil result, got %+v", res)
	}

	res = c.Fetch(context.Background(), KeyTodos, func(context.Context) ([]backend.Todo, error) {
		return sampleTodos(), nil
	})
	if res.Outcome() != OutcomeSuccess {
		t.Errorf("expected success, got %s", res.Outcome())
	}
	if todos, _ := c.Get(KeyTodos); len(todos) != 2 {
		t.Errorf("expected fetch to populate cache, got %+v", todos)
	}

	boom := errors.New("offline")
	res = c.Fetch(context.Background(), KeyTodos, func(context.Context) ([]backend.Todo, error) {
		return nil, boom
	})
	if res.Outcome() != OutcomeError || !errors.Is(res.Err, boom) {
		t.Errorf("expected error result, got %+v", res)
	}
	if c.State(KeyTodos).Status != StatusError {
		t.Errorf("expected error state, got %s", c.State(KeyTodos).Status)
	}
}

func TestFetchSupersededByNewerFetch(t *testing.T) {
	c := New()
	release := make(chan struct{})
	started := make(chan struct{})
	done := make(chan Result)

	go func() {
		done <- c.Fetch(context.Background(), KeyTodos, func(context.Context) ([]backend.Todo, error) {
			close(started)
			<-release
			return []backend.Todo{{ID: 1, Body: "slow"}}, nil
		})
	}()

	<-started
	c.Fetch(context.Background(), KeyTodos, func(context.Context) ([]backend.Todo, error) {
		return []backend.Todo{{ID: 2, Body: "fast"}}, nil
	})
	close(release)

	select {
	case res := <-done:
		if res.Todos[0].Body != "slow" {
			t.Errorf("caller should still see its own result, got %+v", res.Todos)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("slow fetch did not return")
	}

	todos, _ := c.Get(KeyTodos)
	if len(todos) != 1 || todos[0].Body != "fast" {
		t.Errorf("expected newest fetch to win, got %+v", todos)
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			gen := c.Begin(KeyTodos)
			c.Resolve(KeyTodos, gen, []backend.Todo{{ID: i}}, nil)
			c.Get(KeyTodos)
			c.Keys()
			c.State(KeyTodos)
		}(i)
	}
	wg.Wait()

	if st := c.State(KeyTodos); st.Status != StatusSuccess {
		t.Errorf("expected success after concurrent fetches, got %s", st.Status)
	}
}
