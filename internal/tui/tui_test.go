package tui

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"

	"todoui/backend"
	"todoui/internal/filter"
	"todoui/internal/query"
	"todoui/internal/utils"
)

// mockStore implements Store for testing
type mockStore struct {
	mu        sync.Mutex
	todos     []backend.Todo
	nextID    int
	listErr   error
	updateErr error
	calls     []string
}

func newMockStore() *mockStore {
	return &mockStore{
		todos: []backend.Todo{
			{ID: 1, Body: "Buy groceries", Completed: false},
			{ID: 2, Body: "Walk the dog", Completed: true},
			{ID: 3, Body: "Write tests", Completed: false},
		},
		nextID: 4,
	}
}

func (s *mockStore) ListTodos(_ context.Context) ([]backend.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "list")
	if s.listErr != nil {
		return nil, s.listErr
	}
	return backend.CloneTodos(s.todos), nil
}

func (s *mockStore) CreateTodo(_ context.Context, body string) (*backend.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "create")
	t := backend.Todo{ID: s.nextID, Body: body}
	s.nextID++
	s.todos = append(s.todos, t)
	return &t, nil
}

func (s *mockStore) UpdateTodo(_ context.Context, id int, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "update")
	if s.updateErr != nil {
		return s.updateErr
	}
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos[i].Completed = completed
			return nil
		}
	}
	return errors.New("todo not found")
}

func (s *mockStore) DeleteTodo(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "delete")
	for i := range s.todos {
		if s.todos[i].ID == id {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return nil
		}
	}
	return errors.New("todo not found")
}

func (s *mockStore) count(call string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c == call {
			n++
		}
	}
	return n
}

// run executes cmd and feeds the model's own messages back through Update.
// Spinner ticks, cursor blinks and quit messages are dropped.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			run(t, m, c)
		}
	case todosFetchedMsg, mutationDoneMsg:
		_, next := m.Update(msg)
		run(t, m, next)
	}
}

func press(t *testing.T, m *Model, keys ...string) {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		_, cmd := m.Update(msg)
		run(t, m, cmd)
	}
}

func started(t *testing.T, store Store, opts ...Option) *Model {
	t.Helper()
	m := New(store, opts...)
	run(t, m, m.Init())
	return m
}

func bodies(todos []backend.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, t := range todos {
		out = append(out, t.Body)
	}
	return out
}

// =============================================================================
// Model Tests
// =============================================================================

func TestInitialFetchRendersList(t *testing.T) {
	m := started(t, newMockStore())

	view := m.View()
	for _, want := range []string{"TODAY'S TASKS", "All", "Completed", "In Progress", "Buy groceries", "[✓]", "Write tests"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view:\n%s", want, view)
		}
	}
	if m.Cache().State(query.KeyTodos).Status != query.StatusSuccess {
		t.Errorf("expected success state, got %s", m.Cache().State(query.KeyTodos).Status)
	}
}

func TestLoadingView(t *testing.T) {
	m := New(newMockStore())
	_ = m.Init() // fetch begun but not delivered

	if !strings.Contains(m.View(), "Loading...") {
		t.Errorf("expected loading indicator, got:\n%s", m.View())
	}
}

func TestEmptyListView(t *testing.T) {
	store := newMockStore()
	store.todos = nil
	m := started(t, store)

	if !strings.Contains(m.View(), "All tasks completed! 🎉") {
		t.Errorf("expected empty state, got:\n%s", m.View())
	}
}

func TestFetchErrorShownInline(t *testing.T) {
	store := newMockStore()
	store.listErr = errors.New("backend todos API is offline: connection refused\n\nSuggestion: start it")
	m := started(t, store)

	view := m.View()
	if !strings.Contains(view, "Error: backend todos API is offline: connection refused") {
		t.Errorf("expected inline error, got:\n%s", view)
	}
	if strings.Contains(view, "Suggestion") {
		t.Error("only the first line of the error should be shown")
	}
	if !strings.Contains(view, "All tasks completed! 🎉") {
		t.Error("a failed fetch renders as an empty list")
	}

	// Recovery on refresh
	store.mu.Lock()
	store.listErr = nil
	store.mu.Unlock()
	press(t, m, "r")
	if m.Err() != nil || !strings.Contains(m.View(), "Buy groceries") {
		t.Errorf("expected refresh to recover, got:\n%s", m.View())
	}
}

func TestFetchErrorShowsSuggestion(t *testing.T) {
	store := newMockStore()
	store.listErr = utils.ErrBackendOffline("todos API", "connection refused")
	m := started(t, store)

	view := m.View()
	if !strings.Contains(view, "Error: backend todos API is offline") {
		t.Errorf("expected inline error, got:\n%s", view)
	}
	if !strings.Contains(view, "todos API server is running") {
		t.Errorf("expected the suggestion below the error, got:\n%s", view)
	}
}

func TestFilterKeys(t *testing.T) {
	m := started(t, newMockStore())

	press(t, m, "2")
	if m.ActiveFilter() != filter.Completed {
		t.Errorf("expected completed filter, got %s", m.ActiveFilter())
	}
	if got := bodies(m.Displayed()); len(got) != 1 || got[0] != "Walk the dog" {
		t.Errorf("expected only completed todos, got %v", got)
	}

	press(t, m, "3")
	if got := bodies(m.Displayed()); len(got) != 2 || got[0] != "Buy groceries" {
		t.Errorf("expected in-progress todos, got %v", got)
	}

	press(t, m, "f")
	if m.ActiveFilter() != filter.All || len(m.Displayed()) != 3 {
		t.Errorf("expected f to cycle back to all, got %s", m.ActiveFilter())
	}

	press(t, m, "1")
	if len(m.Displayed()) != 3 {
		t.Error("all should show every todo")
	}
}

func TestSnapshotStrategyArmsOnFirstSelection(t *testing.T) {
	cache := query.New()
	m := started(t, newMockStore(), WithCache(cache), WithEngine(filter.NewSnapshot(cache)))

	press(t, m, "2")
	if len(m.Displayed()) != 3 {
		t.Errorf("first selection should only arm the snapshot, got %v", bodies(m.Displayed()))
	}
	if _, ok := cache.Get(query.KeyTodosOriginal); !ok {
		t.Error("expected snapshot to exist")
	}

	press(t, m, "2")
	if got := bodies(m.Displayed()); len(got) != 1 || got[0] != "Walk the dog" {
		t.Errorf("second selection should filter, got %v", got)
	}
}

func TestInitialFilterAppliedAfterFetch(t *testing.T) {
	m := New(newMockStore(), WithFilter(filter.InProgress))
	if m.ActiveFilter() != filter.All {
		t.Error("filter should not apply before data arrives")
	}

	run(t, m, m.Init())
	if m.ActiveFilter() != filter.InProgress {
		t.Errorf("expected in-progress after fetch, got %s", m.ActiveFilter())
	}
	if len(m.Displayed()) != 2 {
		t.Errorf("expected 2 in-progress todos, got %v", bodies(m.Displayed()))
	}
}

func TestToggleCompletion(t *testing.T) {
	store := newMockStore()
	m := started(t, store)

	press(t, m, " ")
	if !m.Displayed()[0].Completed {
		t.Error("expected first todo to be completed after toggle")
	}

	press(t, m, "c")
	if m.Displayed()[0].Completed {
		t.Error("expected first todo to be reopened after second toggle")
	}

	if store.count("update") != 2 {
		t.Errorf("expected 2 updates, got %d", store.count("update"))
	}
	if store.count("list") != 3 {
		t.Errorf("expected a refetch after each mutation, got %d lists", store.count("list"))
	}
}

func TestToggleUnderFilterMovesItemOut(t *testing.T) {
	m := started(t, newMockStore())

	press(t, m, "3", "down", " ")
	if got := bodies(m.Displayed()); len(got) != 1 || got[0] != "Buy groceries" {
		t.Errorf("expected completed item to leave in-progress view, got %v", got)
	}
}

func TestMutationErrorShownInline(t *testing.T) {
	store := newMockStore()
	store.updateErr = errors.New("todos API error (status 500): database down")
	m := started(t, store)

	press(t, m, " ")
	if m.Err() == nil || !strings.Contains(m.View(), "database down") {
		t.Errorf("expected mutation error inline, got:\n%s", m.View())
	}
	if store.count("list") != 1 {
		t.Error("failed mutation should not refetch")
	}
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	store := newMockStore()
	m := started(t, store)

	press(t, m, "d")
	if !strings.Contains(m.View(), `Delete "Buy groceries"?`) {
		t.Errorf("expected confirm dialog, got:\n%s", m.View())
	}
	press(t, m, "n")
	if store.count("delete") != 0 || len(m.Displayed()) != 3 {
		t.Error("declining should not delete")
	}

	press(t, m, "down", "d", "y")
	if got := bodies(m.Displayed()); len(got) != 2 || got[1] != "Write tests" {
		t.Errorf("expected 'Walk the dog' deleted, got %v", got)
	}
}

func TestDeleteLastItemClampsCursor(t *testing.T) {
	m := started(t, newMockStore())

	press(t, m, "down", "down", "d", "y")
	press(t, m, "d")
	if !strings.Contains(m.View(), `Delete "Walk the dog"?`) {
		t.Errorf("cursor should move to the new last item, got:\n%s", m.View())
	}
}

func TestAddTodo(t *testing.T) {
	store := newMockStore()
	m := started(t, store)

	press(t, m, "a")
	if !strings.Contains(m.View(), "Add New Task") {
		t.Fatalf("expected add dialog, got:\n%s", m.View())
	}

	// Empty input is ignored
	press(t, m, "enter")
	if store.count("create") != 0 {
		t.Error("empty body should not be submitted")
	}

	press(t, m, "C", "o", "o", "k", "enter")
	if store.count("create") != 1 {
		t.Fatalf("expected 1 create, got %d", store.count("create"))
	}
	got := bodies(m.Displayed())
	if got[len(got)-1] != "Cook" {
		t.Errorf("expected new todo after refetch, got %v", got)
	}
	if strings.Contains(m.View(), "Add New Task") {
		t.Error("dialog should close after submit")
	}
}

func TestAddCancel(t *testing.T) {
	store := newMockStore()
	m := started(t, store)

	press(t, m, "a", "x", "esc")
	if store.count("create") != 0 {
		t.Error("Esc should cancel without creating")
	}
	if strings.Contains(m.View(), "Add New Task") {
		t.Error("dialog should close on Esc")
	}
}

func TestStaleFetchDropped(t *testing.T) {
	m := New(newMockStore())

	oldGen := m.Cache().Begin(query.KeyTodos)
	newGen := m.Cache().Begin(query.KeyTodos)

	m.Update(todosFetchedMsg{gen: newGen, todos: []backend.Todo{{ID: 9, Body: "fresh"}}})
	m.Update(todosFetchedMsg{gen: oldGen, todos: []backend.Todo{{ID: 8, Body: "stale"}}})

	if got := bodies(m.Displayed()); len(got) != 1 || got[0] != "fresh" {
		t.Errorf("stale response overwrote newer data: %v", got)
	}
}

func TestHelpDialog(t *testing.T) {
	m := started(t, newMockStore())

	press(t, m, "?")
	view := m.View()
	if !strings.Contains(view, "Help - Key Bindings") || !strings.Contains(view, "next filter") {
		t.Errorf("expected help dialog, got:\n%s", view)
	}

	press(t, m, "x")
	if strings.Contains(m.View(), "Help - Key Bindings") {
		t.Error("any key should close help")
	}
}

func TestQuit(t *testing.T) {
	m := started(t, newMockStore())
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

// =============================================================================
// Program Tests
// =============================================================================

func readAll(t *testing.T, r io.Reader) []byte {
	t.Helper()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	return out
}

// TestTUILaunch runs the full program and quits
func TestTUILaunch(t *testing.T) {
	tm := teatest.NewTestModel(t, New(newMockStore()), teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Buy groceries"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	tm.WaitFinished(t, teatest.WithFinalTimeout(2*time.Second))
}

// TestTUIAddTask adds a task through the dialog
func TestTUIAddTask(t *testing.T) {
	store := newMockStore()
	tm := teatest.NewTestModel(t, New(store), teatest.WithInitialTermSize(80, 24))

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Write tests"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	tm.Type("Feed the cat")
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(b []byte) bool {
		return bytes.Contains(b, []byte("Feed the cat"))
	}, teatest.WithDuration(2*time.Second))

	tm.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	fm := tm.FinalModel(t, teatest.WithFinalTimeout(2*time.Second))

	final, ok := fm.(*Model)
	if !ok {
		t.Fatalf("unexpected final model %T", fm)
	}
	got := bodies(final.Displayed())
	if got[len(got)-1] != "Feed the cat" {
		t.Errorf("expected new task in final model, got %v", got)
	}
}
