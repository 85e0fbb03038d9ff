package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"todoui/backend"
)

// FakeAPI is an in-memory todos API served over HTTP for CLI tests.
type FakeAPI struct {
	server   *httptest.Server
	mu       sync.Mutex
	todos    []backend.Todo
	nextID   int
	token    string
	failNext int
	requests []string
}

// NewFakeAPI starts a fake todos API that is shut down when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{nextID: 1}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/todos", f.handleCollection)
	mux.HandleFunc("/api/todos/", f.handleItem)
	f.server = httptest.NewServer(f.guard(mux))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the API base URL (including the /api prefix).
func (f *FakeAPI) URL() string {
	return f.server.URL + "/api"
}

// Add seeds a todo and returns it.
func (f *FakeAPI) Add(body string, completed bool) backend.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := backend.Todo{ID: f.nextID, Body: body, Completed: completed}
	f.nextID++
	f.todos = append(f.todos, t)
	return t
}

// Todos returns a copy of the stored todos.
func (f *FakeAPI) Todos() []backend.Todo {
	f.mu.Lock()
	defer f.mu.Unlock()
	return backend.CloneTodos(f.todos)
}

// SetToken makes the API require "Bearer token".
func (f *FakeAPI) SetToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
}

// FailNext makes the next n requests answer 500.
func (f *FakeAPI) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failNext = n
}

// Requests returns "METHOD PATH" for every request served so far.
func (f *FakeAPI) Requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (f *FakeAPI) guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		failing := f.failNext > 0
		if failing {
			f.failNext--
		}
		token := f.token
		f.mu.Unlock()

		if failing {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
			return
		}
		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) handleCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, f.Todos())
	case http.MethodPost:
		var req struct {
			Body string `json:"body"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Body) == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Body is required"})
			return
		}
		writeJSON(w, http.StatusCreated, f.Add(req.Body, false))
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *FakeAPI) handleItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/api/todos/"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i := range f.todos {
		if f.todos[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Todo not found"})
		return
	}

	switch r.Method {
	case http.MethodPatch:
		var req struct {
			Completed *bool `json:"completed"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Completed == nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request"})
			return
		}
		f.todos[idx].Completed = *req.Completed
		writeJSON(w, http.StatusOK, f.todos[idx])
	case http.MethodDelete:
		f.todos = append(f.todos[:idx], f.todos[idx+1:]...)
		writeJSON(w, http.StatusOK, map[string]string{"msg": "Todo deleted"})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
