package backend

import (
	"context"
	"errors"
)

// Todo represents a single task record served by the todos API
type Todo struct {
	ID        int    `json:"id"`
	Body      string `json:"body"`
	Completed bool   `json:"completed"`
}

// ErrEmptyBody is returned when a todo is created without text.
// The message matches the server's own validation error.
var ErrEmptyBody = errors.New("Body is required")

// TodoStore defines the interface for the remote todos resource
type TodoStore interface {
	// Read
	ListTodos(ctx context.Context) ([]Todo, error)

	// Mutations
	CreateTodo(ctx context.Context, body string) (*Todo, error)
	UpdateTodo(ctx context.Context, id int, completed bool) error
	DeleteTodo(ctx context.Context, id int) error

	// Connection management
	Close() error
}

// FindTodo returns the todo with the given id, or nil if none matches.
func FindTodo(todos []Todo, id int) *Todo {
	for i := range todos {
		if todos[i].ID == id {
			return &todos[i]
		}
	}
	return nil
}

// CloneTodos returns a copy of todos that never aliases the input.
// A nil input yields an empty, non-nil slice.
func CloneTodos(todos []Todo) []Todo {
	out := make([]Todo, len(todos))
	copy(out, todos)
	return out
}
