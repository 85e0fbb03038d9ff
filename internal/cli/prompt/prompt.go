// Package prompt handles interactive prompts with no-prompt mode support.
// It provides todo selection by typed filter, yes/no confirmation and
// interactive body entry for the add command.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"todoui/backend"
)

// Sentinel errors for prompt operations.
var (
	ErrSelectionCancelled = errors.New("selection cancelled")
	ErrNoPromptMode       = errors.New("interactive prompts disabled (--no-prompt / -y)")
	ErrNoTodos            = errors.New("no todos available")
	ErrNoMatches          = errors.New("no todos match the filter")
)

// TodoSelector lets the user narrow a list of todos by typing part of the
// body and then pick one by number.
type TodoSelector struct {
	Todos    []backend.Todo
	Prompt   string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run executes the selection prompt.
// If NoPrompt is true, returns ErrNoPromptMode.
// If there is exactly one todo, it is selected without asking.
func (s *TodoSelector) Run() (*backend.Todo, error) {
	if s.NoPrompt {
		return nil, ErrNoPromptMode
	}

	if len(s.Todos) == 0 {
		return nil, ErrNoTodos
	}

	if len(s.Todos) == 1 {
		return &s.Todos[0], nil
	}

	writer := s.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(s.Reader)

	_, _ = fmt.Fprintf(writer, "%s\nFilter (or press Enter to show all): ", s.Prompt)
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}
	needle := strings.ToLower(strings.TrimSpace(scanner.Text()))

	var matched []backend.Todo
	for _, t := range s.Todos {
		if needle == "" || strings.Contains(strings.ToLower(t.Body), needle) {
			matched = append(matched, t)
		}
	}

	if len(matched) == 0 {
		return nil, ErrNoMatches
	}

	if len(matched) == 1 {
		_, _ = fmt.Fprintf(writer, "Auto-selected: %s\n", matched[0].Body)
		return &matched[0], nil
	}

	for i, t := range matched {
		_, _ = fmt.Fprintf(writer, "  %d) %s\n", i+1, formatTodoLine(t))
	}

	_, _ = fmt.Fprintf(writer, "Select (0 to cancel): ")
	if !scanner.Scan() {
		return nil, ErrSelectionCancelled
	}

	input := strings.TrimSpace(scanner.Text())
	num, err := strconv.Atoi(input)
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %s", input)
	}

	if num == 0 {
		return nil, ErrSelectionCancelled
	}

	if num < 1 || num > len(matched) {
		return nil, fmt.Errorf("selection out of range: %d", num)
	}

	return &matched[num-1], nil
}

func formatTodoLine(t backend.Todo) string {
	mark := "[ ]"
	if t.Completed {
		mark = "[✓]"
	}
	return fmt.Sprintf("%s #%d %s", mark, t.ID, t.Body)
}

// FilterTodosByAction returns the todos a command can act on.
// "done" only offers todos still in progress, "undo" only completed ones.
// Any other action gets a copy of the full list.
func FilterTodosByAction(todos []backend.Todo, action string) []backend.Todo {
	result := make([]backend.Todo, 0, len(todos))
	for _, t := range todos {
		switch action {
		case "done":
			if t.Completed {
				continue
			}
		case "undo":
			if !t.Completed {
				continue
			}
		}
		result = append(result, t)
	}
	return result
}

// Confirm asks a yes/no question. Only "y" or "yes" confirms.
// In no-prompt mode the answer is assumed to be yes.
type Confirm struct {
	Question string
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run asks the question and reports the answer.
func (c *Confirm) Run() (bool, error) {
	if c.NoPrompt {
		return true, nil
	}

	writer := c.Writer
	if writer == nil {
		writer = io.Discard
	}

	_, _ = fmt.Fprintf(writer, "%s [y/N]: ", c.Question)
	scanner := bufio.NewScanner(c.Reader)
	if !scanner.Scan() {
		return false, ErrSelectionCancelled
	}

	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// BodyPrompt asks for a todo body until a non-empty one is entered.
type BodyPrompt struct {
	Reader   io.Reader
	Writer   io.Writer
	NoPrompt bool
}

// Run returns the trimmed body.
func (b *BodyPrompt) Run() (string, error) {
	if b.NoPrompt {
		return "", ErrNoPromptMode
	}

	writer := b.Writer
	if writer == nil {
		writer = io.Discard
	}

	scanner := bufio.NewScanner(b.Reader)
	for {
		_, _ = fmt.Fprint(writer, "Task (required): ")
		if !scanner.Scan() {
			return "", errors.New("no input for task")
		}
		body := strings.TrimSpace(scanner.Text())
		if body != "" {
			return body, nil
		}
		_, _ = fmt.Fprintln(writer, "Task cannot be empty.")
	}
}
