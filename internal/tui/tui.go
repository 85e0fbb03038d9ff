// Package tui provides a terminal user interface for the todo list.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"todoui/backend"
	"todoui/internal/filter"
	"todoui/internal/query"
	"todoui/internal/utils"
)

// Store is the subset of backend.TodoStore the TUI needs
type Store interface {
	ListTodos(ctx context.Context) ([]backend.Todo, error)
	CreateTodo(ctx context.Context, body string) (*backend.Todo, error)
	UpdateTodo(ctx context.Context, id int, completed bool) error
	DeleteTodo(ctx context.Context, id int) error
}

// Mode indicates the current input mode
type Mode int

const (
	ModeNormal Mode = iota
	ModeAdd
	ModeHelp
	ModeConfirmDelete
)

// Colors of the filter bar
var (
	colorAll        = lipgloss.Color("#3182CE")
	colorCompleted  = lipgloss.Color("#38A169")
	colorInProgress = lipgloss.Color("#D69E2E")
	colorInactive   = lipgloss.Color("240")
)

// Model represents the TUI state
type Model struct {
	store  Store
	cache  *query.Cache
	engine filter.Engine
	ctx    context.Context

	cursor        int
	err           error       // last fetch or mutation failure, shown inline
	pendingFilter filter.Mode // applied after the first successful fetch

	mode      Mode
	keys      keyMap
	help      help.Model
	textInput textinput.Model
	spinner   spinner.Model

	width  int
	height int

	titleStyle     lipgloss.Style
	selectedStyle  lipgloss.Style
	completedStyle lipgloss.Style
	emptyStyle     lipgloss.Style
	errorStyle     lipgloss.Style
	helpStyle      lipgloss.Style
	dialogStyle    lipgloss.Style
	statusBarStyle lipgloss.Style
}

// Option configures a Model
type Option func(*Model)

// WithContext sets the context used for API calls
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		m.ctx = ctx
	}
}

// WithCache shares an existing query cache
func WithCache(c *query.Cache) Option {
	return func(m *Model) {
		m.cache = c
	}
}

// WithEngine sets the filter engine. It must read from the model's cache.
func WithEngine(e filter.Engine) Option {
	return func(m *Model) {
		m.engine = e
	}
}

// WithFilter selects a filter once the first fetch succeeds
func WithFilter(mode filter.Mode) Option {
	return func(m *Model) {
		if mode != filter.All {
			m.pendingFilter = mode
		}
	}
}

// Message types
type todosFetchedMsg struct {
	gen   uint64
	todos []backend.Todo
	err   error
}

type mutationDoneMsg struct {
	action string
	err    error
}

// New creates a new TUI model
func New(store Store, opts ...Option) *Model {
	ti := textinput.New()
	ti.Placeholder = "Add a task"
	ti.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAll)

	m := &Model{
		store:     store,
		ctx:       context.Background(),
		cache:     query.New(),
		mode:      ModeNormal,
		keys:      defaultKeyMap(),
		help:      help.New(),
		textInput: ti,
		spinner:   sp,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212")),
		completedStyle: lipgloss.NewStyle().
			Strikethrough(true).
			Foreground(lipgloss.Color("240")),
		emptyStyle: lipgloss.NewStyle().
			Foreground(colorCompleted),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		dialogStyle: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2),
		statusBarStyle: lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
	}

	for _, opt := range opts {
		opt(m)
	}
	if m.engine == nil {
		m.engine = filter.NewDerived(m.cache)
	}

	return m
}

// Init starts the first fetch
func (m *Model) Init() tea.Cmd {
	return m.fetch()
}

// Cache returns the query cache backing the model
func (m *Model) Cache() *query.Cache {
	return m.cache
}

// ActiveFilter returns the selected filter mode
func (m *Model) ActiveFilter() filter.Mode {
	return m.engine.Active()
}

// Displayed returns the todos currently rendered
func (m *Model) Displayed() []backend.Todo {
	return m.engine.Displayed()
}

// Err returns the error shown inline, if any
func (m *Model) Err() error {
	return m.err
}

func (m *Model) loading() bool {
	return m.cache.State(query.KeyTodos).Status == query.StatusLoading
}

// fetch starts a tracked load of the todos list off the event loop
func (m *Model) fetch() tea.Cmd {
	gen := m.cache.Begin(query.KeyTodos)
	ctx, store := m.ctx, m.store
	load := func() tea.Msg {
		todos, err := store.ListTodos(ctx)
		return todosFetchedMsg{gen: gen, todos: todos, err: err}
	}
	return tea.Batch(load, m.spinner.Tick)
}

func (m *Model) createTodo(body string) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		_, err := store.CreateTodo(ctx, body)
		return mutationDoneMsg{action: "create", err: err}
	}
}

func (m *Model) setCompleted(id int, completed bool) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return mutationDoneMsg{action: "update", err: store.UpdateTodo(ctx, id, completed)}
	}
}

func (m *Model) deleteTodo(id int) tea.Cmd {
	ctx, store := m.ctx, m.store
	return func() tea.Msg {
		return mutationDoneMsg{action: "delete", err: store.DeleteTodo(ctx, id)}
	}
}

// selected returns the todo under the cursor
func (m *Model) selected() (backend.Todo, bool) {
	todos := m.engine.Displayed()
	if m.cursor < 0 || m.cursor >= len(todos) {
		return backend.Todo{}, false
	}
	return todos[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.engine.Displayed())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectFilter(mode filter.Mode) {
	m.engine.Select(mode)
	m.clampCursor()
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case todosFetchedMsg:
		if !m.cache.Resolve(query.KeyTodos, msg.gen, msg.todos, msg.err) {
			utils.Debugf("dropped stale todos response (generation %d)", msg.gen)
			return m, nil
		}
		m.err = msg.err
		if msg.err != nil {
			utils.Errorf("failed to fetch todos: %v", msg.err)
		} else if m.pendingFilter != "" {
			m.engine.Select(m.pendingFilter)
			m.pendingFilter = ""
		}
		m.clampCursor()
		return m, nil

	case mutationDoneMsg:
		if msg.err != nil {
			utils.Errorf("failed to %s todo: %v", msg.action, msg.err)
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.cache.Invalidate(query.KeyTodos)
		return m, m.fetch()

	case tea.KeyMsg:
		switch m.mode {
		case ModeAdd:
			return m.handleAddMode(msg)
		case ModeHelp:
			return m.handleHelpMode(msg)
		case ModeConfirmDelete:
			return m.handleConfirmDeleteMode(msg)
		}
		return m.handleNormalMode(msg)
	}

	if m.mode == ModeAdd {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.engine.Displayed())-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.Add):
		m.mode = ModeAdd
		m.textInput.Reset()
		m.textInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Toggle):
		if todo, ok := m.selected(); ok {
			return m, m.setCompleted(todo.ID, !todo.Completed)
		}

	case key.Matches(msg, m.keys.Delete):
		if _, ok := m.selected(); ok {
			m.mode = ModeConfirmDelete
		}

	case key.Matches(msg, m.keys.All):
		m.selectFilter(filter.All)

	case key.Matches(msg, m.keys.Completed):
		m.selectFilter(filter.Completed)

	case key.Matches(msg, m.keys.InProgress):
		m.selectFilter(filter.InProgress)

	case key.Matches(msg, m.keys.Cycle):
		m.selectFilter(m.engine.Active().Next())

	case key.Matches(msg, m.keys.Refresh):
		return m, m.fetch()

	case key.Matches(msg, m.keys.Help):
		m.mode = ModeHelp
	}

	return m, nil
}

func (m *Model) handleAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		body := strings.TrimSpace(m.textInput.Value())
		if body == "" {
			return m, nil
		}
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, m.createTodo(body)

	case tea.KeyEsc:
		m.mode = ModeNormal
		m.textInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m *Model) handleHelpMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	m.mode = ModeNormal
	return m, nil
}

func (m *Model) handleConfirmDeleteMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.mode = ModeNormal
		if todo, ok := m.selected(); ok {
			return m, m.deleteTodo(todo.ID)
		}
		return m, nil

	case "n", "N", "esc":
		m.mode = ModeNormal
		return m, nil
	}

	return m, nil
}

// View renders the TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		m.width = 80
		m.height = 24
	}

	switch m.mode {
	case ModeAdd:
		return m.renderAddDialog()
	case ModeHelp:
		return m.renderHelpDialog()
	case ModeConfirmDelete:
		return m.renderConfirmDeleteDialog()
	}

	var b strings.Builder

	title := m.titleStyle.Render("TODAY'S TASKS")
	if _, ok := m.cache.Get(query.KeyTodos); ok && m.loading() {
		title += " " + m.spinner.View()
	}
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(m.renderFilterBar())
	b.WriteString("\n\n")
	b.WriteString(m.renderTodos())

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(m.errorStyle.Render("Error: " + firstLine(m.err.Error())))
		b.WriteString("\n")
		if s, ok := utils.IsSuggestion(m.err); ok {
			b.WriteString(m.helpStyle.Render(s.Suggestion))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())

	return b.String()
}

func (m *Model) renderFilterBar() string {
	active := m.engine.Active()
	parts := make([]string, 0, len(filter.Modes()))
	for _, mode := range filter.Modes() {
		style := lipgloss.NewStyle().Foreground(colorInactive)
		if mode == active {
			style = lipgloss.NewStyle().Bold(true).Foreground(filterColor(mode))
		}
		parts = append(parts, style.Render(mode.Label()))
	}
	return strings.Join(parts, " | ")
}

func filterColor(mode filter.Mode) lipgloss.Color {
	switch mode {
	case filter.Completed:
		return colorCompleted
	case filter.InProgress:
		return colorInProgress
	default:
		return colorAll
	}
}

func (m *Model) renderTodos() string {
	if _, ok := m.cache.Get(query.KeyTodos); !ok && m.loading() {
		return m.spinner.View() + " Loading...\n"
	}

	todos := m.engine.Displayed()
	if len(todos) == 0 {
		return m.emptyStyle.Render("All tasks completed! 🎉") + "\n"
	}

	var b strings.Builder
	for i, todo := range todos {
		cursor := " "
		if i == m.cursor {
			cursor = ">"
		}

		status := "[ ]"
		body := todo.Body
		if todo.Completed {
			status = "[✓]"
			body = m.completedStyle.Render(body)
		} else if i == m.cursor {
			body = m.selectedStyle.Render(body)
		}

		b.WriteString(cursor + " " + status + " " + body + "\n")
	}
	return b.String()
}

func (m *Model) renderStatusBar() string {
	left := fmt.Sprintf("%d shown · filter: %s", len(m.engine.Displayed()), m.engine.Active())
	right := m.help.ShortHelpView(m.keys.ShortHelp())

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return m.statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m *Model) renderAddDialog() string {
	dialog := m.dialogStyle.Render(
		"Add New Task\n\n" +
			m.textInput.View() + "\n\n" +
			m.helpStyle.Render("Enter: add  Esc: cancel"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderHelpDialog() string {
	dialog := m.dialogStyle.Render(
		"Help - Key Bindings\n\n" +
			m.help.FullHelpView(m.keys.FullHelp()) + "\n\n" +
			m.helpStyle.Render("Press any key to close"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) renderConfirmDeleteDialog() string {
	prompt := "Delete selected task?"
	if todo, ok := m.selected(); ok {
		prompt = fmt.Sprintf("Delete %q?", todo.Body)
	}
	dialog := m.dialogStyle.Render(
		prompt + "\n\n" +
			m.helpStyle.Render("y: yes  n: no"),
	)
	return m.centerDialog(dialog)
}

func (m *Model) centerDialog(dialog string) string {
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
