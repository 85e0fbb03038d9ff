package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"todoui/backend"
	"todoui/backend/rest"
	"todoui/internal/cli/prompt"
	"todoui/internal/config"
	"todoui/internal/credentials"
	"todoui/internal/filter"
	"todoui/internal/query"
	"todoui/internal/shutdown"
	"todoui/internal/tui"
	"todoui/internal/utils"
)

// Version is set at build time
var Version = "dev"

// Result codes for CLI output (used in no-prompt mode)
const (
	ResultActionCompleted = "ACTION_COMPLETED"
	ResultInfoOnly        = "INFO_ONLY"
	ResultError           = "ERROR"
)

// Config holds application configuration
type Config struct {
	NoPrompt   bool
	Verbose    bool
	ConfigPath string              // Path to config file (for testing)
	BaseURL    string              // Overrides api.base_url (for testing)
	Keyring    credentials.Keyring // Token storage (for testing)
	Stdin      io.Reader           // Prompt input, defaults to os.Stdin
	Shutdown   *shutdown.Manager   // Receives cleanups that must survive an interrupt
}

// Execute runs the CLI with the given arguments and IO writers
func Execute(args []string, stdout, stderr io.Writer, cfg *Config) int {
	return ExecuteContext(context.Background(), args, stdout, stderr, cfg)
}

// ExecuteContext runs the CLI, cancelling in-flight requests when ctx is done
func ExecuteContext(ctx context.Context, args []string, stdout, stderr io.Writer, cfg *Config) int {
	rootCmd := NewTodoUI(stdout, stderr, cfg)

	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if containsJSONFlag(args) {
			outputErrorJSON(err, stdout)
		} else {
			_, _ = fmt.Fprintln(stderr, "Error:", err)
			if cfg != nil && cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultError)
			}
		}
		return 1
	}
	return 0
}

// containsJSONFlag checks if args contain --json flag
func containsJSONFlag(args []string) bool {
	for _, arg := range args {
		if arg == "--json" {
			return true
		}
	}
	return false
}

// NewTodoUI creates the root command with injectable IO
func NewTodoUI(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	if cfg == nil {
		cfg = &Config{}
	}

	cmd := &cobra.Command{
		Use:     "todoui",
		Short:   "A to-do list client",
		Long:    "todoui shows and edits the task list served by a todos API, interactively or from scripts.",
		Version: Version,
		Args:    cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			noPrompt, _ := cmd.Flags().GetBool("no-prompt")
			if noPrompt {
				cfg.NoPrompt = true
			}
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				cfg.Verbose = true
			}
			logger := utils.GetLogger()
			logger.SetOutput(stderr)
			logger.SetVerbose(cfg.Verbose)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if isTerminal(stdout) {
				return runTUI(cmd, stdout, cfg)
			}
			return runList(cmd, stdout, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cmd.PersistentFlags().BoolP("no-prompt", "y", false, "Disable interactive prompts")
	cmd.PersistentFlags().BoolP("verbose", "V", false, "Enable verbose/debug output")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().String("config", "", "Path to config file")
	cmd.PersistentFlags().String("api-url", "", "Todos API base URL (overrides api.base_url)")

	cmd.Flags().StringP("filter", "f", "", "Initial filter (all, completed, in-progress)")

	cmd.AddCommand(newTUICmd(stdout, cfg))
	cmd.AddCommand(newListCmd(stdout, cfg))
	cmd.AddCommand(newAddCmd(stdout, cfg))
	cmd.AddCommand(newCompletionCmd(stdout, cfg, "done", true))
	cmd.AddCommand(newCompletionCmd(stdout, cfg, "undo", false))
	cmd.AddCommand(newDeleteCmd(stdout, cfg))
	cmd.AddCommand(newConfigCmd(stdout, cfg))
	cmd.AddCommand(newCredentialsCmd(stdout, stderr, cfg))
	cmd.AddCommand(newVersionCmd(stdout))

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func stdinFor(cfg *Config) io.Reader {
	if cfg.Stdin != nil {
		return cfg.Stdin
	}
	return os.Stdin
}

func configPath(cmd *cobra.Command, cfg *Config) string {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path
	}
	if cfg.ConfigPath != "" {
		return cfg.ConfigPath
	}
	return config.DefaultPath()
}

// loadConfig reads, overrides and validates the config file, then applies
// its logging settings
func loadConfig(cmd *cobra.Command, cfg *Config) (*config.Config, error) {
	appConfig, err := config.Load(configPath(cmd, cfg))
	if err != nil {
		return nil, err
	}

	appConfig.ApplyFlags(cfg.BaseURL)
	apiURL, _ := cmd.Flags().GetString("api-url")
	appConfig.ApplyFlags(apiURL)

	if err := appConfig.Validate(); err != nil {
		return nil, err
	}

	logger := utils.GetLogger()
	logger.SetLevel(appConfig.Logging.Level)
	logger.SetFormat(appConfig.Logging.Format)
	return appConfig, nil
}

func newManager(cfg *Config) *credentials.Manager {
	if cfg.Keyring != nil {
		return credentials.NewManager(credentials.WithKeyring(cfg.Keyring))
	}
	return credentials.NewManager()
}

// session bundles what a todo command needs
type session struct {
	config  *config.Config
	store   *rest.Backend
	account string
	hasAuth bool
}

func openSession(cmd *cobra.Command, cfg *Config) (*session, error) {
	appConfig, err := loadConfig(cmd, cfg)
	if err != nil {
		return nil, err
	}

	baseURL, err := appConfig.ResolveBaseURL()
	if err != nil {
		return nil, err
	}

	account := appConfig.API.Account
	token := newManager(cfg).Token(cmd.Context(), account)

	retries := appConfig.GetMaxRetries()
	store, err := rest.New(rest.Config{
		BaseURL:    baseURL,
		Token:      token,
		Timeout:    appConfig.GetTimeout(),
		MaxRetries: &retries,
	})
	if err != nil {
		return nil, err
	}

	utils.GetLogger().With("base_url", baseURL, "account", account).Debug("todos API session opened")
	return &session{config: appConfig, store: store, account: account, hasAuth: token != ""}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// explain turns an authentication failure without any stored token into a
// pointer at the credentials command
func (s *session) explain(err error) error {
	if err == nil || s.hasAuth {
		return err
	}
	if errors.Is(err, utils.ErrAuthentication) {
		return utils.ErrCredentialsNotFound(s.account)
	}
	return err
}

// fetchTodos loads the list through the query cache so failures surface as
// an explicit outcome
func (s *session) fetchTodos(ctx context.Context) ([]backend.Todo, *query.Cache, error) {
	cache := query.New()
	result := cache.Fetch(ctx, query.KeyTodos, s.store.ListTodos)
	if result.Outcome() == query.OutcomeError {
		return nil, nil, s.explain(result.Err)
	}
	return result.Todos, cache, nil
}

// newTUICmd creates the 'tui' subcommand
func newTUICmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Launch the interactive list view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, stdout, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("filter", "f", "", "Initial filter (all, completed, in-progress)")
	return cmd
}

func initialFilter(cmd *cobra.Command, appConfig *config.Config) (filter.Mode, error) {
	name, _ := cmd.Flags().GetString("filter")
	if name == "" {
		name = appConfig.UI.DefaultFilter
	}
	return filter.ParseMode(name)
}

func runTUI(cmd *cobra.Command, stdout io.Writer, cfg *Config) error {
	s, err := openSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	mode, err := initialFilter(cmd, s.config)
	if err != nil {
		return err
	}

	cache := query.New()
	engine, err := filter.NewEngine(s.config.Filter.Strategy, cache)
	if err != nil {
		return err
	}

	// The list view owns the terminal, so logs go to the file until it exits
	sink, err := utils.GetLogger().RedirectToFile(s.config.Logging.File)
	if err != nil {
		return err
	}
	defer func() { _ = sink.Close() }()
	if cfg.Shutdown != nil {
		cfg.Shutdown.RegisterCleanup("log-file", func(ctx context.Context) error {
			return sink.Close()
		})
	}

	ctx := cmd.Context()
	model := tui.New(s.store,
		tui.WithContext(ctx),
		tui.WithCache(cache),
		tui.WithEngine(engine),
		tui.WithFilter(mode),
	)

	utils.Debugf("starting list view (strategy %s, filter %s)", s.config.Filter.Strategy, mode)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(stdinFor(cfg)),
		tea.WithOutput(stdout),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("list view failed: %w", err)
	}
	return nil
}

// newListCmd creates the 'list' subcommand
func newListCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the task list",
		Long:  "Fetch the task list and print the todos matching the filter.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, stdout, cfg)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringP("filter", "f", "", "Filter to apply (all, completed, in-progress)")
	return cmd
}

func runList(cmd *cobra.Command, stdout io.Writer, cfg *Config) error {
	s, err := openSession(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = s.Close() }()

	mode, err := initialFilter(cmd, s.config)
	if err != nil {
		return err
	}

	_, cache, err := s.fetchTodos(cmd.Context())
	if err != nil {
		return err
	}

	engine := filter.NewDerived(cache)
	engine.Select(mode)
	todos := engine.Displayed()

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return outputListJSON(stdout, mode, todos)
	}

	renderList(stdout, mode, todos)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
	}
	return nil
}

func renderList(w io.Writer, mode filter.Mode, todos []backend.Todo) {
	r := lipgloss.NewRenderer(w)
	header := r.NewStyle().Bold(true)
	done := r.NewStyle().Strikethrough(true).Faint(true)
	empty := r.NewStyle().Foreground(lipgloss.Color("#38A169"))

	_, _ = fmt.Fprintln(w, header.Render(fmt.Sprintf("Today's Tasks (filter: %s)", mode)))
	if len(todos) == 0 {
		_, _ = fmt.Fprintln(w, empty.Render("All tasks completed! 🎉"))
		return
	}
	for _, t := range todos {
		if t.Completed {
			_, _ = fmt.Fprintf(w, "[✓] %d  %s\n", t.ID, done.Render(t.Body))
			continue
		}
		_, _ = fmt.Fprintf(w, "[ ] %d  %s\n", t.ID, t.Body)
	}
}

// newAddCmd creates the 'add' subcommand
func newAddCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "add [task text...]",
		Short: "Add a task",
		Long:  "Create a task. Without text, prompts for it unless --no-prompt is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			body := strings.TrimSpace(strings.Join(args, " "))
			if body == "" {
				if cfg.NoPrompt {
					return utils.ErrEmptyBody(backend.ErrEmptyBody)
				}
				var err error
				body, err = (&prompt.BodyPrompt{Reader: stdinFor(cfg), Writer: stdout}).Run()
				if err != nil {
					return err
				}
			}

			s, err := openSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			todo, err := s.store.CreateTodo(cmd.Context(), body)
			if err != nil {
				if errors.Is(err, backend.ErrEmptyBody) {
					return utils.ErrEmptyBody(err)
				}
				return s.explain(err)
			}

			utils.Debugf("created todo %d", todo.ID)
			return outputAction(cmd, stdout, cfg, "add", *todo, fmt.Sprintf("Created task #%d: %s", todo.ID, todo.Body))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// resolveTodo finds the todo named by the id argument, or lets the user
// pick one when no argument is given
func resolveTodo(cmd *cobra.Command, stdout io.Writer, cfg *Config, s *session, args []string, action string) (*backend.Todo, error) {
	todos, _, err := s.fetchTodos(cmd.Context())
	if err != nil {
		return nil, err
	}

	if len(args) == 0 {
		selector := &prompt.TodoSelector{
			Todos:    prompt.FilterTodosByAction(todos, action),
			Prompt:   fmt.Sprintf("Select task to %s:", action),
			Reader:   stdinFor(cfg),
			Writer:   stdout,
			NoPrompt: cfg.NoPrompt,
		}
		todo, err := selector.Run()
		if errors.Is(err, prompt.ErrNoPromptMode) {
			return nil, utils.WrapWithSuggestion(errors.New("task id required"), fmt.Sprintf("Run 'todoui %s ID'; ids are shown by 'todoui list'", action))
		}
		return todo, err
	}

	id, err := utils.ParseTodoID(args[0])
	if err != nil {
		return nil, err
	}
	todo := backend.FindTodo(todos, id)
	if todo == nil {
		return nil, utils.ErrTodoNotFound(id)
	}
	return todo, nil
}

// newCompletionCmd creates the 'done' and 'undo' subcommands
func newCompletionCmd(stdout io.Writer, cfg *Config, action string, completed bool) *cobra.Command {
	short := "Mark a task as completed"
	verb := "Completed"
	state := "completed"
	if !completed {
		short = "Mark a task as in progress"
		verb = "Reopened"
		state = "in progress"
	}

	return &cobra.Command{
		Use:   action + " [id]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			todo, err := resolveTodo(cmd, stdout, cfg, s, args, action)
			if err != nil {
				return err
			}

			if todo.Completed == completed {
				return outputInfo(cmd, stdout, cfg, action, *todo, fmt.Sprintf("Task #%d is already %s", todo.ID, state))
			}

			if err := s.store.UpdateTodo(cmd.Context(), todo.ID, completed); err != nil {
				return s.explain(err)
			}
			todo.Completed = completed

			utils.Debugf("%s todo %d", strings.ToLower(verb), todo.ID)
			return outputAction(cmd, stdout, cfg, action, *todo, fmt.Sprintf("%s task #%d: %s", verb, todo.ID, todo.Body))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newDeleteCmd creates the 'delete' subcommand
func newDeleteCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			todo, err := resolveTodo(cmd, stdout, cfg, s, args, "delete")
			if err != nil {
				return err
			}

			confirm := &prompt.Confirm{
				Question: fmt.Sprintf("Delete %q?", todo.Body),
				Reader:   stdinFor(cfg),
				Writer:   stdout,
				NoPrompt: cfg.NoPrompt,
			}
			ok, err := confirm.Run()
			if err != nil {
				return err
			}
			if !ok {
				return outputInfo(cmd, stdout, cfg, "delete", *todo, "Cancelled")
			}

			if err := s.store.DeleteTodo(cmd.Context(), todo.ID); err != nil {
				return s.explain(err)
			}

			utils.Debugf("deleted todo %d", todo.ID)
			return outputAction(cmd, stdout, cfg, "delete", *todo, fmt.Sprintf("Deleted task #%d: %s", todo.ID, todo.Body))
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// newConfigCmd creates the 'config' subcommand
func newConfigCmd(stdout io.Writer, cfg *Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintln(stdout, configPath(cmd, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			appConfig, err := config.Load(configPath(cmd, cfg))
			if err != nil {
				return err
			}
			appConfig.ApplyFlags(cfg.BaseURL)
			apiURL, _ := cmd.Flags().GetString("api-url")
			appConfig.ApplyFlags(apiURL)

			data, err := appConfig.Marshal()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(stdout, string(data))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := loadConfig(cmd, cfg); err != nil {
				return err
			}
			path := configPath(cmd, cfg)
			jsonOutput, _ := cmd.Flags().GetBool("json")
			if jsonOutput {
				return writeJSON(stdout, struct {
					Path   string `json:"path"`
					Valid  bool   `json:"valid"`
					Result string `json:"result"`
				}{path, true, ResultInfoOnly})
			}
			_, _ = fmt.Fprintf(stdout, "Configuration is valid: %s\n", path)
			if cfg.NoPrompt {
				_, _ = fmt.Fprintln(stdout, ResultInfoOnly)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return configCmd
}

// newCredentialsCmd creates the 'credentials' subcommand for token management
func newCredentialsCmd(stdout, stderr io.Writer, cfg *Config) *cobra.Command {
	credentialsCmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage the API token",
		Long:  "Store, inspect and remove the todos API token kept in the system keyring.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	account := func(cmd *cobra.Command, args []string) (string, error) {
		if len(args) > 0 {
			return args[0], nil
		}
		appConfig, err := loadConfig(cmd, cfg)
		if err != nil {
			return "", err
		}
		return appConfig.API.Account, nil
	}

	credentialsCmd.AddCommand(&cobra.Command{
		Use:   "set [account]",
		Short: "Store the API token in the system keyring",
		Long:  "Prompt for the API token and store it in the system keyring (macOS Keychain, Windows Credential Manager, or Linux Secret Service).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := account(cmd, args)
			if err != nil {
				return err
			}
			handler := credentials.NewCLIHandler(newManager(cfg), stdinFor(cfg), stdout, stderr)
			return handler.Set(cmd.Context(), name)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	credentialsCmd.AddCommand(&cobra.Command{
		Use:   "get [account]",
		Short: "Show where the API token comes from",
		Long:  "Look up the API token (keyring, then TODOUI_API_TOKEN) and display its source. The token itself is never printed.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := account(cmd, args)
			if err != nil {
				return err
			}
			jsonOutput, _ := cmd.Flags().GetBool("json")
			handler := credentials.NewCLIHandler(newManager(cfg), nil, stdout, stderr)
			return handler.Get(cmd.Context(), name, jsonOutput)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	credentialsCmd.AddCommand(&cobra.Command{
		Use:   "delete [account]",
		Short: "Remove the API token from the system keyring",
		Long:  "Remove the stored API token. TODOUI_API_TOKEN is not affected.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := account(cmd, args)
			if err != nil {
				return err
			}
			handler := credentials.NewCLIHandler(newManager(cfg), nil, stdout, stderr)
			return handler.Delete(cmd.Context(), name)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	})

	return credentialsCmd
}

// newVersionCmd creates the 'version' subcommand
func newVersionCmd(stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			details, _ := cmd.Flags().GetBool("details")
			_, _ = fmt.Fprintf(stdout, "todoui version %s\n", Version)
			if details {
				_, _ = fmt.Fprintf(stdout, "go: %s\n", runtime.Version())
				_, _ = fmt.Fprintf(stdout, "platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolP("details", "v", false, "Include build details")
	return cmd
}

// JSON output types

type todoJSON struct {
	ID        int    `json:"id"`
	Body      string `json:"body"`
	Completed bool   `json:"completed"`
}

type listTodosResponse struct {
	Filter string     `json:"filter"`
	Todos  []todoJSON `json:"todos"`
	Count  int        `json:"count"`
	Result string     `json:"result"`
}

type actionResponse struct {
	Action  string   `json:"action"`
	Todo    todoJSON `json:"todo"`
	Message string   `json:"message"`
	Result  string   `json:"result"`
}

type errorResponse struct {
	Error  string `json:"error"`
	Code   int    `json:"code"`
	Result string `json:"result"`
}

func todoToJSON(t backend.Todo) todoJSON {
	return todoJSON{ID: t.ID, Body: t.Body, Completed: t.Completed}
}

func writeJSON(w io.Writer, v interface{}) error {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, string(jsonBytes))
	return nil
}

func outputListJSON(stdout io.Writer, mode filter.Mode, todos []backend.Todo) error {
	response := listTodosResponse{
		Filter: string(mode),
		Todos:  make([]todoJSON, 0, len(todos)),
		Count:  len(todos),
		Result: ResultInfoOnly,
	}
	for _, t := range todos {
		response.Todos = append(response.Todos, todoToJSON(t))
	}
	return writeJSON(stdout, response)
}

func outputAction(cmd *cobra.Command, stdout io.Writer, cfg *Config, action string, todo backend.Todo, message string) error {
	return outputResult(cmd, stdout, cfg, action, todo, message, ResultActionCompleted)
}

func outputInfo(cmd *cobra.Command, stdout io.Writer, cfg *Config, action string, todo backend.Todo, message string) error {
	return outputResult(cmd, stdout, cfg, action, todo, message, ResultInfoOnly)
}

func outputResult(cmd *cobra.Command, stdout io.Writer, cfg *Config, action string, todo backend.Todo, message, result string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		return writeJSON(stdout, actionResponse{
			Action:  action,
			Todo:    todoToJSON(todo),
			Message: message,
			Result:  result,
		})
	}

	_, _ = fmt.Fprintln(stdout, message)
	if cfg.NoPrompt {
		_, _ = fmt.Fprintln(stdout, result)
	}
	return nil
}

// outputErrorJSON outputs error in JSON format
func outputErrorJSON(err error, stdout io.Writer) {
	_ = writeJSON(stdout, errorResponse{
		Error:  err.Error(),
		Code:   1,
		Result: ResultError,
	})
}
