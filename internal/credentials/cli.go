package credentials

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// CLIHandler handles CLI commands for token management
type CLIHandler struct {
	manager *Manager
	stdin   io.Reader
	stdout  io.Writer
	stderr  io.Writer
}

// NewCLIHandler creates a new CLI handler for credential commands
func NewCLIHandler(manager *Manager, stdin io.Reader, stdout, stderr io.Writer) *CLIHandler {
	return &CLIHandler{
		manager: manager,
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
	}
}

// Set prompts for a token and stores it in the keyring
func (h *CLIHandler) Set(ctx context.Context, account string) error {
	token, err := PromptToken(h.stdin, h.stdout, account)
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	if err := h.manager.Set(ctx, account, token); err != nil {
		if errors.Is(err, ErrKeyringNotAvailable) {
			return h.keyringNotAvailableError()
		}
		return fmt.Errorf("failed to store token: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "API token stored in system keyring\n")
	return nil
}

// keyringNotAvailableError explains the environment variable alternative
func (h *CLIHandler) keyringNotAvailableError() error {
	msg := fmt.Sprintf(`System keyring not available on this system.

Alternative: export the token instead:
  export %s="your-api-token"

Run 'todoui credentials get' to verify the token is detected.
`, EnvToken)

	return errors.New(msg)
}

// Get displays where the token for account comes from
func (h *CLIHandler) Get(ctx context.Context, account string, jsonOutput bool) error {
	info, err := h.manager.Get(ctx, account)
	if err != nil {
		return fmt.Errorf("failed to get token: %w", err)
	}

	if jsonOutput {
		jsonBytes, err := info.JSON()
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(h.stdout, string(jsonBytes))
		return nil
	}

	if !info.Found {
		_, _ = fmt.Fprintf(h.stdout, "No API token found for account %s\n", info.Account)
		_, _ = fmt.Fprintf(h.stdout, "Searched:\n")
		_, _ = fmt.Fprintf(h.stdout, "  - System keyring: Not found\n")
		_, _ = fmt.Fprintf(h.stdout, "  - %s: Not set\n", EnvToken)
		_, _ = fmt.Fprintf(h.stdout, "\nSuggestion: Run 'todoui credentials set %s'\n", info.Account)
		return nil
	}

	_, _ = fmt.Fprintf(h.stdout, "Source: %s\n", info.Source)
	_, _ = fmt.Fprintf(h.stdout, "Account: %s\n", info.Account)
	_, _ = fmt.Fprintf(h.stdout, "Token: ******** (hidden)\n")
	_, _ = fmt.Fprintf(h.stdout, "Status: Available\n")
	return nil
}

// Delete removes the token for account from the keyring
func (h *CLIHandler) Delete(ctx context.Context, account string) error {
	if err := h.manager.Delete(ctx, account); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	_, _ = fmt.Fprintf(h.stdout, "API token removed from system keyring\n")
	return nil
}
