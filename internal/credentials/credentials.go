// Package credentials provides storage and retrieval of the todos API token
// using the OS-native keyring with fallback to an environment variable.
package credentials

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"todoui/internal/utils"
)

const (
	// ServiceName is the keyring service holding API tokens
	ServiceName = "todoui-api"
	// EnvToken is the environment fallback for the API token
	EnvToken = "TODOUI_API_TOKEN"
	// DefaultAccount is used when no account is configured
	DefaultAccount = "default"
)

// Source indicates where a token was retrieved from
type Source string

const (
	SourceKeyring     Source = "keyring"
	SourceEnvironment Source = "environment"
	SourceNone        Source = "none"
)

// TokenInfo contains token information returned by Get()
type TokenInfo struct {
	Source  Source // Where the token came from
	Account string // Keyring account
	Token   string // Never printed
	Found   bool
}

// JSON serializes the token info to JSON (token excluded)
func (t *TokenInfo) JSON() ([]byte, error) {
	output := struct {
		Account string `json:"account"`
		Source  string `json:"source"`
		Found   bool   `json:"found"`
	}{
		Account: t.Account,
		Source:  string(t.Source),
		Found:   t.Found,
	}
	return json.Marshal(output)
}

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, secret string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// Manager handles token operations
type Manager struct {
	keyring Keyring
	getenv  func(string) string
}

// ManagerOption is a functional option for Manager
type ManagerOption func(*Manager)

// WithKeyring sets a custom keyring implementation
func WithKeyring(k Keyring) ManagerOption {
	return func(m *Manager) {
		m.keyring = k
	}
}

// NewManager creates a new credential manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		keyring: &systemKeyring{},
		getenv:  os.Getenv,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// normalizeAccount lowercases the account and applies the default
func normalizeAccount(account string) string {
	account = strings.ToLower(strings.TrimSpace(account))
	if account == "" {
		return DefaultAccount
	}
	return account
}

// Set stores a token in the keyring
func (m *Manager) Set(ctx context.Context, account, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("token must not be empty")
	}
	return m.keyring.Set(ServiceName, normalizeAccount(account), token)
}

// Get retrieves the token from available sources (keyring first, then env var)
func (m *Manager) Get(ctx context.Context, account string) (*TokenInfo, error) {
	account = normalizeAccount(account)

	token, err := m.keyring.Get(ServiceName, account)
	if err == nil && token != "" {
		return &TokenInfo{
			Source:  SourceKeyring,
			Account: account,
			Token:   token,
			Found:   true,
		}, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		utils.Debugf("keyring lookup for %s failed: %v", account, err)
	}

	if envToken := strings.TrimSpace(m.getenv(EnvToken)); envToken != "" {
		return &TokenInfo{
			Source:  SourceEnvironment,
			Account: account,
			Token:   envToken,
			Found:   true,
		}, nil
	}

	return &TokenInfo{
		Source:  SourceNone,
		Account: account,
		Found:   false,
	}, nil
}

// Token returns the resolved token, or "" when none is configured
func (m *Manager) Token(ctx context.Context, account string) string {
	info, err := m.Get(ctx, account)
	if err != nil || !info.Found {
		return ""
	}
	return info.Token
}

// Delete removes a token from the keyring
func (m *Manager) Delete(ctx context.Context, account string) error {
	err := m.keyring.Delete(ServiceName, normalizeAccount(account))
	// Idempotent: return nil if not found
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}

// PromptToken prompts for a token. Input is hidden when reader is a terminal.
func PromptToken(reader io.Reader, writer io.Writer, account string) (string, error) {
	_, _ = fmt.Fprintf(writer, "Enter API token for account %s: ", normalizeAccount(account))

	if f, ok := reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		secret, err := term.ReadPassword(int(f.Fd()))
		_, _ = fmt.Fprintln(writer)
		if err != nil {
			return "", fmt.Errorf("failed to read token: %w", err)
		}
		return strings.TrimSpace(string(secret)), nil
	}

	scanner := bufio.NewScanner(reader)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text()), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("no input received")
}
