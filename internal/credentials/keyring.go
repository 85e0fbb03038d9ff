package credentials

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

var (
	// ErrNotFound is returned when no secret is stored for an account
	ErrNotFound = keyring.ErrNotFound
	// ErrKeyringNotAvailable is returned when the OS has no usable keyring
	ErrKeyringNotAvailable = errors.New("system keyring not available")
)

// MockKeyring is a test implementation of the Keyring interface
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> secret
}

// NewMockKeyring creates a new mock keyring for testing
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// Set stores a secret in the mock keyring
func (m *MockKeyring) Set(service, account, secret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = secret
	return nil
}

// Get retrieves a secret from the mock keyring
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if accounts, ok := m.store[service]; ok {
		if secret, ok := accounts[account]; ok {
			return secret, nil
		}
	}
	return "", ErrNotFound
}

// Delete removes a secret from the mock keyring
func (m *MockKeyring) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accounts, ok := m.store[service]; ok {
		if _, ok := accounts[account]; ok {
			delete(accounts, account)
			return nil
		}
	}
	return ErrNotFound
}

// systemKeyring stores secrets in the OS keyring
// (Secret Service, macOS Keychain, Windows Credential Manager)
type systemKeyring struct{}

func mapKeyringError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, keyring.ErrUnsupportedPlatform):
		return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
	default:
		return err
	}
}

// Set stores a secret in the system keyring
func (s *systemKeyring) Set(service, account, secret string) error {
	return mapKeyringError(keyring.Set(service, account, secret))
}

// Get retrieves a secret from the system keyring
func (s *systemKeyring) Get(service, account string) (string, error) {
	secret, err := keyring.Get(service, account)
	return secret, mapKeyringError(err)
}

// Delete removes a secret from the system keyring
func (s *systemKeyring) Delete(service, account string) error {
	return mapKeyringError(keyring.Delete(service, account))
}
