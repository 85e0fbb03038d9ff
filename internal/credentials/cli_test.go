package credentials

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

// failingKeyring simulates a host without a keyring
type failingKeyring struct{ MockKeyring }

func (f *failingKeyring) Set(service, account, secret string) error {
	return ErrKeyringNotAvailable
}

func newTestHandler(k Keyring, stdin string) (*CLIHandler, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	h := NewCLIHandler(NewManager(WithKeyring(k)), strings.NewReader(stdin), &stdout, &stderr)
	return h, &stdout
}

func TestCLISet(t *testing.T) {
	mock := NewMockKeyring()
	h, stdout := newTestHandler(mock, "tok-cli\n")

	if err := h.Set(context.Background(), "work"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "API token stored in system keyring") {
		t.Errorf("unexpected output %q", stdout.String())
	}
	if got, _ := mock.Get(ServiceName, "work"); got != "tok-cli" {
		t.Errorf("expected stored token, got %q", got)
	}
}

func TestCLISetKeyringUnavailable(t *testing.T) {
	h, _ := newTestHandler(&failingKeyring{}, "tok\n")

	err := h.Set(context.Background(), "work")
	if err == nil || !strings.Contains(err.Error(), "export TODOUI_API_TOKEN") {
		t.Errorf("expected environment variable guidance, got %v", err)
	}
}

func TestCLISetEmptyToken(t *testing.T) {
	h, _ := newTestHandler(NewMockKeyring(), "\n")
	if err := h.Set(context.Background(), "work"); err == nil {
		t.Error("expected error for empty token")
	}
}

func TestCLIGetText(t *testing.T) {
	t.Setenv(EnvToken, "")
	mock := NewMockKeyring()
	_ = mock.Set(ServiceName, "work", "hidden-token")
	h, stdout := newTestHandler(mock, "")

	if err := h.Get(context.Background(), "work", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "Source: keyring") || !strings.Contains(out, "Status: Available") {
		t.Errorf("unexpected output %q", out)
	}
	if strings.Contains(out, "hidden-token") {
		t.Error("token must never be printed")
	}
}

func TestCLIGetNotFound(t *testing.T) {
	t.Setenv(EnvToken, "")
	h, stdout := newTestHandler(NewMockKeyring(), "")

	if err := h.Get(context.Background(), "", false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "No API token found for account default") {
		t.Errorf("unexpected output %q", stdout.String())
	}
	if !strings.Contains(stdout.String(), "todoui credentials set default") {
		t.Errorf("expected suggestion, got %q", stdout.String())
	}
}

func TestCLIGetJSON(t *testing.T) {
	t.Setenv(EnvToken, "env-token")
	h, stdout := newTestHandler(NewMockKeyring(), "")

	if err := h.Get(context.Background(), "work", true); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !strings.Contains(stdout.String(), `"source":"environment"`) {
		t.Errorf("unexpected JSON %q", stdout.String())
	}
}

func TestCLIDelete(t *testing.T) {
	mock := NewMockKeyring()
	_ = mock.Set(ServiceName, "work", "tok")
	h, stdout := newTestHandler(mock, "")

	if err := h.Delete(context.Background(), "work"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !strings.Contains(stdout.String(), "removed") {
		t.Errorf("unexpected output %q", stdout.String())
	}
	if _, err := mock.Get(ServiceName, "work"); !errors.Is(err, ErrNotFound) {
		t.Error("expected token to be removed")
	}
}
