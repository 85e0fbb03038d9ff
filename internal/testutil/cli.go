// Package testutil provides shared test utilities for CLI testing across packages.
// This enables co-located CLI tests while maintaining consistent test infrastructure.
package testutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"todoui/cmd/todoui/cmd"
	"todoui/internal/credentials"
)

// defaultTestConfig is the minimal config used by most test constructors to ensure isolation.
const defaultTestConfig = "# test config\napi:\n  environment: development\n"

// CLITest provides a test helper for running CLI commands in isolation.
type CLITest struct {
	t          *testing.T
	cfg        *cmd.Config
	tmpDir     string
	configPath string
	api        *FakeAPI
	keyring    *credentials.MockKeyring
}

// NewCLITest creates a new CLI test helper backed by an in-memory todos API.
func NewCLITest(t *testing.T) *CLITest {
	t.Helper()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// Keep XDG lookups (log file, default config) inside the test directory
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(tmpDir, "cache"))
	t.Setenv("TODOUI_ENV", "")
	t.Setenv("TODOUI_API_URL", "")
	t.Setenv(credentials.EnvToken, "")

	if err := os.WriteFile(configPath, []byte(defaultTestConfig), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}

	api := NewFakeAPI(t)
	keyring := credentials.NewMockKeyring()

	cfg := &cmd.Config{
		NoPrompt:   true,
		ConfigPath: configPath,
		BaseURL:    api.URL(),
		Keyring:    keyring,
	}

	return &CLITest{
		t:          t,
		cfg:        cfg,
		tmpDir:     tmpDir,
		configPath: configPath,
		api:        api,
		keyring:    keyring,
	}
}

// NewCLITestInteractive creates a CLI test helper with prompts enabled,
// reading prompt answers from input.
func NewCLITestInteractive(t *testing.T, input string) *CLITest {
	t.Helper()

	c := NewCLITest(t)
	c.cfg.NoPrompt = false
	c.cfg.Stdin = strings.NewReader(input)
	return c
}

// Config returns the CLI config for direct manipulation.
func (c *CLITest) Config() *cmd.Config {
	return c.cfg
}

// TmpDir returns the temporary directory used for this test.
func (c *CLITest) TmpDir() string {
	return c.tmpDir
}

// ConfigPath returns the config file path for this test.
func (c *CLITest) ConfigPath() string {
	return c.configPath
}

// API returns the fake todos API the CLI talks to.
func (c *CLITest) API() *FakeAPI {
	return c.api
}

// Keyring returns the in-memory keyring used for tokens.
func (c *CLITest) Keyring() *credentials.MockKeyring {
	return c.keyring
}

// SetFullConfig replaces the config file contents.
func (c *CLITest) SetFullConfig(yamlContent string) {
	c.t.Helper()
	if err := os.WriteFile(c.configPath, []byte(yamlContent), 0644); err != nil {
		c.t.Fatalf("failed to write config: %v", err)
	}
}

// SetStdin replaces the reader used for prompt answers.
func (c *CLITest) SetStdin(r io.Reader) {
	c.cfg.Stdin = r
}

// Execute runs a CLI command and returns stdout, stderr, and exit code.
func (c *CLITest) Execute(args ...string) (stdout, stderr string, exitCode int) {
	c.t.Helper()

	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = cmd.Execute(args, &stdoutBuf, &stderrBuf, c.cfg)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

// MustExecute runs a CLI command and fails the test if exit code is non-zero.
func (c *CLITest) MustExecute(args ...string) string {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode != 0 {
		c.t.Fatalf("expected exit code 0, got %d: stdout=%s stderr=%s", exitCode, stdout, stderr)
	}
	return stdout
}

// ExecuteAndFail runs a CLI command and fails the test if exit code is zero.
func (c *CLITest) ExecuteAndFail(args ...string) (stdout, stderr string) {
	c.t.Helper()

	stdout, stderr, exitCode := c.Execute(args...)
	if exitCode == 0 {
		c.t.Fatalf("expected non-zero exit code, got 0: stdout=%s", stdout)
	}
	return stdout, stderr
}

// AssertContains fails the test if output doesn't contain expected string.
func AssertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// AssertNotContains fails the test if output contains unexpected string.
func AssertNotContains(t *testing.T, output, unexpected string) {
	t.Helper()
	if strings.Contains(output, unexpected) {
		t.Errorf("expected output NOT to contain %q, got:\n%s", unexpected, output)
	}
}

// AssertExitCode fails the test if exit code doesn't match expected.
func AssertExitCode(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("expected exit code %d, got %d", want, got)
	}
}

// AssertResultCode verifies that the output ends with the expected result code.
func AssertResultCode(t *testing.T, output, expectedCode string) {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) == 0 {
		t.Errorf("expected result code %q but output is empty", expectedCode)
		return
	}
	lastLine := strings.TrimSpace(lines[len(lines)-1])
	if lastLine != expectedCode {
		t.Errorf("expected result code %q, got %q\nFull output:\n%s", expectedCode, lastLine, output)
	}
}

// Result code constants for convenience.
const (
	ResultActionCompleted = cmd.ResultActionCompleted
	ResultInfoOnly        = cmd.ResultInfoOnly
	ResultError           = cmd.ResultError
)
