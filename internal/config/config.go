// Package config handles application configuration
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"todoui/internal/filter"
	"todoui/internal/utils"
)

//go:embed config.sample.yaml
var sampleConfig string

// GetSampleConfig returns the embedded sample configuration content
func GetSampleConfig() string {
	return sampleConfig
}

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// DevelopmentBaseURL is the API base used in development mode
const DevelopmentBaseURL = "http://localhost:5000/api"

// Environment variable overrides
const (
	EnvVarEnvironment = "TODOUI_ENV"
	EnvVarAPIURL      = "TODOUI_API_URL"
)

// Defaults
const (
	DefaultTimeout    = "10s"
	DefaultMaxRetries = 3
	DefaultAccount    = "default"
	DefaultFilter     = string(filter.All)
	DefaultStrategy   = filter.StrategyDerived
	DefaultLogLevel   = "info"
	DefaultLogFormat  = "text"
)

// APIConfig holds todos API settings
type APIConfig struct {
	Environment string `yaml:"environment" validate:"oneof=development production"`
	BaseURL     string `yaml:"base_url" validate:"omitempty,url"`
	Timeout     string `yaml:"timeout"`
	MaxRetries  *int   `yaml:"max_retries" validate:"omitempty,gte=0,lte=10"`
	Account     string `yaml:"account" validate:"required,max=64"`
}

// UIConfig holds user interface settings
type UIConfig struct {
	DefaultFilter string `yaml:"default_filter"`
}

// FilterConfig selects the filter engine
type FilterConfig struct {
	Strategy string `yaml:"strategy"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Config represents the application configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	UI      UIConfig      `yaml:"ui"`
	Filter  FilterConfig  `yaml:"filter"`
	Logging LoggingConfig `yaml:"logging"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.API.Environment == "" {
		c.API.Environment = EnvDevelopment
	}
	if c.API.Timeout == "" {
		c.API.Timeout = DefaultTimeout
	}
	if c.API.MaxRetries == nil {
		retries := DefaultMaxRetries
		c.API.MaxRetries = &retries
	}
	if c.API.Account == "" {
		c.API.Account = DefaultAccount
	}
	if c.UI.DefaultFilter == "" {
		c.UI.DefaultFilter = DefaultFilter
	}
	if c.Filter.Strategy == "" {
		c.Filter.Strategy = DefaultStrategy
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(GetCacheDir(), "todoui.log")
	}
}

// applyEnv applies environment variable overrides
func (c *Config) applyEnv() {
	if env := strings.TrimSpace(os.Getenv(EnvVarEnvironment)); env != "" {
		c.API.Environment = strings.ToLower(env)
	}
	if apiURL := strings.TrimSpace(os.Getenv(EnvVarAPIURL)); apiURL != "" {
		c.API.BaseURL = apiURL
	}
}

// Load loads configuration from the specified path, or the default XDG path if empty.
// If the config file doesn't exist, it creates one from the sample.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = DefaultPath()
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a config from YAML bytes, applying defaults and environment overrides
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in config file: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	cfg.Logging.File = ExpandPath(cfg.Logging.File)

	return cfg, nil
}

// save writes the sample configuration to the specified path
func save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

var validate = newValidator()

// newValidator reports fields by their YAML names
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// fieldError turns the first struct validation failure into a config error
func fieldError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += " " + fe.Param()
	}
	return fmt.Errorf("invalid %s: %v (must satisfy %s)", field, fe.Value(), rule)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fieldError(err)
	}

	if c.API.Environment == EnvProduction && strings.TrimSpace(c.API.BaseURL) == "" {
		return utils.ErrBaseURLRequired(EnvProduction)
	}

	timeout, err := time.ParseDuration(c.API.Timeout)
	if err != nil {
		return fmt.Errorf("invalid duration for api.timeout: %q", c.API.Timeout)
	}
	if timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got %q", c.API.Timeout)
	}

	if _, err := filter.ParseMode(c.UI.DefaultFilter); err != nil {
		return err
	}

	switch c.Filter.Strategy {
	case filter.StrategyDerived, filter.StrategySnapshot:
	default:
		return fmt.Errorf("invalid filter.strategy: %q (must be '%s' or '%s')", c.Filter.Strategy, filter.StrategyDerived, filter.StrategySnapshot)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("invalid logging.format: %q (must be 'text', 'json' or 'logfmt')", c.Logging.Format)
	}

	return nil
}

// ApplyFlags applies CLI flag overrides to the configuration
func (c *Config) ApplyFlags(apiURL string) {
	if apiURL != "" {
		c.API.BaseURL = apiURL
	}
}

// ResolveBaseURL returns the API base URL for the configured environment
func (c *Config) ResolveBaseURL() (string, error) {
	if base := strings.TrimSpace(c.API.BaseURL); base != "" {
		return strings.TrimRight(base, "/"), nil
	}
	if c.API.Environment == EnvProduction {
		return "", utils.ErrBaseURLRequired(EnvProduction)
	}
	return DevelopmentBaseURL, nil
}

// GetTimeout returns api.timeout as a duration.
// Returns 10 seconds if unset or invalid.
func (c *Config) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.API.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// GetMaxRetries returns api.max_retries, defaulting to 3
func (c *Config) GetMaxRetries() int {
	if c.API.MaxRetries == nil {
		return DefaultMaxRetries
	}
	return *c.API.MaxRetries
}

// DefaultPath returns the default config file location
func DefaultPath() string {
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// getXDGDir returns a directory path following XDG spec.
// envVar is the XDG environment variable (e.g., "XDG_CONFIG_HOME").
// fallbackPath is the relative path from home (e.g., ".config").
func getXDGDir(envVar, fallbackPath string) string {
	if xdgDir := os.Getenv(envVar); xdgDir != "" {
		return filepath.Join(xdgDir, "todoui")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", fallbackPath, "todoui")
	}
	return filepath.Join(home, fallbackPath, "todoui")
}

// GetConfigDir returns the configuration directory following XDG spec
func GetConfigDir() string {
	return getXDGDir("XDG_CONFIG_HOME", ".config")
}

// GetCacheDir returns the cache directory following XDG spec
func GetCacheDir() string {
	return getXDGDir("XDG_CACHE_HOME", ".cache")
}

// ExpandPath expands ~ and environment variables in a path
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// Marshal renders the effective configuration as YAML
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
