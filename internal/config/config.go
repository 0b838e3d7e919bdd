package config

import (
	"fmt"
	"hookguard/internal/guard"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	configDir  = ".hookguard"
	yamlConfig = "config.yaml"
	tomlConfig = "config.toml"
)

// Environment overrides.
const (
	EnvProjectDir = "HOOKGUARD_PROJECT_DIR"
	EnvSkipLint   = "HOOKGUARD_SKIP_LINT"
	EnvSkipTests  = "HOOKGUARD_SKIP_TESTS"
)

const (
	DefaultLintTimeout = 60 * time.Second
	DefaultTestTimeout = 5 * time.Minute
)

// Config is the root structure for .hookguard/config.yaml (or config.toml).
type Config struct {
	Guard GuardConfig `yaml:"guard" toml:"guard"`
	Lint  LintConfig  `yaml:"lint" toml:"lint"`
	Tests TestsConfig `yaml:"tests" toml:"tests"`

	path string
}

// GuardConfig holds project rules appended after the built-in catalogue.
type GuardConfig struct {
	Rules []guard.RuleDef `yaml:"rules" toml:"rules"`
}

// LintConfig controls the post-write linters.
type LintConfig struct {
	Disabled []string `yaml:"disabled" toml:"disabled"` // checker names, e.g. "pyright"
	Timeout  string   `yaml:"timeout" toml:"timeout"`
}

// TestsConfig controls the stop-time pytest run.
type TestsConfig struct {
	Disabled bool     `yaml:"disabled" toml:"disabled"`
	Args     []string `yaml:"args" toml:"args"`
	Timeout  string   `yaml:"timeout" toml:"timeout"`
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Load looks for <projectDir>/.hookguard/config.yaml, then config.toml.
// If neither exists, returns nil, nil (caller should use defaults).
func Load(projectDir string) (*Config, error) {
	dir := filepath.Join(projectDir, configDir)
	for _, name := range []string{yamlConfig, tomlConfig} {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		c := &Config{path: path}
		if name == tomlConfig {
			err = toml.Unmarshal(data, c)
		} else {
			err = yaml.Unmarshal(data, c)
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, nil
}

func (c *Config) validate() error {
	if _, err := parseTimeout(c.Lint.Timeout); err != nil {
		return fmt.Errorf("%s: lint.timeout: %w", c.path, err)
	}
	if _, err := parseTimeout(c.Tests.Timeout); err != nil {
		return fmt.Errorf("%s: tests.timeout: %w", c.path, err)
	}
	return nil
}

// GuardRules returns the project rules, or nil for a nil config.
func (c *Config) GuardRules() []guard.RuleDef {
	if c == nil {
		return nil
	}
	return c.Guard.Rules
}

// LintEnabled reports whether the named linter should run.
func (c *Config) LintEnabled(name string) bool {
	if envTrue(EnvSkipLint) {
		return false
	}
	if c == nil {
		return true
	}
	return !slices.ContainsFunc(c.Lint.Disabled, func(d string) bool {
		return strings.EqualFold(strings.TrimSpace(d), name)
	})
}

// TestsEnabled reports whether the stop-time test run is on.
func (c *Config) TestsEnabled() bool {
	if envTrue(EnvSkipTests) {
		return false
	}
	return c == nil || !c.Tests.Disabled
}

// TestArgs returns extra pytest arguments.
func (c *Config) TestArgs() []string {
	if c == nil {
		return nil
	}
	return c.Tests.Args
}

// LintTimeout returns the per-linter timeout.
func (c *Config) LintTimeout() time.Duration {
	if c == nil {
		return DefaultLintTimeout
	}
	return timeoutOr(c.Lint.Timeout, DefaultLintTimeout)
}

// TestTimeout returns the pytest timeout.
func (c *Config) TestTimeout() time.Duration {
	if c == nil {
		return DefaultTestTimeout
	}
	return timeoutOr(c.Tests.Timeout, DefaultTestTimeout)
}

// ProjectDir returns flagVal if set, then $HOOKGUARD_PROJECT_DIR, then cwd
// (the payload's cwd when the runtime provided one), then ".".
func ProjectDir(flagVal, cwd string) string {
	for _, p := range []string{flagVal, os.Getenv(EnvProjectDir), cwd} {
		if p != "" {
			return p
		}
	}
	return "."
}

func parseTimeout(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func timeoutOr(s string, def time.Duration) time.Duration {
	d, err := parseTimeout(s)
	if err != nil || d == 0 {
		return def
	}
	return d
}

func envTrue(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
