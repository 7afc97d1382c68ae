package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is where the runtime config is read from unless overridden.
const DefaultPath = ".ssmdox/config.yaml"

// Config represents the runtime configuration from .ssmdox/config.yaml.
type Config struct {
	Source    string       `yaml:"source"`
	Output    string       `yaml:"output"`
	Exclude   []string     `yaml:"exclude"`
	LogLevel  string       `yaml:"log_level"`
	LogFormat string       `yaml:"log_format"` // "text" or "json"
	State     StateConfig  `yaml:"state"`
	GitHub    GitHubConfig `yaml:"github"`
	Watch     WatchConfig  `yaml:"watch"`
}

// StateConfig controls the build ledger.
type StateConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// GitHubConfig holds settings for drift reports.
type GitHubConfig struct {
	Token  string   `yaml:"token"`
	Repo   string   `yaml:"repo"` // owner/name
	Labels []string `yaml:"labels"`
}

// WatchConfig defines the watch loop settings.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Source:    "ssm_dox",
		Output:    "ssm_docs",
		LogLevel:  "info",
		LogFormat: "text",
		State: StateConfig{
			Path:    ".ssmdox/state.db",
			Enabled: true,
		},
		GitHub: GitHubConfig{
			Labels: []string{"drift"},
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
		},
	}
}

// LoadConfig reads and parses a runtime config YAML file.
// Returns default config if the file doesn't exist. ${VAR} references are
// replaced with environment values before parsing.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	interpolated := interpolateEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks values the YAML types alone cannot constrain.
func (c Config) Validate() error {
	var problems []string
	if c.Source == "" {
		problems = append(problems, "source: must not be empty")
	}
	if c.Output == "" {
		problems = append(problems, "output: must not be empty")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("log_level: unknown level %q", c.LogLevel))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("log_format: unknown format %q", c.LogFormat))
	}
	if c.State.Enabled && c.State.Path == "" {
		problems = append(problems, "state.path: required when state is enabled")
	}
	if c.GitHub.Repo != "" {
		if _, _, err := c.GitHub.OwnerRepo(); err != nil {
			problems = append(problems, "github.repo: "+err.Error())
		}
	}
	if c.Watch.Debounce <= 0 {
		problems = append(problems, "watch.debounce: must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// OwnerRepo splits Repo into its owner and name.
func (g GitHubConfig) OwnerRepo() (string, string, error) {
	owner, name, ok := strings.Cut(g.Repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return "", "", fmt.Errorf("expected owner/name, got %q", g.Repo)
	}
	return owner, name, nil
}

// LoadEnvFile loads KEY=value pairs from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// envVarPattern matches ${VAR_NAME} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnvVars replaces ${VAR_NAME} patterns with environment variable values.
func interpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // Leave unresolved if not set.
	})
}
