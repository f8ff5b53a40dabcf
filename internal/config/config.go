// Package config loads pipeline configuration from .scribe/config.yaml and
// the environment. The result is an explicit value threaded into the
// orchestrator; nothing here is module-global state.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ScribeDir is the per-project directory for config and run state.
const ScribeDir = ".scribe"

// Agent roles with per-role model settings.
const (
	RolePlanner  = "planner"
	RoleWriter   = "writer"
	RoleReviewer = "reviewer"
	RoleCritic   = "critic"
	RoleArbiter  = "arbiter"
	RoleVerifier = "verifier"
)

// maxDraftWorkers caps the parallel draft pool regardless of configuration.
const maxDraftWorkers = 6

// ModelSettings selects and tunes a model for one role.
type ModelSettings struct {
	Provider    string  `yaml:"provider"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"apiKey"`
	BaseURL     string  `yaml:"baseURL"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"maxTokens"`
}

// Config is the effective pipeline configuration.
type Config struct {
	Dir             string
	Default         ModelSettings
	Roles           map[string]ModelSettings
	Concurrency     int
	MaxReviewRounds int
	MaxWriteRounds  int
	HistoryLimit    int
}

// rawModelSettings distinguishes unset keys from explicit zero values.
type rawModelSettings struct {
	Provider    *string  `yaml:"provider"`
	Model       *string  `yaml:"model"`
	APIKey      *string  `yaml:"apiKey"`
	BaseURL     *string  `yaml:"baseURL"`
	Temperature *float64 `yaml:"temperature"`
	MaxTokens   *int     `yaml:"maxTokens"`
}

type rawConfig struct {
	Default         rawModelSettings            `yaml:"default"`
	Roles           map[string]rawModelSettings `yaml:"roles"`
	Concurrency     *int                        `yaml:"concurrency"`
	MaxReviewRounds *int                        `yaml:"maxReviewRounds"`
	MaxWriteRounds  *int                        `yaml:"maxWriteRounds"`
	HistoryLimit    *int                        `yaml:"historyLimit"`
}

// Defaults returns the built-in configuration.
func Defaults(dir string) *Config {
	workers := runtime.GOMAXPROCS(0)
	if workers > maxDraftWorkers {
		workers = maxDraftWorkers
	}
	return &Config{
		Dir: dir,
		Default: ModelSettings{
			Provider:    "openai",
			Model:       "gpt-4o",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Roles:           map[string]ModelSettings{},
		Concurrency:     workers,
		MaxReviewRounds: 3,
		MaxWriteRounds:  15,
		HistoryLimit:    50,
	}
}

// Load reads .scribe/config.yaml under dir, layering it over defaults, and
// fills API keys from the environment (a .env file is honored if present).
func Load(dir string) (*Config, error) {
	// Missing .env is fine; explicit environment always works.
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	cfg := Defaults(dir)

	data, err := os.ReadFile(filepath.Join(dir, ScribeDir, "config.yaml"))
	if err != nil {
		if os.IsNotExist(err) {
			cfg.fillKeysFromEnv()
			return cfg, cfg.Validate()
		}
		return nil, err
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config.yaml: %w", err)
	}

	applyRaw(&cfg.Default, raw.Default)
	for role, rawRole := range raw.Roles {
		settings := cfg.Default
		applyRaw(&settings, rawRole)
		cfg.Roles[strings.ToLower(role)] = settings
	}
	if raw.Concurrency != nil {
		cfg.Concurrency = *raw.Concurrency
	}
	if raw.MaxReviewRounds != nil {
		cfg.MaxReviewRounds = *raw.MaxReviewRounds
	}
	if raw.MaxWriteRounds != nil {
		cfg.MaxWriteRounds = *raw.MaxWriteRounds
	}
	if raw.HistoryLimit != nil {
		cfg.HistoryLimit = *raw.HistoryLimit
	}

	cfg.fillKeysFromEnv()
	return cfg, cfg.Validate()
}

// ForRole returns the effective settings for a role, falling back to the
// defaults for anything the role does not override.
func (c *Config) ForRole(role string) ModelSettings {
	if settings, ok := c.Roles[strings.ToLower(role)]; ok {
		return settings
	}
	return c.Default
}

// Validate checks the tunables that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if c.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}
	if c.Concurrency > maxDraftWorkers {
		c.Concurrency = maxDraftWorkers
	}
	if c.MaxReviewRounds <= 0 {
		return fmt.Errorf("maxReviewRounds must be positive, got %d", c.MaxReviewRounds)
	}
	if c.MaxWriteRounds <= 0 {
		return fmt.Errorf("maxWriteRounds must be positive, got %d", c.MaxWriteRounds)
	}
	return nil
}

func (c *Config) fillKeysFromEnv() {
	fill := func(s *ModelSettings) {
		if s.APIKey != "" {
			return
		}
		switch strings.ToLower(s.Provider) {
		case "anthropic":
			s.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		default:
			s.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	fill(&c.Default)
	for role, settings := range c.Roles {
		fill(&settings)
		c.Roles[role] = settings
	}
}

func applyRaw(dst *ModelSettings, raw rawModelSettings) {
	if raw.Provider != nil {
		dst.Provider = *raw.Provider
	}
	if raw.Model != nil {
		dst.Model = *raw.Model
	}
	if raw.APIKey != nil {
		dst.APIKey = *raw.APIKey
	}
	if raw.BaseURL != nil {
		dst.BaseURL = *raw.BaseURL
	}
	if raw.Temperature != nil {
		dst.Temperature = *raw.Temperature
	}
	if raw.MaxTokens != nil {
		dst.MaxTokens = *raw.MaxTokens
	}
}
