// Package config loads the drive-thru service configuration from YAML with
// environment overrides. A missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"drivethru/internal/logging"
)

// DefaultPath is where the CLI looks for a config file when none is given
const DefaultPath = "configs/config.yaml"

// Config represents the application configuration
type Config struct {
	Server          ServerConfig         `yaml:"server"`
	Log             logging.Config       `yaml:"log"`
	LLM             LLMConfig            `yaml:"llm"`
	Menu            MenuConfig           `yaml:"menu"`
	Recommendations RecommendationConfig `yaml:"recommendations"`
	Conversation    ConversationConfig   `yaml:"conversation"`
	Recovery        RecoveryConfig       `yaml:"recovery"`
	SessionLog      SessionLogConfig     `yaml:"session_log"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// LLMConfig selects and tunes the language model backend.
// Provider "none" runs fully offline with the rule-based classifier.
type LLMConfig struct {
	Provider       string        `yaml:"provider"`
	Model          string        `yaml:"model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	APIVersion     string        `yaml:"api_version"`
	Deployment     string        `yaml:"deployment"`
	Temperature    float64       `yaml:"temperature"`
	MaxTokens      int           `yaml:"max_tokens"`
	Timeout        time.Duration `yaml:"timeout"`
}

// MenuConfig tunes the retrieval engine
type MenuConfig struct {
	Embedder          string  `yaml:"embedder"` // "hash" or "llm"
	EmbeddingCache    string  `yaml:"embedding_cache"`
	SemanticThreshold float64 `yaml:"semantic_threshold"`
}

// RecommendationConfig names the items offered by the upsell rules
type RecommendationConfig struct {
	DefaultDrink        string  `yaml:"default_drink"`
	DefaultSide         string  `yaml:"default_side"`
	DefaultMain         string  `yaml:"default_main"`
	ValueCombo          string  `yaml:"value_combo"`
	SmallOrderThreshold float64 `yaml:"small_order_threshold"`
}

// ConversationConfig holds the turn-processing thresholds
type ConversationConfig struct {
	LowConfidenceThreshold float64 `yaml:"low_confidence_threshold"`
	MatchThreshold         float64 `yaml:"match_threshold"`
	ClarifyBelow           float64 `yaml:"clarify_below"`
	MaxConsecutiveErrors   int     `yaml:"max_consecutive_errors"`
	ClassifierAttempts     int     `yaml:"classifier_attempts"`
	HistoryWindow          int     `yaml:"history_window"`
	MaxTurns               int     `yaml:"max_turns"`
}

// RecoveryConfig holds retry and escalation limits
type RecoveryConfig struct {
	MaxRetries          int           `yaml:"max_retries"`
	EscalationThreshold int           `yaml:"escalation_threshold"`
	BaseBackoff         time.Duration `yaml:"base_backoff"`
	MaxBackoff          time.Duration `yaml:"max_backoff"`
}

// SessionLogConfig configures where finished conversations are written
type SessionLogConfig struct {
	Enabled bool   `yaml:"enabled"`
	Driver  string `yaml:"driver"` // "json", "sqlite3" or "postgres"
	Dir     string `yaml:"dir"`
	DSN     string `yaml:"dsn"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, MetricsPort: 9090},
		Log:    logging.Config{Level: "info", Format: "json"},
		LLM: LLMConfig{
			Provider:       "none",
			Model:          "gpt-4o-mini",
			EmbeddingModel: "text-embedding-3-small",
			Temperature:    0.1,
			MaxTokens:      300,
			Timeout:        10 * time.Second,
		},
		Menu: MenuConfig{
			Embedder:          "hash",
			SemanticThreshold: 0.3,
		},
		Recommendations: RecommendationConfig{
			DefaultDrink:        "Baja Blast",
			DefaultSide:         "Nacho Fries",
			DefaultMain:         "Crunchy Taco",
			ValueCombo:          "Cravings Box",
			SmallOrderThreshold: 5.00,
		},
		Conversation: ConversationConfig{
			LowConfidenceThreshold: 0.5,
			MatchThreshold:         0.5,
			ClarifyBelow:           0.7,
			MaxConsecutiveErrors:   3,
			ClassifierAttempts:     3,
			HistoryWindow:          5,
			MaxTurns:               20,
		},
		Recovery: RecoveryConfig{
			MaxRetries:          3,
			EscalationThreshold: 5,
			BaseBackoff:         time.Second,
			MaxBackoff:          10 * time.Second,
		},
		SessionLog: SessionLogConfig{
			Enabled: true,
			Driver:  "json",
			Dir:     "logs",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Defaults only
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &InvalidConfigError{Path: path, Message: err.Error()}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		var invalid *InvalidConfigError
		if errors.As(err, &invalid) {
			invalid.Path = path
		}
		return nil, err
	}

	return cfg, nil
}

// applyEnv overrides selected fields from the environment
func (c *Config) applyEnv() {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("DRIVETHRU_LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("DRIVETHRU_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	unit := map[string]float64{
		"conversation.low_confidence_threshold": c.Conversation.LowConfidenceThreshold,
		"conversation.match_threshold":          c.Conversation.MatchThreshold,
		"conversation.clarify_below":            c.Conversation.ClarifyBelow,
		"menu.semantic_threshold":               c.Menu.SemanticThreshold,
	}
	for name, v := range unit {
		if v < 0 || v > 1 {
			return &InvalidConfigError{Message: fmt.Sprintf("%s must be within [0,1], got %v", name, v)}
		}
	}

	if c.Conversation.ClassifierAttempts < 1 {
		return &InvalidConfigError{Message: "conversation.classifier_attempts must be positive"}
	}
	if c.Conversation.MaxConsecutiveErrors < 1 {
		return &InvalidConfigError{Message: "conversation.max_consecutive_errors must be positive"}
	}
	if c.Recommendations.SmallOrderThreshold < 0 {
		return &InvalidConfigError{Message: "recommendations.small_order_threshold must not be negative"}
	}

	switch c.LLM.Provider {
	case "none", "openai", "azure", "github_models":
	default:
		return &InvalidConfigError{
			Message: fmt.Sprintf("unknown llm.provider %q", c.LLM.Provider),
			Hint:    "use one of none, openai, azure, github_models",
		}
	}

	switch c.Menu.Embedder {
	case "hash", "llm":
	default:
		return &InvalidConfigError{Message: fmt.Sprintf("unknown menu.embedder %q", c.Menu.Embedder)}
	}

	switch c.SessionLog.Driver {
	case "json", "sqlite3", "postgres":
	default:
		return &InvalidConfigError{Message: fmt.Sprintf("unknown session_log.driver %q", c.SessionLog.Driver)}
	}

	return nil
}
