// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Workflow WorkflowConfig `mapstructure:"workflow"`
	Store    StoreConfig    `mapstructure:"store"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// AuthConfig holds the shared secret inbound requests must present.
type AuthConfig struct {
	SharedSecret string `mapstructure:"shared_secret"`
}

// GitHubConfig holds hosting-backend credentials.
type GitHubConfig struct {
	Token   string `mapstructure:"token"`
	Owner   string `mapstructure:"owner"`
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

// LLMConfig holds the text-generation backend selection and credentials.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // "openai" or "anthropic"
	Model    string `mapstructure:"model"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds

	OpenAI struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"openai"`

	Anthropic struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"anthropic"`
}

// SelectedAPIKey returns the API key for the active provider.
func (l LLMConfig) SelectedAPIKey() string {
	if l.Provider == "anthropic" {
		return l.Anthropic.APIKey
	}
	return l.OpenAI.APIKey
}

// WorkflowConfig holds coordinator retry and dispatch settings.
type WorkflowConfig struct {
	MaxRetries   int      `mapstructure:"max_retries"`
	RetryBackoff int      `mapstructure:"retry_backoff"` // milliseconds, doubles per attempt
	Workers      int      `mapstructure:"workers"`
	QueueSize    int      `mapstructure:"queue_size"`
	SiteFiles    []string `mapstructure:"site_files"`
}

func (w WorkflowConfig) Backoff() time.Duration {
	return time.Duration(w.RetryBackoff) * time.Millisecond
}

// StoreConfig selects and configures the workflow status store backend.
type StoreConfig struct {
	Backend   string `mapstructure:"backend"`   // memory | redis | postgres
	Retention int    `mapstructure:"retention"` // seconds, terminal-state TTL where supported

	Redis struct {
		Address  string `mapstructure:"address"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	Postgres struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Database string `mapstructure:"database"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"postgres"`
}

// GetDSN returns the PostgreSQL connection string.
func (s StoreConfig) GetDSN() string {
	p := s.Postgres
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// NotifyConfig holds settings for post-workflow notifications.
type NotifyConfig struct {
	Callback struct {
		MaxRetries int `mapstructure:"max_retries"`
		Timeout    int `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"callback"`

	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`

	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`

	OpsAlert struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"ops_alert"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SecretReport describes which secrets are present without revealing values.
type SecretReport struct {
	SharedSecretSet bool   `json:"secret_key_set"`
	GitHubTokenSet  bool   `json:"github_token_set"`
	LLMProvider     string `json:"llm_provider"`
	LLMAPIKeySet    bool   `json:"llm_api_key_set"`
}

// Secrets reports presence of the mandatory secrets for the health surface.
func (c *Config) Secrets() SecretReport {
	return SecretReport{
		SharedSecretSet: c.Auth.SharedSecret != "",
		GitHubTokenSet:  c.GitHub.Token != "",
		LLMProvider:     c.LLM.Provider,
		LLMAPIKeySet:    c.LLM.SelectedAPIKey() != "",
	}
}

// Validate checks startup-fatal configuration gaps. A missing shared secret or
// hosting token means the process must refuse generation requests; a missing
// provider key for the selected provider is reported the same way but health
// checks stay up either way, so callers decide how hard to fail.
func (c *Config) Validate() error {
	if c.Auth.SharedSecret == "" {
		return fmt.Errorf("auth.shared_secret (SECRET_KEY) is required")
	}
	if c.GitHub.Token == "" {
		return fmt.Errorf("github.token (GITHUB_TOKEN) is required")
	}
	if c.GitHub.Owner == "" {
		return fmt.Errorf("github.owner (GITHUB_USER) is required")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("llm.provider must be openai or anthropic, got %q", c.LLM.Provider)
	}
	return nil
}

// GenerationReady reports whether generation requests can be served, i.e. the
// selected provider has an API key.
func (c *Config) GenerationReady() bool {
	return c.LLM.SelectedAPIKey() != ""
}
