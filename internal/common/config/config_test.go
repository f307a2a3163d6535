package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Auth.SharedSecret = "s3cret"
	cfg.GitHub.Token = "gh-token"
	cfg.GitHub.Owner = "octocat"
	cfg.LLM.Provider = "openai"
	cfg.LLM.OpenAI.APIKey = "sk-test"
	return cfg
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	cfg := validConfig()
	cfg.Auth.SharedSecret = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SECRET_KEY")

	cfg = validConfig()
	cfg.GitHub.Token = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN")

	cfg = validConfig()
	cfg.GitHub.Owner = ""
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.LLM.Provider = "cohere"
	assert.Error(t, cfg.Validate())

	cfg = validConfig()
	cfg.LLM.Provider = "anthropic"
	assert.NoError(t, cfg.Validate())
}

func TestSelectedAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.OpenAI.APIKey = "sk-openai"
	cfg.LLM.Anthropic.APIKey = "sk-ant"

	assert.Equal(t, "sk-openai", cfg.LLM.SelectedAPIKey())
	cfg.LLM.Provider = "anthropic"
	assert.Equal(t, "sk-ant", cfg.LLM.SelectedAPIKey())
}

func TestGenerationReady(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.GenerationReady())

	cfg.LLM.OpenAI.APIKey = ""
	assert.False(t, cfg.GenerationReady())

	// Key for the inactive provider does not count.
	cfg.LLM.Anthropic.APIKey = "sk-ant"
	assert.False(t, cfg.GenerationReady())
}

func TestSecrets(t *testing.T) {
	cfg := validConfig()
	report := cfg.Secrets()
	assert.True(t, report.SharedSecretSet)
	assert.True(t, report.GitHubTokenSet)
	assert.True(t, report.LLMAPIKeySet)
	assert.Equal(t, "openai", report.LLMProvider)

	cfg.GitHub.Token = ""
	assert.False(t, cfg.Secrets().GitHubTokenSet)
}

func TestGetDSN(t *testing.T) {
	cfg := StoreConfig{}
	cfg.Postgres.Host = "db.internal"
	cfg.Postgres.Port = 5432
	cfg.Postgres.Database = "autosite"
	cfg.Postgres.User = "svc"
	cfg.Postgres.Password = "pw"
	cfg.Postgres.SSLMode = "require"

	assert.Equal(t,
		"host=db.internal port=5432 user=svc password=pw dbname=autosite sslmode=require",
		cfg.GetDSN())
}

func TestWorkflowBackoff(t *testing.T) {
	w := WorkflowConfig{RetryBackoff: 500}
	assert.Equal(t, "500ms", w.Backoff().String())
}
