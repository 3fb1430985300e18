package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, env, body string) string {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, env+".yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadFrom_ReadsFileAndDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	dir := writeConfig(t, "test", `
logger:
  level: debug
  format: text
assistant:
  completion_timeout: 3s
  intents:
    - intent: customer
      phrases: ["novo cliente"]
`)

	cfg, v, err := LoadFrom(dir)
	require.NoError(t, err)
	require.NotNil(t, v)

	assert.Equal(t, "test", cfg.AppEnv)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, "text", cfg.Logger.Format)
	assert.Equal(t, 3*time.Second, cfg.Assistant.CompletionTimeout)
	require.Len(t, cfg.Assistant.Intents, 1)
	assert.Equal(t, []string{"novo cliente"}, cfg.Assistant.Intents[0].Phrases)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "polling", cfg.Bot.Mode)
	assert.Equal(t, "mistral-large-latest", cfg.Completion.Model)
	assert.Equal(t, 24*time.Hour, cfg.Conversation.StateTTL)
	assert.Equal(t, "1m", cfg.RateLimit.Messages.Window)
}

func TestLoadFrom_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "nowhere")

	cfg, _, err := LoadFrom(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("SERVER_PORT", "9090")

	dir := writeConfig(t, "test", "server:\n  port: \"8081\"\n")

	cfg, _, err := LoadFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
}

func TestLoadFrom_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{name: "bad log level", body: "logger:\n  level: loud\n"},
		{name: "sentry without dsn", body: "sentry:\n  enabled: true\n"},
		{name: "unknown intent", body: "assistant:\n  intents:\n    - intent: invoice\n      phrases: [\"nova nota\"]\n"},
		{name: "webhook without url", body: "bot:\n  mode: webhook\n"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_ENV", "test")
			dir := writeConfig(t, "test", tc.body)

			_, _, err := LoadFrom(dir)
			assert.Error(t, err)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "oficina"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=oficina sslmode=disable", cfg.DSN())
}
