package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestLoadFrom_FileEnvAndDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "config.yaml", `
security:
  jwt:
    secret: ${TEST_JWT_SECRET:fallback-secret}
assistant:
  usage:
    limit: 5
`)
	writeFile(t, dir, "config.staging.yaml", `
assistant:
  chapter:
    max_outline_pages: 3
`)
	t.Setenv("APP_ENV", "staging")
	t.Setenv("TEST_JWT_SECRET", "from-env")
	t.Setenv("ASSISTANT_PAGE_MAX_PER_CHAPTER", "12")

	cfg, err := LoadFrom(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Security.JWT.Secret)
	assert.Equal(t, 5, cfg.Assistant.Usage.Limit)
	assert.Equal(t, time.Hour, cfg.Assistant.Usage.Window)
	assert.Equal(t, 3, cfg.Assistant.Chapter.MaxOutlinePages)
	assert.Equal(t, 12, cfg.Assistant.Page.MaxPerChapter)
	assert.Equal(t, 1600, cfg.Assistant.Classifier.AnswerChars)
	assert.Equal(t, "openai", cfg.LLM.DefaultProvider)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.HTTP.Addr())
}

func TestLoadFrom_RequiresSecret(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APP_ENV", "test")

	_, err := LoadFrom(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "security.jwt.secret")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("EXPAND_SET", "v")

	tests := []struct {
		in   string
		want string
	}{
		{"a: ${EXPAND_SET}", "a: v"},
		{"a: ${EXPAND_SET:d}", "a: v"},
		{"a: ${EXPAND_UNSET_XYZ:d}", "a: d"},
		{"a: ${EXPAND_UNSET_XYZ:}", "a: "},
		{"a: ${EXPAND_UNSET_XYZ}", "a: ${EXPAND_UNSET_XYZ}"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}
