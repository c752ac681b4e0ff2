package deployctl

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)

	// 32 bytes of unpadded base64url is always 43 characters.
	assert.Len(t, key, 43)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]+$`), key)

	other, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func writeEnvTemplate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	content := "# Deployment\nDOMAIN={{.Domain}}\nBOT_API_URL={{.BotAPIURL}}\nBOT_API_KEY=\nAPP_PASSWORD=changeme\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.example"), []byte(content), 0o644))
	t.Setenv("DEPLOYCTL_TEMPLATES", dir)
}

func TestEnsureDotEnvFirstRun(t *testing.T) {
	writeEnvTemplate(t)

	cfg := NewConfig()
	cfg.InstallDir = t.TempDir()
	cfg.Domain = "dash.example.com"
	cfg.BotAPIURL = "http://127.0.0.1:8000"
	cfg.AppPassword = "hunter2secret"

	created, err := EnsureDotEnv(cfg, logger.Nop())
	require.NoError(t, err)
	assert.True(t, created)

	vars, err := ReadDotEnv(cfg.EnvFilePath())
	require.NoError(t, err)
	assert.Equal(t, "dash.example.com", vars["DOMAIN"])
	assert.Equal(t, "http://127.0.0.1:8000", vars["BOT_API_URL"])
	assert.Len(t, vars["BOT_API_KEY"], 43, "a fresh key is injected")
	assert.Equal(t, "hunter2secret", vars["APP_PASSWORD"])
}

func TestEnsureDotEnvLeavesExistingFile(t *testing.T) {
	writeEnvTemplate(t)

	cfg := NewConfig()
	cfg.InstallDir = t.TempDir()
	cfg.Domain = "dash.example.com"

	created, err := EnsureDotEnv(cfg, logger.Nop())
	require.NoError(t, err)
	require.True(t, created)

	before, err := os.ReadFile(cfg.EnvFilePath())
	require.NoError(t, err)

	created, err = EnsureDotEnv(cfg, logger.Nop())
	require.NoError(t, err)
	assert.False(t, created)

	after, err := os.ReadFile(cfg.EnvFilePath())
	require.NoError(t, err)
	assert.Equal(t, string(before), string(after), "second run must not regenerate the key")
}
