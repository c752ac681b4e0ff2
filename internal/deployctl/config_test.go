package deployctl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr string
	}{
		{
			name:   "complete config",
			mutate: func(cfg *Config) { cfg.Domain = "dash.example.com" },
		},
		{
			name:    "missing domain",
			mutate:  func(cfg *Config) {},
			wantErr: "domain is required",
		},
		{
			name: "missing repo",
			mutate: func(cfg *Config) {
				cfg.Domain = "dash.example.com"
				cfg.RepoURL = "  "
			},
			wantErr: "repo URL is required",
		},
		{
			name: "missing branch",
			mutate: func(cfg *Config) {
				cfg.Domain = "dash.example.com"
				cfg.Branch = ""
			},
			wantErr: "branch is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestReadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"# Deployment settings",
		"",
		"DOMAIN=dash.example.com",
		"BOT_API_URL=\"http://127.0.0.1:8000\"",
		"EMPTY=",
		"not a pair",
		"  SPACED = value  ",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o640))

	vars, err := ReadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "dash.example.com", vars["DOMAIN"])
	assert.Equal(t, "http://127.0.0.1:8000", vars["BOT_API_URL"], "quotes are trimmed")
	assert.Equal(t, "", vars["EMPTY"])
	assert.Equal(t, "value", vars["SPACED"])
	assert.NotContains(t, vars, "not a pair")
}

func TestWriteDotEnvPreservesLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	original := strings.Join([]string{
		"# API settings",
		"BOT_API_KEY=",
		"",
		"# App settings",
		"APP_PASSWORD=changeme",
		"DB_PATH=data/dashboard.db",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(original), 0o640))

	err := WriteDotEnv(path, map[string]string{
		"BOT_API_KEY": "secret123",
		"NEW_KEY":     "added",
	})
	require.NoError(t, err)

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")

	assert.Equal(t, "# API settings", lines[0], "comments stay in place")
	assert.Equal(t, "BOT_API_KEY=secret123", lines[1])
	assert.Equal(t, "", lines[2], "blank lines survive")
	assert.Equal(t, "# App settings", lines[3])
	assert.Equal(t, "APP_PASSWORD=changeme", lines[4], "untouched keys keep their value")
	assert.Equal(t, "DB_PATH=data/dashboard.db", lines[5])
	assert.Equal(t, "NEW_KEY=added", lines[6], "unknown keys are appended")
}

func TestWriteDotEnvCreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	require.NoError(t, WriteDotEnv(path, map[string]string{"DOMAIN": "dash.example.com"}))

	vars, err := ReadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "dash.example.com", vars["DOMAIN"])
}

func TestProfileRoundtrip(t *testing.T) {
	dir := t.TempDir()

	saved := NewConfig()
	saved.InstallDir = dir
	saved.Domain = "dash.example.com"
	saved.BotAPIURL = "http://127.0.0.1:8000"
	saved.Email = "ops@example.com"
	saved.Branch = "release"
	require.NoError(t, saved.SaveProfile())

	loaded := NewConfig()
	loaded.InstallDir = dir
	require.NoError(t, loaded.LoadProfile())

	assert.Equal(t, "dash.example.com", loaded.Domain)
	assert.Equal(t, "http://127.0.0.1:8000", loaded.BotAPIURL)
	assert.Equal(t, "ops@example.com", loaded.Email)
	assert.Equal(t, "release", loaded.Branch, "profile overrides the default branch")
}

func TestLoadProfileFlagsWin(t *testing.T) {
	dir := t.TempDir()

	saved := NewConfig()
	saved.InstallDir = dir
	saved.Domain = "old.example.com"
	saved.Branch = "release"
	require.NoError(t, saved.SaveProfile())

	cfg := NewConfig()
	cfg.InstallDir = dir
	cfg.Domain = "new.example.com"
	cfg.Branch = "hotfix"
	require.NoError(t, cfg.LoadProfile())

	assert.Equal(t, "new.example.com", cfg.Domain)
	assert.Equal(t, "hotfix", cfg.Branch)
}

func TestLoadProfileMissingFile(t *testing.T) {
	cfg := NewConfig()
	cfg.InstallDir = t.TempDir()
	assert.NoError(t, cfg.LoadProfile())
}

func TestHydrateFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	cfg := NewConfig()
	cfg.InstallDir = dir

	env := "DOMAIN=dash.example.com\nBOT_API_URL=http://127.0.0.1:8000\n"
	require.NoError(t, os.WriteFile(cfg.EnvFilePath(), []byte(env), 0o640))

	require.NoError(t, HydrateFromDotEnv(&cfg))
	assert.Equal(t, "dash.example.com", cfg.Domain)
	assert.Equal(t, "http://127.0.0.1:8000", cfg.BotAPIURL)

	cfg.Domain = "explicit.example.com"
	require.NoError(t, HydrateFromDotEnv(&cfg))
	assert.Equal(t, "explicit.example.com", cfg.Domain, "explicit values are not overwritten")
}

func TestInstallDirOverride(t *testing.T) {
	t.Setenv("DEPLOYCTL_INSTALL_DIR", "/srv/dashboard")
	assert.Equal(t, "/srv/dashboard", GetInstallDir())

	t.Setenv("DEPLOYCTL_INSTALL_DIR", "")
	assert.Equal(t, defaultInstallDir, GetInstallDir())
}
