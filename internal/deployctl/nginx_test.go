package deployctl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

func TestEnsureRateLimitZone(t *testing.T) {
	mainConf := "user www-data;\nevents {\n}\nhttp {\n\tinclude mime.types;\n}\n"

	got, changed := ensureRateLimitZone(mainConf)
	require.True(t, changed)
	assert.Equal(t, 1, strings.Count(got, "zone=botapi:"))

	lines := strings.Split(got, "\n")
	var httpIdx int
	for i, line := range lines {
		if strings.TrimSpace(line) == "http {" {
			httpIdx = i
		}
	}
	assert.Contains(t, lines[httpIdx+1], "limit_req_zone", "declaration goes right after the http block opens")

	// A second pass must not add a duplicate.
	again, changed := ensureRateLimitZone(got)
	assert.False(t, changed)
	assert.Equal(t, got, again)
}

func TestEnsureRateLimitZoneNoHTTPBlock(t *testing.T) {
	content := "events {\n}\n"
	got, changed := ensureRateLimitZone(content)
	assert.False(t, changed)
	assert.Equal(t, content, got)
}

func TestStripRateLimitZones(t *testing.T) {
	site := strings.Join([]string{
		"limit_req_zone $binary_remote_addr zone=botapi:10m rate=10r/s;",
		"server {",
		"\tlimit_req zone=botapi burst=20 nodelay;",
		"}",
	}, "\n")

	got := stripRateLimitZones(site)
	assert.NotContains(t, got, "limit_req_zone")
	assert.Contains(t, got, "limit_req zone=botapi", "references to the zone stay")
}

func writeSiteTemplates(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	nginxDir := filepath.Join(dir, "nginx")
	require.NoError(t, os.MkdirAll(nginxDir, 0o755))

	site := "limit_req_zone $binary_remote_addr zone=botapi:10m rate=10r/s;\nserver {\n\tserver_name {{.Domain}};\n\tlimit_req zone=botapi burst=20 nodelay;\n}\n"
	for _, name := range []string{"dashboard.conf", "dashboard-nossl.conf", "bot-api.conf", "bot-api-nossl.conf"} {
		require.NoError(t, os.WriteFile(filepath.Join(nginxDir, name), []byte(site), 0o644))
	}
	t.Setenv("DEPLOYCTL_TEMPLATES", dir)
}

func newTestProxy(t *testing.T, run CommandRunner) *ProxyConfigurator {
	t.Helper()
	root := t.TempDir()
	p := NewProxyConfigurator(run, logger.Nop())
	p.AvailableDir = filepath.Join(root, "sites-available")
	p.EnabledDir = filepath.Join(root, "sites-enabled")
	p.MainConfPath = filepath.Join(root, "nginx.conf")
	require.NoError(t, os.WriteFile(p.MainConfPath, []byte("events {\n}\nhttp {\n}\n"), 0o644))
	return p
}

func TestProxyApply(t *testing.T) {
	writeSiteTemplates(t)

	run := newFakeRunner()
	p := newTestProxy(t, run)

	cfg := NewConfig()
	cfg.Domain = "dash.example.com"

	require.NoError(t, p.Apply(context.Background(), cfg, false))

	for _, name := range []string{"dashboard.conf", "bot-api.conf"} {
		siteText, err := os.ReadFile(filepath.Join(p.AvailableDir, name))
		require.NoError(t, err)
		assert.Contains(t, string(siteText), "dash.example.com")
		assert.NotContains(t, string(siteText), "limit_req_zone", "zone declaration is stripped from site files")

		link, err := os.Readlink(filepath.Join(p.EnabledDir, name))
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(p.AvailableDir, name), link)
	}

	mainConf, err := os.ReadFile(p.MainConfPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(mainConf), "zone=botapi:"))

	assert.True(t, run.called("nginx -t"))
	assert.True(t, run.called("systemctl reload nginx"))

	// Re-applying converges without duplicating anything.
	require.NoError(t, p.Apply(context.Background(), cfg, false))
	mainConf, err = os.ReadFile(p.MainConfPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(mainConf), "zone=botapi:"))
}

func TestProxyApplyValidationFailure(t *testing.T) {
	writeSiteTemplates(t)

	run := newFakeRunner()
	run.captureErr["nginx"] = errors.New("exit status 1")
	run.captures["nginx"] = "nginx: [emerg] invalid parameter"
	p := newTestProxy(t, run)

	cfg := NewConfig()
	cfg.Domain = "dash.example.com"

	err := p.Apply(context.Background(), cfg, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not reloading")
	assert.False(t, run.called("systemctl reload nginx"), "a broken config must not be reloaded")
}

func TestEnableSiteReplacesPlainFile(t *testing.T) {
	run := newFakeRunner()
	p := newTestProxy(t, run)
	require.NoError(t, ensureDir(p.AvailableDir, 0o755))
	require.NoError(t, ensureDir(p.EnabledDir, 0o755))

	target := filepath.Join(p.AvailableDir, "dashboard.conf")
	require.NoError(t, os.WriteFile(target, []byte("server {}\n"), 0o644))

	// Some images ship sites-enabled entries as plain files.
	link := filepath.Join(p.EnabledDir, "dashboard.conf")
	require.NoError(t, os.WriteFile(link, []byte("stale\n"), 0o644))

	require.NoError(t, p.enableSite("dashboard.conf"))
	got, err := os.Readlink(link)
	require.NoError(t, err)
	assert.Equal(t, target, got)

	// Idempotent when the symlink already points at the target.
	require.NoError(t, p.enableSite("dashboard.conf"))
}
