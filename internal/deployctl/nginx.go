package deployctl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

const (
	defaultSitesAvailable = "/etc/nginx/sites-available"
	defaultSitesEnabled   = "/etc/nginx/sites-enabled"
	defaultNginxConf      = "/etc/nginx/nginx.conf"

	// rateLimitZone must be declared exactly once, in the http block of the
	// main config; per-site files may reference the zone but never declare it.
	rateLimitZone = "limit_req_zone $binary_remote_addr zone=botapi:10m rate=10r/s;"
)

// ProxyConfigurator renders the site configs for the dashboard and the bot
// API, activates them, and reloads nginx only after the merged config passes
// validation. A validation failure leaves the previously active config
// serving.
type ProxyConfigurator struct {
	Run CommandRunner
	Log logger.Logger

	AvailableDir string
	EnabledDir   string
	MainConfPath string
}

func NewProxyConfigurator(run CommandRunner, log logger.Logger) *ProxyConfigurator {
	return &ProxyConfigurator{
		Run:          run,
		Log:          log,
		AvailableDir: defaultSitesAvailable,
		EnabledDir:   defaultSitesEnabled,
		MainConfPath: defaultNginxConf,
	}
}

// Apply converges both site configs. withTLS selects the templates that
// terminate TLS; without a certificate the plain-HTTP variants are used so
// validation does not trip over missing certificate paths.
func (p *ProxyConfigurator) Apply(ctx context.Context, cfg Config, withTLS bool) error {
	sites := []struct {
		template string
		target   string
	}{
		{siteTemplate("dashboard", withTLS), "dashboard.conf"},
		{siteTemplate("bot-api", withTLS), "bot-api.conf"},
	}

	if err := ensureDir(p.AvailableDir, 0o755); err != nil {
		return err
	}
	if err := ensureDir(p.EnabledDir, 0o755); err != nil {
		return err
	}

	templates := findTemplatesDir()
	data := cfg.RenderData()
	for _, site := range sites {
		text, err := renderFile(filepath.Join(templates, "nginx", site.template), data)
		if err != nil {
			return fmt.Errorf("render nginx %s: %w", site.template, err)
		}
		// The zone lives in the main config; a duplicate declaration in a
		// site file is a hard nginx error.
		text = stripRateLimitZones(text)

		target := filepath.Join(p.AvailableDir, site.target)
		if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
			return err
		}
		if err := p.enableSite(site.target); err != nil {
			return err
		}
	}

	if err := p.ensureRateLimitZone(); err != nil {
		return err
	}

	if out, err := p.Run.Capture(ctx, "nginx", "-t"); err != nil {
		return fmt.Errorf("nginx config validation failed, not reloading: %w\n%s", err, strings.TrimSpace(out))
	}
	p.Log.Info("nginx config valid, reloading")
	return p.Run.Stream(ctx, "systemctl", "reload", "nginx")
}

func siteTemplate(name string, withTLS bool) string {
	if withTLS {
		return name + ".conf"
	}
	return name + "-nossl.conf"
}

func (p *ProxyConfigurator) enableSite(name string) error {
	link := filepath.Join(p.EnabledDir, name)
	target := filepath.Join(p.AvailableDir, name)

	if existing, err := os.Readlink(link); err == nil {
		if existing == target {
			return nil
		}
		if err := os.Remove(link); err != nil {
			return err
		}
	} else if fileExists(link) {
		// A plain file where the symlink should be; replace it.
		if err := os.Remove(link); err != nil {
			return err
		}
	}
	return os.Symlink(target, link)
}

// ensureRateLimitZone inserts the zone declaration into the http block of
// the main config if no limit_req_zone for botapi exists yet.
func (p *ProxyConfigurator) ensureRateLimitZone() error {
	content, err := os.ReadFile(p.MainConfPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.MainConfPath, err)
	}
	updated, changed := ensureRateLimitZone(string(content))
	if !changed {
		return nil
	}
	p.Log.Info("adding rate-limit zone", zap.String("file", p.MainConfPath))
	return os.WriteFile(p.MainConfPath, []byte(updated), 0o644)
}

func ensureRateLimitZone(content string) (string, bool) {
	if strings.Contains(content, "zone=botapi:") {
		return content, false
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "http") && strings.HasSuffix(trimmed, "{") {
			out := make([]string, 0, len(lines)+1)
			out = append(out, lines[:i+1]...)
			out = append(out, "\t"+rateLimitZone)
			out = append(out, lines[i+1:]...)
			return strings.Join(out, "\n"), true
		}
	}
	return content, false
}

// stripRateLimitZones removes any zone declaration from a rendered site
// config so the declaration stays unique to the main config.
func stripRateLimitZones(content string) string {
	lines := strings.Split(content, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "limit_req_zone") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
