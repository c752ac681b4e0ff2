package deployctl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

const systemdUnitName = "polymarket-dashboard.service"

// WriteSystemdUnit renders the unit that brings the compose stack up at
// boot. The rendered copy always lands in the install dir; installation
// into /etc/systemd/system happens only when running as root.
func WriteSystemdUnit(ctx context.Context, run CommandRunner, log logger.Logger, cfg Config) error {
	templates := findTemplatesDir()
	text, err := renderFile(filepath.Join(templates, "systemd", systemdUnitName), cfg.RenderData())
	if err != nil {
		return fmt.Errorf("render systemd unit: %w", err)
	}

	staged := filepath.Join(cfg.InstallDir, systemdUnitName)
	if err := os.WriteFile(staged, []byte(text), 0o644); err != nil {
		return err
	}

	if os.Geteuid() != 0 {
		log.Warn("not root, systemd unit staged but not installed")
		return nil
	}

	dst := filepath.Join("/etc/systemd/system", systemdUnitName)
	if err := os.WriteFile(dst, []byte(text), 0o644); err != nil {
		return err
	}
	_ = run.Stream(ctx, "systemctl", "daemon-reload")
	_ = run.Stream(ctx, "systemctl", "enable", systemdUnitName)
	return nil
}
