package deployctl

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

// RunBackup snapshots the dashboard database and env file into the backup
// root. When RESTIC_REPOSITORY and RESTIC_PASSWORD are present in the env
// file, the backup dir is additionally pushed with restic.
func RunBackup(ctx context.Context, log logger.Logger, cfg Config) error {
	if err := ensureDir(cfg.BackupRoot, 0o750); err != nil {
		return err
	}
	ts := time.Now().UTC().Format("20060102T150405Z")

	dbPath := filepath.Join(cfg.InstallDir, "data", "dashboard.db")
	if fileExists(dbPath) {
		out := filepath.Join(cfg.BackupRoot, fmt.Sprintf("dashboard_%s.db.gz", ts))
		if err := gzipCopy(dbPath, out); err != nil {
			return fmt.Errorf("backup database: %w", err)
		}
		log.Info("wrote database backup", zap.String("file", out))
	} else {
		log.Warn("database file not found, skipping", zap.String("path", dbPath))
	}

	envPath := cfg.EnvFilePath()
	if fileExists(envPath) {
		out := filepath.Join(cfg.BackupRoot, fmt.Sprintf("env_%s", ts))
		if err := copyFile(envPath, out); err != nil {
			return fmt.Errorf("backup env file: %w", err)
		}
		if err := os.Chmod(out, 0o600); err != nil {
			return err
		}
		log.Info("wrote env backup", zap.String("file", out))
	}

	envMap, err := ReadDotEnv(envPath)
	if err != nil {
		envMap = map[string]string{}
	}
	resticRepo := envMap["RESTIC_REPOSITORY"]
	resticPass := envMap["RESTIC_PASSWORD"]
	if resticRepo == "" || resticPass == "" {
		log.Info("restic skipped (RESTIC_REPOSITORY/RESTIC_PASSWORD not set)")
		return nil
	}

	log.Info("running restic push", zap.String("repo", resticRepo))
	cmd := exec.CommandContext(ctx, "restic", "backup", cfg.BackupRoot)
	cmd.Env = append(os.Environ(),
		"RESTIC_REPOSITORY="+resticRepo,
		"RESTIC_PASSWORD="+resticPass,
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("restic backup failed: %w", err)
	}
	return nil
}

func gzipCopy(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := gzip.NewWriter(out)
	if _, err := io.Copy(zw, in); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return out.Sync()
}
