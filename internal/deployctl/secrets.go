package deployctl

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

const apiKeyBytes = 32

// GenerateAPIKey returns a URL-safe random token with the same shape as the
// bot's own fallback key (32 bytes, unpadded base64url).
func GenerateAPIKey() (string, error) {
	buf := make([]byte, apiKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// EnsureDotEnv materializes the env file from the template on first run.
// An existing file is left untouched, including any stale values; merging
// new template keys is deliberately not attempted.
func EnsureDotEnv(cfg Config, log logger.Logger) (created bool, err error) {
	target := cfg.EnvFilePath()
	if fileExists(target) {
		return false, nil
	}

	key, err := GenerateAPIKey()
	if err != nil {
		return false, err
	}

	tplPath := filepath.Join(findTemplatesDir(), ".env.example")
	text, err := renderFile(tplPath, cfg.RenderData())
	if err != nil {
		return false, fmt.Errorf("render env template: %w", err)
	}

	vars := map[string]string{
		"BOT_API_KEY": key,
	}
	if cfg.AppPassword != "" {
		vars["APP_PASSWORD"] = cfg.AppPassword
	}

	if err := ensureDir(cfg.InstallDir, 0o750); err != nil {
		return false, err
	}
	if err := os.WriteFile(target, []byte(text), 0o640); err != nil {
		return false, err
	}
	if err := WriteDotEnv(target, vars); err != nil {
		return false, err
	}

	// Logged once so the operator can note it down; it is not printed again.
	log.Warn("generated bot API key", zap.String("key", key), zap.String("file", target))
	return true, nil
}
