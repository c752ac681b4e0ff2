package deployctl

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	defaultInstallDir = "/opt/polymarket-dashboard"
	defaultBackupRoot = "/var/backups/polymarket-dashboard"
	defaultRepoURL    = "https://github.com/OnlineSolution24/polymarket-dashboard.git"
	defaultBranch     = "main"

	profileFileName = "deploy.yml"
	envFileName     = ".env"
)

// Config is the fully resolved input for a run. Resolution (flags, saved
// profile, wizard) happens before any step executes; the apply stage never
// prompts except through the TLS decision hook.
type Config struct {
	Domain    string `yaml:"domain"`
	BotAPIURL string `yaml:"bot_api_url"`
	Email     string `yaml:"email"`
	RepoURL   string `yaml:"repo"`
	Branch    string `yaml:"branch"`

	InstallDir string `yaml:"-"`
	BackupRoot string `yaml:"-"`

	// AppPassword is only consulted when the env file is first materialized.
	AppPassword string `yaml:"-"`

	// SkipHarden and NoTLS narrow a deploy run; AssumeYes answers the TLS
	// failure prompt without an operator.
	SkipHarden bool `yaml:"-"`
	NoTLS      bool `yaml:"-"`
	AssumeYes  bool `yaml:"-"`
}

func NewConfig() Config {
	return Config{
		RepoURL:    defaultRepoURL,
		Branch:     defaultBranch,
		InstallDir: GetInstallDir(),
		BackupRoot: getBackupRoot(),
	}
}

func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Domain) == "" {
		return errors.New("domain is required")
	}
	if strings.TrimSpace(cfg.RepoURL) == "" {
		return errors.New("repo URL is required")
	}
	if strings.TrimSpace(cfg.Branch) == "" {
		return errors.New("branch is required")
	}
	return nil
}

func (cfg Config) RenderData() RenderData {
	return RenderData{
		Domain:     cfg.Domain,
		BotAPIURL:  cfg.BotAPIURL,
		Email:      cfg.Email,
		InstallDir: cfg.InstallDir,
	}
}

func (cfg Config) EnvFilePath() string {
	return filepath.Join(cfg.InstallDir, envFileName)
}

func (cfg Config) ProfilePath() string {
	return filepath.Join(cfg.InstallDir, profileFileName)
}

// LoadProfile fills unset fields from the saved profile, if one exists.
// Flags always win over the profile.
func (cfg *Config) LoadProfile() error {
	b, err := os.ReadFile(cfg.ProfilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	var saved Config
	if err := yaml.Unmarshal(b, &saved); err != nil {
		return fmt.Errorf("parse %s: %w", profileFileName, err)
	}
	if cfg.Domain == "" {
		cfg.Domain = saved.Domain
	}
	if cfg.BotAPIURL == "" {
		cfg.BotAPIURL = saved.BotAPIURL
	}
	if cfg.Email == "" {
		cfg.Email = saved.Email
	}
	if (cfg.RepoURL == "" || cfg.RepoURL == defaultRepoURL) && saved.RepoURL != "" {
		cfg.RepoURL = saved.RepoURL
	}
	if (cfg.Branch == "" || cfg.Branch == defaultBranch) && saved.Branch != "" {
		cfg.Branch = saved.Branch
	}
	return nil
}

func (cfg Config) SaveProfile() error {
	if err := ensureDir(cfg.InstallDir, 0o750); err != nil {
		return err
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(cfg.ProfilePath(), out, 0o640)
}

// HydrateFromDotEnv backfills domain and bot API URL from a previously
// materialized env file so re-runs do not need flags.
func HydrateFromDotEnv(cfg *Config) error {
	m, err := ReadDotEnv(cfg.EnvFilePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if cfg.Domain == "" {
		cfg.Domain = m["DOMAIN"]
	}
	if cfg.BotAPIURL == "" {
		cfg.BotAPIURL = m["BOT_API_URL"]
	}
	return nil
}

func ReadDotEnv(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	vars := map[string]string{}
	s := bufio.NewScanner(file)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		k := strings.TrimSpace(parts[0])
		v := strings.Trim(strings.TrimSpace(parts[1]), "\"")
		vars[k] = v
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return vars, nil
}

// WriteDotEnv updates keys in place, preserving comments and ordering of the
// existing file. Keys not present yet are appended.
func WriteDotEnv(path string, vars map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		var b strings.Builder
		for k, v := range vars {
			b.WriteString(k + "=" + v + "\n")
		}
		return os.WriteFile(path, []byte(b.String()), 0o640)
	}
	defer file.Close()

	written := map[string]bool{}
	var lines []string
	s := bufio.NewScanner(file)
	for s.Scan() {
		line := s.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			lines = append(lines, line)
			continue
		}
		parts := strings.SplitN(trimmed, "=", 2)
		if len(parts) != 2 {
			lines = append(lines, line)
			continue
		}
		key := strings.TrimSpace(parts[0])
		if newVal, ok := vars[key]; ok {
			lines = append(lines, key+"="+newVal)
			written[key] = true
		} else {
			lines = append(lines, line)
		}
	}
	if err := s.Err(); err != nil {
		return err
	}

	for k, v := range vars {
		if !written[k] {
			lines = append(lines, k+"="+v)
		}
	}

	content := strings.Join(lines, "\n") + "\n"
	return os.WriteFile(path, []byte(content), 0o640)
}

func GetInstallDir() string {
	if v := strings.TrimSpace(os.Getenv("DEPLOYCTL_INSTALL_DIR")); v != "" {
		return v
	}
	return defaultInstallDir
}

func getBackupRoot() string {
	if v := strings.TrimSpace(os.Getenv("DEPLOYCTL_BACKUP_ROOT")); v != "" {
		return v
	}
	return defaultBackupRoot
}
