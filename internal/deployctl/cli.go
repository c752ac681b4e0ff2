package deployctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/OnlineSolution24/deployctl/internal/logger"
	"github.com/OnlineSolution24/deployctl/internal/version"
)

func Run(args []string) error {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}

	cmd := args[0]
	cmdArgs := args[1:]

	ctx := context.Background()
	run := NewRunner()
	log := logger.New(os.Getenv("DEPLOYCTL_LOG_LEVEL"), true)
	defer log.Sync()

	switch cmd {
	case "deploy":
		return cmdDeploy(ctx, run, log, cmdArgs)
	case "sync":
		return cmdSync(ctx, log, cmdArgs)
	case "harden":
		return cmdHarden(ctx, run, log, cmdArgs)
	case "cert":
		return cmdCert(ctx, run, log, cmdArgs)
	case "proxy":
		return cmdProxy(ctx, run, log, cmdArgs)
	case "up", "down", "restart":
		return cmdLifecycle(ctx, run, log, cmd)
	case "status":
		return cmdStatus(ctx, run, log)
	case "backup":
		return cmdBackup(ctx, log)
	case "config":
		return cmdConfig(cmdArgs)
	case "doctor":
		return RunDoctor(run)
	case "version":
		fmt.Println(version.String())
		return nil
	case "help", "--help", "-h":
		usage()
		return nil
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func usage() {
	fmt.Println(`deployctl - fresh VPS to running trading dashboard

Usage:
  deployctl deploy --domain dash.example.com [--bot-api-url url] [--repo url] [--branch main] [--yes] [--skip-harden] [--no-tls]
  deployctl sync   [--repo url] [--branch main]
  deployctl harden
  deployctl cert   --domain dash.example.com [--email ops@example.com] [--yes]
  deployctl proxy  --domain dash.example.com [--no-tls]
  deployctl up | down | restart
  deployctl status
  deployctl backup
  deployctl config [get KEY | set KEY VALUE]
  deployctl doctor
  deployctl setup                  # interactive setup wizard
  deployctl version`)
}

func resolveConfig(fs *flag.FlagSet) (Config, error) {
	cfg := NewConfig()
	fs.VisitAll(func(f *flag.Flag) {
		switch f.Name {
		case "domain":
			cfg.Domain = f.Value.String()
		case "bot-api-url":
			cfg.BotAPIURL = f.Value.String()
		case "email":
			cfg.Email = f.Value.String()
		case "repo":
			cfg.RepoURL = f.Value.String()
		case "branch":
			cfg.Branch = f.Value.String()
		}
	})
	if err := cfg.LoadProfile(); err != nil {
		return cfg, err
	}
	if err := HydrateFromDotEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func cmdDeploy(ctx context.Context, run CommandRunner, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ContinueOnError)
	fs.String("domain", "", "public domain for the dashboard")
	fs.String("bot-api-url", "", "bot REST API base URL")
	fs.String("email", "", "ops email for certificate registration")
	fs.String("repo", defaultRepoURL, "source repository URL")
	fs.String("branch", defaultBranch, "tracked branch")
	password := fs.String("password", "", "initial dashboard password (first run only)")
	yes := fs.Bool("yes", false, "answer prompts non-interactively")
	skipHarden := fs.Bool("skip-harden", false, "skip host hardening steps")
	noTLS := fs.Bool("no-tls", false, "skip certificate issuance, serve plain HTTP")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := resolveConfig(fs)
	if err != nil {
		return err
	}
	cfg.AppPassword = *password
	cfg.AssumeYes = *yes
	cfg.SkipHarden = *skipHarden
	cfg.NoTLS = *noTLS

	return RunDeploy(ctx, run, log, cfg)
}

func cmdSync(ctx context.Context, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	fs.String("repo", defaultRepoURL, "source repository URL")
	fs.String("branch", defaultBranch, "tracked branch")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := resolveConfig(fs)
	if err != nil {
		return err
	}

	action, err := Syncer{Log: log}.Sync(ctx, cfg.RepoURL, cfg.Branch, cfg.InstallDir)
	if err != nil {
		return err
	}
	fmt.Printf("source %s at %s\n", action, cfg.InstallDir)
	return nil
}

func cmdHarden(ctx context.Context, run CommandRunner, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("harden", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	report := RunSteps(ctx, log, NewHardener(run, log).Steps())
	PrintReport(report)
	if report.Failed() {
		return errors.New("hardening incomplete")
	}
	return nil
}

func cmdCert(ctx context.Context, run CommandRunner, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("cert", flag.ContinueOnError)
	fs.String("domain", "", "domain to issue a certificate for")
	fs.String("email", "", "registration email")
	yes := fs.Bool("yes", false, "continue without TLS on failure")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := resolveConfig(fs)
	if err != nil {
		return err
	}
	cfg.AssumeYes = *yes
	if cfg.Domain == "" {
		return errors.New("domain is required")
	}

	tls := NewTLSProvisioner(run, log, tlsDecision(cfg))
	err = tls.Ensure(ctx, cfg.Domain, cfg.Email)
	if err == ErrSkipped || err == nil {
		fmt.Printf("certificate present for %s\n", cfg.Domain)
		return nil
	}
	return err
}

func cmdProxy(ctx context.Context, run CommandRunner, log logger.Logger, args []string) error {
	fs := flag.NewFlagSet("proxy", flag.ContinueOnError)
	fs.String("domain", "", "domain to configure")
	noTLS := fs.Bool("no-tls", false, "write the plain-HTTP site configs")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := resolveConfig(fs)
	if err != nil {
		return err
	}
	if cfg.Domain == "" {
		return errors.New("domain is required")
	}

	proxy := NewProxyConfigurator(run, log)
	withTLS := !*noTLS && NewTLSProvisioner(run, log, nil).HasCertificate(cfg.Domain)
	if err := proxy.Apply(ctx, cfg, withTLS); err != nil {
		return err
	}
	fmt.Printf("proxy configured for %s (tls=%v)\n", cfg.Domain, withTLS)
	return nil
}

func cmdLifecycle(ctx context.Context, run CommandRunner, log logger.Logger, verb string) error {
	launcher := NewLauncher(run, log, GetInstallDir())
	switch verb {
	case "up":
		return launcher.Up(ctx)
	case "down":
		return launcher.Down(ctx)
	case "restart":
		return launcher.Restart(ctx)
	}
	return nil
}

func cmdStatus(ctx context.Context, run CommandRunner, log logger.Logger) error {
	launcher := NewLauncher(run, log, GetInstallDir())
	out, err := launcher.Ps(ctx)
	if err != nil {
		fmt.Println("docker compose status unavailable:")
		fmt.Println(strings.TrimSpace(out))
		return nil
	}
	fmt.Println(out)

	for _, probe := range launcher.Health(ctx) {
		if probe.OK {
			fmt.Printf("[ OK ] %s %s\n", probe.Name, probe.URL)
		} else {
			fmt.Printf("[WARN] %s %s: %v\n", probe.Name, probe.URL, probe.Err)
		}
	}
	return nil
}

func cmdBackup(ctx context.Context, log logger.Logger) error {
	cfg := NewConfig()
	if err := HydrateFromDotEnv(&cfg); err != nil {
		return err
	}
	return RunBackup(ctx, log, cfg)
}

func cmdConfig(args []string) error {
	cfg := NewConfig()
	envPath := cfg.EnvFilePath()

	if len(args) == 0 {
		vars, err := ReadDotEnv(envPath)
		if err != nil {
			return err
		}
		for _, line := range maskedEnvLines(vars) {
			fmt.Println(line)
		}
		return nil
	}

	switch args[0] {
	case "get":
		if len(args) < 2 {
			return errors.New("usage: deployctl config get KEY")
		}
		vars, err := ReadDotEnv(envPath)
		if err != nil {
			return err
		}
		fmt.Println(vars[args[1]])
		return nil
	case "set":
		if len(args) < 3 {
			return errors.New("usage: deployctl config set KEY VALUE")
		}
		return WriteDotEnv(envPath, map[string]string{args[1]: args[2]})
	default:
		return fmt.Errorf("unknown config action: %s", args[0])
	}
}

// maskedEnvLines renders the env vars as KEY=VALUE lines in key order, with
// secrets masked.
func maskedEnvLines(vars map[string]string) []string {
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		v := vars[k]
		if k == "BOT_API_KEY" || k == "APP_PASSWORD" {
			v = "********"
		}
		lines = append(lines, k+"="+v)
	}
	return lines
}
