package deployctl

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

// BuildDeploySteps assembles the full bootstrap sequence:
// sync -> env materialization -> hardening -> TLS -> proxy -> systemd ->
// launch -> health. Hardening has no data dependency on the others; it runs
// before the network-facing steps so the firewall is in place first.
func BuildDeploySteps(run CommandRunner, log logger.Logger, cfg Config) []Step {
	syncer := Syncer{Log: log}
	hardener := NewHardener(run, log)
	tls := NewTLSProvisioner(run, log, tlsDecision(cfg))
	proxy := NewProxyConfigurator(run, log)
	launcher := NewLauncher(run, log, cfg.InstallDir)

	steps := []Step{
		{Name: "sync source", Run: func(ctx context.Context) error {
			action, err := syncer.Sync(ctx, cfg.RepoURL, cfg.Branch, cfg.InstallDir)
			if err != nil {
				return err
			}
			fmt.Printf("source %s\n", action)
			return nil
		}},
		{Name: "materialize env file", Run: func(ctx context.Context) error {
			created, err := EnsureDotEnv(cfg, log)
			if err != nil {
				return err
			}
			if !created {
				return ErrSkipped
			}
			return nil
		}},
	}

	if !cfg.SkipHarden {
		steps = append(steps, hardener.Steps()...)
	}

	if !cfg.NoTLS {
		steps = append(steps, Step{Name: "tls certificate", Run: func(ctx context.Context) error {
			return tls.Ensure(ctx, cfg.Domain, cfg.Email)
		}})
	}

	steps = append(steps,
		Step{Name: "reverse proxy", Run: func(ctx context.Context) error {
			withTLS := !cfg.NoTLS && tls.HasCertificate(cfg.Domain)
			return proxy.Apply(ctx, cfg, withTLS)
		}},
		Step{Name: "systemd unit", Run: func(ctx context.Context) error {
			return WriteSystemdUnit(ctx, run, log, cfg)
		}},
		Step{Name: "launch services", Run: launcher.Up},
		Step{Name: "health probes", NonFatal: true, Run: func(ctx context.Context) error {
			if err := launcher.Settle(ctx); err != nil {
				return err
			}
			var failed []string
			for _, probe := range launcher.Health(ctx) {
				status := "ok"
				if !probe.OK {
					status = fmt.Sprintf("failed (%v)", probe.Err)
					failed = append(failed, probe.Name)
				}
				fmt.Printf("%s: %s\n", probe.Name, status)
			}
			if len(failed) > 0 {
				return fmt.Errorf("probes failed: %s", strings.Join(failed, ", "))
			}
			return nil
		}},
	)
	return steps
}

// RunDeploy executes the full bootstrap and prints the run report.
func RunDeploy(ctx context.Context, run CommandRunner, log logger.Logger, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.SaveProfile(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	report := RunSteps(ctx, log, BuildDeploySteps(run, log, cfg))
	PrintReport(report)
	if report.Aborted {
		return fmt.Errorf("deploy aborted")
	}
	return nil
}

// tlsDecision resolves the only operator-recoverable error: certificate
// issuance failure. --yes answers it in advance; otherwise the operator is
// asked on the terminal.
func tlsDecision(cfg Config) func() bool {
	if cfg.AssumeYes {
		return func() bool { return true }
	}
	return func() bool {
		fmt.Print("certificate issuance failed; continue without TLS? [y/N] ")
		s := bufio.NewScanner(os.Stdin)
		if !s.Scan() {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(s.Text()))
		return answer == "y" || answer == "yes"
	}
}
