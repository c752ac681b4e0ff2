package deployctl

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

const (
	composeProject = "polymarket-dashboard"

	dashboardHealthURL = "http://127.0.0.1:8501/_stcore/health"
	apiDocsURL         = "http://127.0.0.1:8000/docs"

	defaultSettleDelay = 10 * time.Second
	probeTimeout       = 5 * time.Second
)

// Launcher drives the compose stack and performs the post-start liveness
// probes. The probes are a best-effort hint, not a gate: one request each
// after a fixed settle delay, no retry loop.
type Launcher struct {
	Run CommandRunner
	Log logger.Logger

	InstallDir  string
	SettleDelay time.Duration
	Client      *http.Client
}

func NewLauncher(run CommandRunner, log logger.Logger, installDir string) *Launcher {
	return &Launcher{
		Run:         run,
		Log:         log,
		InstallDir:  installDir,
		SettleDelay: defaultSettleDelay,
		Client:      &http.Client{Timeout: probeTimeout},
	}
}

func (l *Launcher) composeArgs(extra ...string) []string {
	args := []string{
		"compose",
		"-f", filepath.Join(l.InstallDir, "docker-compose.yml"),
		"--env-file", filepath.Join(l.InstallDir, envFileName),
		"-p", composeProject,
	}
	return append(args, extra...)
}

// Up builds and starts the stack, forcing an image rebuild.
func (l *Launcher) Up(ctx context.Context) error {
	l.Log.Info("starting compose stack", zap.String("dir", l.InstallDir))
	return l.Run.Stream(ctx, "docker", l.composeArgs("up", "-d", "--build", "--remove-orphans")...)
}

func (l *Launcher) Down(ctx context.Context) error {
	return l.Run.Stream(ctx, "docker", l.composeArgs("down")...)
}

func (l *Launcher) Restart(ctx context.Context) error {
	return l.Run.Stream(ctx, "docker", l.composeArgs("restart")...)
}

// Ps returns the compose status listing.
func (l *Launcher) Ps(ctx context.Context) (string, error) {
	return l.Run.Capture(ctx, "docker", l.composeArgs("ps")...)
}

type ProbeResult struct {
	Name string
	URL  string
	OK   bool
	Err  error
}

// Settle blocks for the fixed settle delay, honoring ctx cancellation.
func (l *Launcher) Settle(ctx context.Context) error {
	select {
	case <-time.After(l.SettleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health performs exactly one probe per endpoint.
func (l *Launcher) Health(ctx context.Context) []ProbeResult {
	probes := []ProbeResult{
		{Name: "dashboard", URL: dashboardHealthURL},
		{Name: "bot api", URL: apiDocsURL},
	}
	for i := range probes {
		probes[i].OK, probes[i].Err = l.probe(ctx, probes[i].URL)
		if probes[i].OK {
			l.Log.Info("health probe ok", zap.String("target", probes[i].Name))
		} else {
			l.Log.Warn("health probe failed", zap.String("target", probes[i].Name), zap.Error(probes[i].Err))
		}
	}
	return probes
}

func (l *Launcher) probe(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := l.Client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return false, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return true, nil
}
