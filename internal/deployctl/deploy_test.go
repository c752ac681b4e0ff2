package deployctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}

func TestBuildDeployStepsFull(t *testing.T) {
	cfg := NewConfig()
	cfg.Domain = "dash.example.com"

	steps := BuildDeploySteps(newFakeRunner(), logger.Nop(), cfg)
	assert.Equal(t, []string{
		"sync source",
		"materialize env file",
		"harden: ssh policy",
		"harden: firewall",
		"harden: fail2ban",
		"harden: unattended upgrades",
		"harden: swap",
		"harden: container runtime",
		"tls certificate",
		"reverse proxy",
		"systemd unit",
		"launch services",
		"health probes",
	}, stepNames(steps))

	last := steps[len(steps)-1]
	assert.True(t, last.NonFatal, "health probes never gate the run")
	for _, s := range steps[:len(steps)-1] {
		assert.False(t, s.NonFatal, "%s should gate the run", s.Name)
	}
}

func TestBuildDeployStepsNarrowed(t *testing.T) {
	cfg := NewConfig()
	cfg.Domain = "dash.example.com"
	cfg.SkipHarden = true
	cfg.NoTLS = true

	names := stepNames(BuildDeploySteps(newFakeRunner(), logger.Nop(), cfg))
	assert.NotContains(t, names, "harden: firewall")
	assert.NotContains(t, names, "tls certificate")
	assert.Contains(t, names, "reverse proxy")
	assert.Contains(t, names, "launch services")
}

func TestTLSDecisionAssumeYes(t *testing.T) {
	cfg := NewConfig()
	cfg.AssumeYes = true

	decide := tlsDecision(cfg)
	require.NotNil(t, decide)
	assert.True(t, decide())
}
