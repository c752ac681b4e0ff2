package deployctl

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

const defaultLetsEncryptLiveDir = "/etc/letsencrypt/live"

var (
	// ErrPort80Busy means something is already bound to :80 and the
	// standalone challenge cannot run. Surfaced as an explicit error instead
	// of letting certbot fail opaquely.
	ErrPort80Busy = errors.New("port 80 is already in use; stop the listener before requesting a certificate")

	// ErrTLSDeclined means issuance failed and the operator chose to abort
	// rather than continue without TLS.
	ErrTLSDeclined = errors.New("certificate issuance failed and continuing without TLS was declined")
)

// TLSProvisioner ensures a certificate exists for the domain via the
// standalone ACME challenge. Existence of the live directory is the only
// check; expiry is certbot's own concern through its renewal timer.
type TLSProvisioner struct {
	Run CommandRunner
	Log logger.Logger

	LiveDir string

	// ContinueWithoutTLS decides what happens when issuance fails. Resolved
	// before the apply stage: interactive prompt or --yes.
	ContinueWithoutTLS func() bool
}

func NewTLSProvisioner(run CommandRunner, log logger.Logger, decide func() bool) *TLSProvisioner {
	return &TLSProvisioner{
		Run:                run,
		Log:                log,
		LiveDir:            defaultLetsEncryptLiveDir,
		ContinueWithoutTLS: decide,
	}
}

// HasCertificate reports whether certificate material already exists for
// the domain.
func (p *TLSProvisioner) HasCertificate(domain string) bool {
	return DirExists(filepath.Join(p.LiveDir, domain))
}

// Ensure requests a certificate unless one is already present. On issuance
// failure the run continues degraded only if the decision hook says so.
func (p *TLSProvisioner) Ensure(ctx context.Context, domain, email string) error {
	if p.HasCertificate(domain) {
		return ErrSkipped
	}

	busy, err := p.port80Busy(ctx)
	if err == nil && busy {
		return ErrPort80Busy
	}

	args := []string{
		"certonly", "--standalone",
		"-d", domain,
		"--non-interactive", "--agree-tos",
	}
	if email != "" {
		args = append(args, "-m", email)
	} else {
		args = append(args, "--register-unsafely-without-email")
	}

	p.Log.Info("requesting certificate", zap.String("domain", domain))
	if err := p.Run.Stream(ctx, "certbot", args...); err != nil {
		p.Log.Error("certificate issuance failed", zap.String("domain", domain), zap.Error(err))
		if p.ContinueWithoutTLS != nil && p.ContinueWithoutTLS() {
			p.Log.Warn("continuing without TLS", zap.String("domain", domain))
			return ErrSkipped
		}
		return fmt.Errorf("%w: %v", ErrTLSDeclined, err)
	}
	return nil
}

func (p *TLSProvisioner) port80Busy(ctx context.Context) (bool, error) {
	out, err := p.Run.Capture(ctx, "ss", "-ltn")
	if err != nil {
		return false, err
	}
	return listensOn(out, "80"), nil
}

// listensOn reports whether any listener in ss output has the port in its
// local-address column (the fourth field). Matching the field keeps IPv6
// addresses and other columns from producing false hits.
func listensOn(out, port string) bool {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "LISTEN" {
			continue
		}
		if strings.HasSuffix(fields[3], ":"+port) {
			return true
		}
	}
	return false
}
