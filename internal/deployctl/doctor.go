package deployctl

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"syscall"
)

type CheckResult struct {
	Name string
	OK   bool
	Err  error
}

// RunChecks performs the preflight inspection shared by `doctor` and the
// setup wizard. Failures are warnings, not hard errors.
func RunChecks(run CommandRunner) []CheckResult {
	ctx := context.Background()
	checks := []struct {
		name string
		fn   func() error
	}{
		{"docker binary", func() error {
			_, err := run.LookPath("docker")
			return err
		}},
		{"docker compose", func() error {
			_, err := run.Capture(ctx, "docker", "compose", "version")
			return err
		}},
		{"docker daemon", func() error {
			_, err := run.Capture(ctx, "docker", "info")
			return err
		}},
		{"nginx binary", func() error {
			_, err := run.LookPath("nginx")
			return err
		}},
		{"certbot binary", func() error {
			_, err := run.LookPath("certbot")
			return err
		}},
		{"ufw binary", func() error {
			_, err := run.LookPath("ufw")
			return err
		}},
		{"install dir writable", func() error {
			return writableCheck(GetInstallDir())
		}},
		{"disk space >= 5GiB on /", func() error {
			return diskCheck("/", 5)
		}},
		{"ports 80/443 status", func() error {
			out, err := run.Capture(ctx, "ss", "-ltn")
			if err != nil {
				return err
			}
			if listensOn(out, "80") || listensOn(out, "443") {
				return fmt.Errorf("ports 80/443 already in use")
			}
			return nil
		}},
	}

	results := make([]CheckResult, 0, len(checks))
	for _, check := range checks {
		err := check.fn()
		results = append(results, CheckResult{Name: check.name, OK: err == nil, Err: err})
	}
	return results
}

func RunDoctor(run CommandRunner) error {
	fmt.Println("deployctl doctor")
	fmt.Printf("runtime: %s/%s\n", runtime.GOOS, runtime.GOARCH)

	for _, res := range RunChecks(run) {
		if res.OK {
			fmt.Printf("[ OK ] %s\n", res.Name)
		} else {
			fmt.Printf("[WARN] %s: %v\n", res.Name, res.Err)
		}
	}
	return nil
}

func writableCheck(dir string) error {
	if err := ensureDir(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "deployctl-write-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

func diskCheck(path string, minGiB uint64) error {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return err
	}
	free := (stat.Bavail * uint64(stat.Bsize)) / (1024 * 1024 * 1024)
	if free < minGiB {
		return fmt.Errorf("free space %dGiB < %dGiB", free, minGiB)
	}
	return nil
}
