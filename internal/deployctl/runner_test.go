package deployctl

import (
	"context"
	"errors"
	"strings"
)

// fakeRunner satisfies CommandRunner without touching the host. Canned
// outputs and errors are keyed by command name; every invocation is recorded
// with its full argument list for assertions.
type fakeRunner struct {
	captures   map[string]string
	captureErr map[string]error
	streamErr  map[string]error
	binaries   map[string]bool
	calls      []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		captures:   map[string]string{},
		captureErr: map[string]error{},
		streamErr:  map[string]error{},
		binaries:   map[string]bool{},
	}
}

func (f *fakeRunner) record(name string, args []string) {
	f.calls = append(f.calls, strings.Join(append([]string{name}, args...), " "))
}

func (f *fakeRunner) Capture(_ context.Context, name string, args ...string) (string, error) {
	f.record(name, args)
	return f.captures[name], f.captureErr[name]
}

func (f *fakeRunner) Stream(_ context.Context, name string, args ...string) error {
	f.record(name, args)
	return f.streamErr[name]
}

func (f *fakeRunner) LookPath(name string) (string, error) {
	if f.binaries[name] {
		return "/usr/bin/" + name, nil
	}
	return "", errors.New(name + ": executable file not found in $PATH")
}

func (f *fakeRunner) called(prefix string) bool {
	for _, c := range f.calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
