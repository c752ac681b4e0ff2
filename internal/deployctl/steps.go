package deployctl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/OnlineSolution24/deployctl/internal/logger"
)

type StepStatus int

const (
	StepOK StepStatus = iota
	StepSkipped
	StepFailed
)

func (s StepStatus) String() string {
	switch s {
	case StepOK:
		return "ok"
	case StepSkipped:
		return "skipped"
	case StepFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrSkipped signals that a step inspected current state and found nothing
// to do. It is recorded as StepSkipped, not a failure.
var ErrSkipped = fmt.Errorf("nothing to do")

// Step is one idempotent convergence action. Gating steps abort the rest of
// the run on failure; non-gating steps (the health probe) only record their
// outcome.
type Step struct {
	Name     string
	Run      func(ctx context.Context) error
	NonFatal bool
}

type StepResult struct {
	Name     string
	Status   StepStatus
	Err      error
	Duration time.Duration
}

type RunReport struct {
	Results []StepResult
	Aborted bool
}

func (r RunReport) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StepFailed {
			return true
		}
	}
	return false
}

// RunSteps executes steps in order, fail-fast on gating steps. Remaining
// steps after an abort are not recorded; the host keeps whatever partially
// converged state exists at that point.
func RunSteps(ctx context.Context, log logger.Logger, steps []Step) RunReport {
	var report RunReport
	for _, step := range steps {
		start := time.Now()
		log.Info("step start", zap.String("step", step.Name))
		err := step.Run(ctx)
		res := StepResult{
			Name:     step.Name,
			Duration: time.Since(start),
		}
		switch {
		case err == nil:
			res.Status = StepOK
			log.Info("step done", zap.String("step", step.Name), zap.Duration("took", res.Duration))
		case err == ErrSkipped:
			res.Status = StepSkipped
			log.Info("step skipped", zap.String("step", step.Name))
		default:
			res.Status = StepFailed
			res.Err = err
			log.Error("step failed", zap.String("step", step.Name), zap.Error(err))
		}
		report.Results = append(report.Results, res)

		if res.Status == StepFailed && !step.NonFatal {
			report.Aborted = true
			return report
		}
	}
	return report
}

// PrintReport writes the run summary in the doctor-check format.
func PrintReport(report RunReport) {
	fmt.Println()
	fmt.Println("run report:")
	for _, res := range report.Results {
		switch res.Status {
		case StepOK:
			fmt.Printf("[ OK ] %s (%s)\n", res.Name, res.Duration.Round(time.Millisecond))
		case StepSkipped:
			fmt.Printf("[SKIP] %s\n", res.Name)
		case StepFailed:
			fmt.Printf("[FAIL] %s: %v\n", res.Name, res.Err)
		}
	}
	if report.Aborted {
		fmt.Println("run aborted; later steps were not attempted")
	}
}
