package tui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/OnlineSolution24/deployctl/internal/deployctl"
	"github.com/OnlineSolution24/deployctl/internal/logger"
)

type stepStatus int

const (
	stepPending stepStatus = iota
	stepRunning
	stepDone
	stepSkipped
	stepWarn
	stepFailed
)

type progressStep struct {
	label  string
	status stepStatus
	err    error
}

type stepDoneMsg struct {
	index   int
	skipped bool
	warn    error
	err     error
}

type progressModel struct {
	state   *wizardState
	steps   []progressStep
	runners []deployctl.Step
	spinner spinner.Model
	current int
	done    bool
	errMsg  string
}

func newProgressModel(state *wizardState) *progressModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return &progressModel{
		state:   state,
		spinner: sp,
	}
}

func (m *progressModel) Init() tea.Cmd {
	cfg := deployctl.NewConfig()
	cfg.Domain = m.state.domain
	cfg.BotAPIURL = m.state.apiURL
	cfg.AppPassword = m.state.password
	// The wizard cannot prompt mid-run, so a failed issuance degrades to
	// plain HTTP instead of aborting.
	cfg.AssumeYes = true
	_ = cfg.SaveProfile()

	m.runners = deployctl.BuildDeploySteps(deployctl.NewRunner(), logger.Nop(), cfg)
	m.steps = make([]progressStep, len(m.runners))
	for i, step := range m.runners {
		m.steps[i] = progressStep{label: step.Name}
	}

	m.current = 0
	m.done = false
	m.errMsg = ""
	m.steps[0].status = stepRunning

	return tea.Batch(m.spinner.Tick, m.runStep(0))
}

func (m *progressModel) runStep(index int) tea.Cmd {
	step := m.runners[index]
	return func() tea.Msg {
		_, err := captureOutput(func() error {
			return step.Run(context.Background())
		})
		if err == deployctl.ErrSkipped {
			return stepDoneMsg{index: index, skipped: true}
		}
		if err != nil && step.NonFatal {
			// Recorded on screen, does not stop the run.
			return stepDoneMsg{index: index, warn: err}
		}
		return stepDoneMsg{index: index, err: err}
	}
}

// captureOutput keeps step stdout/stderr from corrupting the alt screen.
// The pipe is drained while fn runs; steps can stream more output than the
// pipe buffer holds without blocking on write.
func captureOutput(fn func() error) (string, error) {
	oldOut, oldErr := os.Stdout, os.Stderr
	r, w, _ := os.Pipe()
	os.Stdout, os.Stderr = w, w

	var buf bytes.Buffer
	drained := make(chan struct{})
	go func() {
		io.Copy(&buf, r)
		close(drained)
	}()

	err := fn()
	w.Close()
	os.Stdout, os.Stderr = oldOut, oldErr
	<-drained
	return buf.String(), err
}

func (m *progressModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stepDoneMsg:
		switch {
		case msg.err != nil:
			m.steps[msg.index].status = stepFailed
			m.steps[msg.index].err = msg.err
			m.errMsg = msg.err.Error()
			m.done = true
			return m, nil
		case msg.warn != nil:
			m.steps[msg.index].status = stepWarn
			m.steps[msg.index].err = msg.warn
		case msg.skipped:
			m.steps[msg.index].status = stepSkipped
		default:
			m.steps[msg.index].status = stepDone
		}

		next := msg.index + 1
		if next >= len(m.steps) {
			m.done = true
			return m, func() tea.Msg { return navigateMsg{to: screenComplete} }
		}
		m.current = next
		m.steps[next].status = stepRunning
		return m, m.runStep(next)

	case tea.KeyMsg:
		if m.done && m.errMsg != "" {
			if isEnter(msg) || isEsc(msg) {
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m *progressModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Deploying"))
	b.WriteString("\n\n")

	for _, step := range m.steps {
		var icon string
		switch step.status {
		case stepPending:
			icon = mutedStyle.Render("  ")
		case stepRunning:
			icon = m.spinner.View()
		case stepDone:
			icon = successStyle.Render("OK")
		case stepSkipped:
			icon = mutedStyle.Render("--")
		case stepWarn:
			icon = warningStyle.Render("!!")
		case stepFailed:
			icon = errorStyle.Render("XX")
		}
		line := fmt.Sprintf("  %s %s", icon, normalStyle.Render(step.label))
		if step.status == stepWarn && step.err != nil {
			line += mutedStyle.Render(" (" + step.err.Error() + ")")
		}
		b.WriteString(line + "\n")
	}

	if m.errMsg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("  Error: " + m.errMsg))
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("\n  press enter or esc to exit"))
	}

	return b.String()
}
