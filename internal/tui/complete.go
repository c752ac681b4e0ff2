package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/OnlineSolution24/deployctl/internal/deployctl"
)

type completeModel struct {
	state  *wizardState
	cursor int // 0=Run Again, 1=Exit
}

func newCompleteModel(state *wizardState) *completeModel {
	return &completeModel{state: state}
}

func (m *completeModel) Init() tea.Cmd {
	m.cursor = 1 // Default to Exit
	return nil
}

func (m *completeModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isLeft(msg) && m.cursor > 0 {
			m.cursor--
		}
		if isRight(msg) && m.cursor < 1 {
			m.cursor++
		}
		if isEnter(msg) {
			if m.cursor == 0 {
				return m, func() tea.Msg { return resetMsg{} }
			}
			return m, tea.Quit
		}
		if msg.String() == "q" || isEsc(msg) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *completeModel) View() string {
	var b strings.Builder

	b.WriteString(successStyle.Render("  Deployment Complete!"))
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("  Domain:       %s\n", selectedStyle.Render(m.state.domain)))
	b.WriteString(fmt.Sprintf("  Install dir:  %s\n", normalStyle.Render(deployctl.GetInstallDir())))
	b.WriteString(fmt.Sprintf("  Dashboard:    %s\n", normalStyle.Render("https://"+m.state.domain)))

	b.WriteString("\n")
	b.WriteString(subtitleStyle.Render("  Next Steps"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ deployctl status      # compose state and health probes"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ deployctl config      # inspect env file (secrets masked)"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ deployctl backup      # snapshot the database and env"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("  $ deployctl doctor      # verify system"))
	b.WriteString("\n\n")

	buttons := []string{"Run Again", "Exit"}
	for i, btn := range buttons {
		if i == m.cursor {
			b.WriteString("  " + borderStyle.Render(selectedStyle.Render(btn)))
		} else {
			b.WriteString("  " + normalStyle.Render("["+btn+"]"))
		}
		b.WriteString("  ")
	}

	b.WriteString(helpStyle.Render("\n\n  left/right: navigate  enter: select  q: quit"))
	return b.String()
}
