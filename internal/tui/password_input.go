package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type passwordInputModel struct {
	state  *wizardState
	input  textinput.Model
	errMsg string
}

func newPasswordInputModel(state *wizardState) *passwordInputModel {
	ti := textinput.New()
	ti.Placeholder = "dashboard password"
	ti.CharLimit = 128
	ti.Width = 40
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '*'

	return &passwordInputModel{
		state: state,
		input: ti,
	}
}

func (m *passwordInputModel) Init() tea.Cmd {
	if m.state.password != "" {
		m.input.SetValue(m.state.password)
	}
	m.input.Focus()
	return textinput.Blink
}

func (m *passwordInputModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isEsc(msg) {
			return m, func() tea.Msg { return navigateMsg{to: screenAPIURLInput} }
		}
		if isEnter(msg) {
			val := m.input.Value()
			if val == "" {
				m.errMsg = "Password is required"
				return m, nil
			}
			if len(val) < 8 {
				m.errMsg = "Password must be at least 8 characters"
				return m, nil
			}
			m.errMsg = ""
			m.state.password = val
			return m, func() tea.Msg { return navigateMsg{to: screenConfirm} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *passwordInputModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Dashboard Password"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Initial login password. Only used when the env file is first created."))
	b.WriteString("\n\n")
	b.WriteString("  " + m.input.View())
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString("\n  " + errorStyle.Render(m.errMsg))
	}

	b.WriteString(helpStyle.Render("\n  enter: confirm  esc: back"))
	return b.String()
}
