package tui

import (
	"net/url"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type apiURLInputModel struct {
	state  *wizardState
	input  textinput.Model
	errMsg string
}

func newAPIURLInputModel(state *wizardState) *apiURLInputModel {
	ti := textinput.New()
	ti.Placeholder = "http://127.0.0.1:8000"
	ti.CharLimit = 200
	ti.Width = 40

	return &apiURLInputModel{
		state: state,
		input: ti,
	}
}

func (m *apiURLInputModel) Init() tea.Cmd {
	if m.state.apiURL != "" {
		m.input.SetValue(m.state.apiURL)
	}
	m.input.Focus()
	return textinput.Blink
}

func (m *apiURLInputModel) Update(msg tea.Msg) (screenModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if isEsc(msg) {
			return m, func() tea.Msg { return navigateMsg{to: screenDomainInput} }
		}
		if isEnter(msg) {
			val := strings.TrimSpace(m.input.Value())
			if val == "" {
				val = "http://127.0.0.1:8000"
			}
			if u, err := url.Parse(val); err != nil || u.Scheme == "" || u.Host == "" {
				m.errMsg = "Invalid URL"
				return m, nil
			}
			m.errMsg = ""
			m.state.apiURL = val
			return m, func() tea.Msg { return navigateMsg{to: screenPasswordInput} }
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *apiURLInputModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Bot API URL"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("Base URL the dashboard uses to reach the trading bot API."))
	b.WriteString("\n\n")
	b.WriteString("  " + m.input.View())
	b.WriteString("\n")

	if m.errMsg != "" {
		b.WriteString("\n  " + errorStyle.Render(m.errMsg))
	}

	b.WriteString(helpStyle.Render("\n  enter: confirm  esc: back"))
	return b.String()
}
