package view

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/customcraft/internal/adminclient"
)

// ProbeModel checks the game server connection through the API.
type ProbeModel struct {
	CommonModel
	client *adminclient.Client

	spinner  spinner.Model
	running  bool
	response string
	err      error
}

func NewProbeModel(client *adminclient.Client) ProbeModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return ProbeModel{client: client, spinner: s, running: true}
}

func (m ProbeModel) Title() string     { return "Test RCON" }
func (m ProbeModel) ShortHelp() string { return "Esc: back | r: retry" }

func (m ProbeModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.probeCmd())
}

func (m ProbeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case probeResultMsg:
		m.running = false
		m.response = msg.response
		m.err = msg.err

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			if !m.running {
				m.running = true
				return m, tea.Batch(m.spinner.Tick, m.probeCmd())
			}
		}
	}

	if !m.running {
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m ProbeModel) View() string {
	if m.running {
		return lipgloss.NewStyle().Padding(1).Render(m.spinner.View() + " Contacting game server...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("RCON unreachable: %v", m.err)))
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render("RCON connection works")

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left, header, "", m.response))
}

type probeResultMsg struct {
	response string
	err      error
}

func (m ProbeModel) probeCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		resp, err := m.client.TestRCON(ctx)

		return probeResultMsg{response: resp, err: err}
	}
}
