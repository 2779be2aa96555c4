package main

import (
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/customcraft/cmd/tui/internal/view"
	"github.com/MrJamesThe3rd/customcraft/internal/adminclient"
	"github.com/MrJamesThe3rd/customcraft/internal/config"
)

type model struct {
	client *adminclient.Client
	name   string

	currentView View

	transactionsView view.TransactionsModel
	vouchersView     view.VouchersModel
	issueView        view.IssueModel
	probeView        view.ProbeModel
}

type View int

const (
	ViewMenu         View = 0
	ViewTransactions View = 1
	ViewVouchers     View = 2
	ViewIssue        View = 3
	ViewProbe        View = 4
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var opts []adminclient.Option
	if cfg.Admin.TokenSecret != "" {
		opts = append(opts, adminclient.WithTokenSecret(cfg.Admin.TokenSecret, cfg.Admin.TokenTTL))
	}

	client := adminclient.New(cfg.Client.APIURL, cfg.Admin.Key, opts...)

	return model{
		client:      client,
		name:        cfg.App.Name,
		currentView: ViewMenu,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewTransactions
				m.transactionsView = view.NewTransactionsModel(m.client)

				return m, m.transactionsView.Init()
			case "2":
				m.currentView = ViewVouchers
				m.vouchersView = view.NewVouchersModel(m.client)

				return m, m.vouchersView.Init()
			case "3":
				m.currentView = ViewIssue
				m.issueView = view.NewIssueModel(m.client)

				return m, m.issueView.Init()
			case "4":
				m.currentView = ViewProbe
				m.probeView = view.NewProbeModel(m.client)

				return m, m.probeView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewTransactions:
		var newModel tea.Model
		newModel, cmd = m.transactionsView.Update(msg)
		m.transactionsView = newModel.(view.TransactionsModel)
	case ViewVouchers:
		var newModel tea.Model
		newModel, cmd = m.vouchersView.Update(msg)
		m.vouchersView = newModel.(view.VouchersModel)
	case ViewIssue:
		var newModel tea.Model
		newModel, cmd = m.issueView.Update(msg)
		m.issueView = newModel.(view.IssueModel)
	case ViewProbe:
		var newModel tea.Model
		newModel, cmd = m.probeView.Update(msg)
		m.probeView = newModel.(view.ProbeModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			m.name + " Admin\n\n" +
				"1. Transactions\n" +
				"2. Vouchers\n" +
				"3. Issue Voucher\n" +
				"4. Test RCON\n\n" +
				"q. Quit",
		)
	case ViewTransactions:
		return withHelp(m.transactionsView)
	case ViewVouchers:
		return withHelp(m.vouchersView)
	case ViewIssue:
		return withHelp(m.issueView)
	case ViewProbe:
		return withHelp(m.probeView)
	}

	return "Unknown View"
}

func withHelp(v view.View) string {
	help := lipgloss.NewStyle().Faint(true).PaddingLeft(1).Render(v.Title() + " | " + v.ShortHelp())
	return v.View() + "\n" + help
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
