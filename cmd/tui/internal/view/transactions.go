package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/customcraft/internal/adminclient"
)

var statusFilters = []string{"", "processing", "completed", "failed"}

type TransactionsModel struct {
	CommonModel
	client *adminclient.Client

	table     table.Model
	all       []adminclient.Transaction
	filterIdx int
	loading   bool
	err       error
}

func NewTransactionsModel(client *adminclient.Client) TransactionsModel {
	return TransactionsModel{
		client: client,
		table: newTable([]table.Column{
			{Title: "Time", Width: 17},
			{Title: "Transaction ID", Width: 22},
			{Title: "Nick", Width: 16},
			{Title: "Reward", Width: 18},
			{Title: "Qty", Width: 4},
			{Title: "Amount", Width: 9},
			{Title: "Status", Width: 11},
		}),
		loading: true,
	}
}

func (m TransactionsModel) Title() string { return "Transactions" }
func (m TransactionsModel) ShortHelp() string {
	return "Esc: back | s: status filter | r: refresh"
}

func (m TransactionsModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m TransactionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadTransactionsMsg:
		m.loading = false
		m.err = msg.err
		m.all = msg.txs
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "s":
			m.filterIdx = (m.filterIdx + 1) % len(statusFilters)
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m TransactionsModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading transactions...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	label := statusFilters[m.filterIdx]
	if label == "" {
		label = "all"
	}

	header := fmt.Sprintf("Filter: [s] Status: %s | %d shown", activeStyle(label), len(m.table.Rows()))

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		framed(m.table),
	))
}

func (m *TransactionsModel) refreshTable() {
	status := statusFilters[m.filterIdx]

	rows := make([]table.Row, 0, len(m.all))
	for _, tx := range m.all {
		if status != "" && tx.Status != status {
			continue
		}

		rows = append(rows, table.Row{
			FormatTime(tx.Timestamp),
			tx.TransactionID,
			tx.MinecraftNick,
			tx.ItemType,
			strconv.Itoa(tx.Quantity),
			tx.Amount.StringFixed(2),
			tx.Status,
		})
	}

	m.table.SetRows(rows)
}

type loadTransactionsMsg struct {
	txs []adminclient.Transaction
	err error
}

func (m TransactionsModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		txs, err := m.client.Transactions(ctx)

		return loadTransactionsMsg{txs: txs, err: err}
	}
}
