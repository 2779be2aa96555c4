package view

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/customcraft/internal/adminclient"
)

var redeemedFilters = []string{"all", "unused", "redeemed"}

type VouchersModel struct {
	CommonModel
	client *adminclient.Client

	table     table.Model
	all       []adminclient.Voucher
	filterIdx int
	loading   bool
	err       error
}

func NewVouchersModel(client *adminclient.Client) VouchersModel {
	return VouchersModel{
		client: client,
		table: newTable([]table.Column{
			{Title: "Code", Width: 18},
			{Title: "Reward", Width: 18},
			{Title: "Qty", Width: 4},
			{Title: "Created", Width: 17},
			{Title: "Redeemed By", Width: 16},
			{Title: "Redeemed At", Width: 17},
		}),
		loading: true,
	}
}

func (m VouchersModel) Title() string { return "Vouchers" }
func (m VouchersModel) ShortHelp() string {
	return "Esc: back | f: filter | r: refresh"
}

func (m VouchersModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m VouchersModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadVouchersMsg:
		m.loading = false
		m.err = msg.err
		m.all = msg.vouchers
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
		case "f":
			m.filterIdx = (m.filterIdx + 1) % len(redeemedFilters)
			m.refreshTable()

			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m VouchersModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading vouchers...")
	}

	if m.err != nil {
		return lipgloss.NewStyle().Padding(2).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
	}

	header := fmt.Sprintf("Filter: [f] %s | %d shown", activeStyle(redeemedFilters[m.filterIdx]), len(m.table.Rows()))

	return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().PaddingBottom(1).Render(header),
		framed(m.table),
	))
}

func (m *VouchersModel) refreshTable() {
	rows := make([]table.Row, 0, len(m.all))
	for _, v := range m.all {
		if (m.filterIdx == 1 && v.Redeemed) || (m.filterIdx == 2 && !v.Redeemed) {
			continue
		}

		by, at := "-", "-"
		if v.RedeemedBy != nil {
			by = *v.RedeemedBy
		}

		if v.RedeemedAt != nil {
			at = FormatTime(*v.RedeemedAt)
		}

		rows = append(rows, table.Row{
			v.Code,
			v.ItemType,
			strconv.Itoa(v.Quantity),
			FormatTime(v.CreatedAt),
			by,
			at,
		})
	}

	m.table.SetRows(rows)
}

type loadVouchersMsg struct {
	vouchers []adminclient.Voucher
	err      error
}

func (m VouchersModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		vs, err := m.client.Vouchers(ctx)

		return loadVouchersMsg{vouchers: vs, err: err}
	}
}
