package view

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/MrJamesThe3rd/customcraft/internal/adminclient"
	"github.com/MrJamesThe3rd/customcraft/internal/ledger"
)

var itemTypes = []ledger.ItemType{
	ledger.ItemVIP,
	ledger.ItemVIPPlus,
	ledger.ItemKeyRare,
	ledger.ItemKeyEpic,
	ledger.ItemKeyLegendary,
	ledger.ItemKeyMythic,
}

type issueState int

const (
	issueStateForm issueState = iota
	issueStateIssuing
	issueStateResult
)

// Form bindings live on the heap so copies of the model share them.
type issueFields struct {
	itemType string
	quantity string
}

type IssueModel struct {
	CommonModel
	client *adminclient.Client

	state   issueState
	form    *huh.Form
	fields  *issueFields
	spinner spinner.Model

	voucher *adminclient.Voucher
	err     error
}

func NewIssueModel(client *adminclient.Client) IssueModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	fields := &issueFields{itemType: string(ledger.ItemVIP), quantity: "1"}

	return IssueModel{
		client:  client,
		fields:  fields,
		form:    buildIssueForm(fields),
		spinner: s,
	}
}

func buildIssueForm(fields *issueFields) *huh.Form {
	options := make([]huh.Option[string], len(itemTypes))
	for i, it := range itemTypes {
		options[i] = huh.NewOption(string(it), string(it))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("item_type").
				Title("Reward").
				Options(options...).
				Value(&fields.itemType),

			huh.NewInput().
				Key("quantity").
				Title("Quantity").
				Placeholder("1").
				Value(&fields.quantity).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n < 1 {
						return errors.New("quantity must be a positive number")
					}

					return nil
				}),
		),
	).WithWidth(45).WithShowHelp(false)
}

func (m IssueModel) Title() string { return "Issue Voucher" }

func (m IssueModel) ShortHelp() string {
	switch m.state {
	case issueStateIssuing:
		return "Issuing..."
	case issueStateResult:
		return "Esc: back | n: issue another"
	}

	return "Esc: back | Enter: confirm"
}

func (m IssueModel) Init() tea.Cmd {
	return m.form.Init()
}

func (m IssueModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case issueStateForm:
		return m.updateForm(msg)
	case issueStateIssuing:
		return m.updateIssuing(msg)
	case issueStateResult:
		return m.updateResult(msg)
	}

	return m, nil
}

func (m IssueModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEsc {
		return m, Back
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	quantity, _ := strconv.Atoi(strings.TrimSpace(m.fields.quantity))

	m.state = issueStateIssuing
	m.err = nil

	return m, tea.Batch(m.spinner.Tick, m.issueCmd(m.fields.itemType, quantity))
}

func (m IssueModel) updateIssuing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if result, ok := msg.(issueResultMsg); ok {
		m.state = issueStateResult
		m.voucher = result.voucher
		m.err = result.err

		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)

	return m, cmd
}

func (m IssueModel) updateResult(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch keyMsg.String() {
	case "esc":
		return m, Back
	case "n":
		next := NewIssueModel(m.client)
		return next, next.Init()
	}

	return m, nil
}

func (m IssueModel) View() string {
	switch m.state {
	case issueStateForm:
		return lipgloss.NewStyle().Padding(1).Render(m.form.View())

	case issueStateIssuing:
		return lipgloss.NewStyle().Padding(1).Render(
			fmt.Sprintf("%s Issuing %s voucher...", m.spinner.View(), m.fields.itemType),
		)

	case issueStateResult:
		if m.err != nil {
			return lipgloss.NewStyle().Padding(1).Render(errorStyle(fmt.Sprintf("Error: %v", m.err)))
		}

		header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46")).Render("Voucher issued")

		return lipgloss.NewStyle().Padding(1).Render(lipgloss.JoinVertical(lipgloss.Left,
			header,
			"",
			"Code:   "+activeStyle(m.voucher.Code),
			fmt.Sprintf("Reward: %s x%d", m.voucher.ItemType, m.voucher.Quantity),
		))
	}

	return ""
}

type issueResultMsg struct {
	voucher *adminclient.Voucher
	err     error
}

func (m IssueModel) issueCmd(itemType string, quantity int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := APICtx()
		defer cancel()

		v, err := m.client.IssueVoucher(ctx, itemType, quantity)

		return issueResultMsg{voucher: v, err: err}
	}
}
