// Package tui is a terminal lane simulator that talks to the drive-thru API.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"drivethru/internal/api"
	"drivethru/internal/lane"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	customerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0a84ff")).Bold(true)
	agentStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#30d158")).Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

const requestTimeout = 30 * time.Second

// Backend is the lane the simulator drives
type Backend interface {
	SendTurn(ctx context.Context, text string, confidence float64) (lane.Result, error)
	Reset(ctx context.Context) error
	GetMenu(ctx context.Context) ([]api.MenuSection, error)
}

type view int

const (
	viewLane view = iota
	viewMenu
)

type line struct {
	speaker string
	text    string
}

// Model defines the simulator state
type Model struct {
	backend    Backend
	input      textinput.Model
	spinner    spinner.Model
	orderTable table.Model
	menuList   list.Model
	transcript []line
	state      string
	status     string
	err        string
	waiting    bool
	view       view
	maxLines   int
}

// menuItem is one catalog entry in the menu list
type menuItem struct {
	title, desc string
}

func (i menuItem) FilterValue() string { return i.title }
func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }

type turnMsg struct {
	customer string
	result   lane.Result
}

type menuMsg struct {
	sections []api.MenuSection
}

type resetMsg struct{}

type errorMsg struct {
	err error
}

// New creates the simulator model
func New(backend Backend) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	ti := textinput.New()
	ti.Placeholder = "Say something to the speaker..."
	ti.Focus()
	ti.CharLimit = 200
	ti.Width = 60

	orderTable := table.New(
		table.WithColumns([]table.Column{
			{Title: "Qty", Width: 4},
			{Title: "Item", Width: 28},
			{Title: "Price", Width: 8},
		}),
		table.WithHeight(6),
	)

	menuList := list.New([]list.Item{}, list.NewDefaultDelegate(), 60, 20)
	menuList.Title = "Menu"

	return Model{
		backend:    backend,
		input:      ti,
		spinner:    s,
		orderTable: orderTable,
		menuList:   menuList,
		state:      "greeting",
		maxLines:   12,
	}
}

// Init implements tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, fetchMenu(m.backend))
}

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.menuList.SetSize(msg.Width-h, msg.Height-v-2)
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			if m.view == viewMenu && msg.String() == "esc" {
				m.view = viewLane
				return m, nil
			}
			return m, tea.Quit
		case "tab":
			if m.view == viewLane {
				m.view = viewMenu
			} else {
				m.view = viewLane
			}
			return m, nil
		case "ctrl+r":
			m.waiting = true
			return m, tea.Batch(m.spinner.Tick, resetLane(m.backend))
		case "enter":
			if m.view != viewLane || m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "quit" || text == "exit" {
				return m, tea.Quit
			}
			m.input.SetValue("")
			m.waiting = true
			m.err = ""
			return m, tea.Batch(m.spinner.Tick, sendTurn(m.backend, text))
		}
	case turnMsg:
		m.waiting = false
		m.appendLine("You", msg.customer)
		m.appendLine("Agent", msg.result.Response)
		m.state = string(msg.result.State)
		m.setOrder(msg.result.Order)
		m.status = ""
		if msg.result.Complete {
			m.status = fmt.Sprintf("Order complete: $%.2f. Next car!", msg.result.Order.Total)
			m.setOrder(lane.OrderView{})
			m.state = "greeting"
		}
		if len(msg.result.Escalate) > 0 {
			m.err = fmt.Sprintf("Escalation suggested: %v", msg.result.Escalate)
		}
		return m, nil
	case resetMsg:
		m.waiting = false
		m.transcript = nil
		m.state = "greeting"
		m.status = "Lane reset"
		m.setOrder(lane.OrderView{})
		return m, nil
	case menuMsg:
		var items []list.Item
		for _, section := range msg.sections {
			for _, item := range section.Items {
				items = append(items, menuItem{
					title: item.Name,
					desc:  fmt.Sprintf("%s · $%.2f · %s", section.Category, item.Price, item.Description),
				})
			}
		}
		cmd := m.menuList.SetItems(items)
		return m, cmd
	case errorMsg:
		m.waiting = false
		m.err = msg.err.Error()
		return m, nil
	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	switch m.view {
	case viewLane:
		m.input, cmd = m.input.Update(msg)
	case viewMenu:
		m.menuList, cmd = m.menuList.Update(msg)
	}
	return m, cmd
}

// View implements tea.Model
func (m Model) View() string {
	if m.view == viewMenu {
		return docStyle.Render(m.menuList.View() + "\nPress 'tab' or 'esc' to return to the lane\n")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Drive-Thru Lane") + "  state: " + m.state + "\n\n")
	for _, l := range m.transcript {
		style := agentStyle
		if l.speaker == "You" {
			style = customerStyle
		}
		b.WriteString(style.Render(l.speaker+":") + " " + l.text + "\n")
	}
	b.WriteString("\n" + m.orderTable.View() + "\n\n")

	if m.waiting {
		b.WriteString(m.spinner.View() + " thinking...\n")
	} else {
		b.WriteString(m.input.View() + "\n")
	}
	if m.status != "" {
		b.WriteString(successStyle.Render(m.status) + "\n")
	}
	if m.err != "" {
		b.WriteString(errorStyle.Render(m.err) + "\n")
	}
	b.WriteString("\n'enter' speak · 'tab' menu · 'ctrl+r' reset · 'ctrl+c' quit\n")
	return docStyle.Render(b.String())
}

func (m *Model) appendLine(speaker, text string) {
	m.transcript = append(m.transcript, line{speaker: speaker, text: text})
	if len(m.transcript) > m.maxLines {
		m.transcript = m.transcript[len(m.transcript)-m.maxLines:]
	}
}

func (m *Model) setOrder(order lane.OrderView) {
	rows := make([]table.Row, 0, len(order.Items)+1)
	for _, item := range order.Items {
		rows = append(rows, table.Row{
			fmt.Sprintf("%d", item.Quantity),
			item.Name,
			fmt.Sprintf("$%.2f", item.Total()),
		})
	}
	if len(order.Items) > 0 {
		rows = append(rows, table.Row{"", "Total", fmt.Sprintf("$%.2f", order.Total)})
	}
	m.orderTable.SetRows(rows)
}

func sendTurn(backend Backend, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		result, err := backend.SendTurn(ctx, text, 1.0)
		if err != nil {
			return errorMsg{err: fmt.Errorf("sending turn: %w", err)}
		}
		return turnMsg{customer: text, result: result}
	}
}

func resetLane(backend Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := backend.Reset(ctx); err != nil {
			return errorMsg{err: fmt.Errorf("resetting lane: %w", err)}
		}
		return resetMsg{}
	}
}

func fetchMenu(backend Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		sections, err := backend.GetMenu(ctx)
		if err != nil {
			return errorMsg{err: fmt.Errorf("loading menu: %w", err)}
		}
		return menuMsg{sections: sections}
	}
}

// Run starts the simulator full screen
func Run(backend Backend) error {
	_, err := tea.NewProgram(New(backend), tea.WithAltScreen()).Run()
	return err
}
