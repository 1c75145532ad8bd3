package watch

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lox/omahareader/internal/monitor"
	"github.com/lox/omahareader/internal/readmodel"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262"))
)

// UpdateMsg carries a server update into the program.
type UpdateMsg Update

// ConnectionMsg reports the connection state. Err is set when the feed
// dropped.
type ConnectionMsg struct {
	Connected bool
	Err       error
}

// Model is the Bubble Tea model for the watch UI.
type Model struct {
	server    string
	refresh   func() error
	formatter *monitor.Formatter

	viewport viewport.Model
	spinner  spinner.Model

	tables     []readmodel.Table
	lastUpdate time.Time
	updates    int
	connected  bool
	err        error

	width       int
	height      int
	initialized bool
}

// NewModel creates the UI. refresh is called when the user presses r.
func NewModel(server string, refresh func() error) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))

	vp := viewport.New(10, 5)
	vp.SetContent("")

	return &Model{
		server:    server,
		refresh:   refresh,
		formatter: monitor.NewFormatter(lipgloss.DefaultRenderer()),
		viewport:  vp,
		spinner:   sp,
	}
}

func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "r":
			if m.refresh != nil {
				if err := m.refresh(); err != nil {
					m.err = err
				}
			}
		}

	case ConnectionMsg:
		m.connected = msg.Connected
		m.err = msg.Err

	case UpdateMsg:
		m.connected = true
		m.err = nil
		m.tables = msg.Payload.Tables
		m.lastUpdate = msg.ReceivedAt
		if msg.Payload.LastUpdate != nil {
			m.lastUpdate = *msg.Payload.LastUpdate
		}
		m.updates++
		m.viewport.SetContent(m.renderTables())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	w := max(m.width-2, 1)
	h := max(m.height-4, 1) // header, status and border

	m.viewport.Width = w
	m.viewport.Height = h
	if !m.initialized {
		m.viewport.GotoTop()
		m.initialized = true
	}
}

func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := headerStyle.Render(fmt.Sprintf("omahareader %s", m.server))
	body := paneStyle.Width(m.viewport.Width).Height(m.viewport.Height).Render(m.viewport.View())
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.status())
}

func (m *Model) status() string {
	switch {
	case m.err != nil:
		return errorStyle.Render("disconnected: " + m.err.Error())
	case !m.connected:
		return m.spinner.View() + statusStyle.Render(" connecting...")
	case m.updates == 0:
		return m.spinner.View() + statusStyle.Render(" waiting for tables...")
	}
	return statusStyle.Render(fmt.Sprintf("%d tables • updated %s • r refresh • q quit",
		len(m.tables), m.lastUpdate.Local().Format("15:04:05")))
}

func (m *Model) renderTables() string {
	if len(m.tables) == 0 {
		return statusStyle.Render("No tables detected")
	}
	blocks := make([]string, len(m.tables))
	for i, t := range m.tables {
		blocks[i] = m.formatter.Table(t)
	}
	return strings.Join(blocks, "\n\n")
}
