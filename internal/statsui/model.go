// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/physicsrob/didah-sub001/internal/model"
	"github.com/physicsrob/didah-sub001/internal/stats"
	"github.com/physicsrob/didah-sub001/internal/store"
)

const (
	tabOverview = iota
	tabCharTable
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	weakStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	overview  viewport.Model
	charTable table.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	m := &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Characters"},
	}
	m.overview = viewport.New(0, 0)
	m.initCharTable()
	m.refreshReport()
	return m
}

func (m *Model) initCharTable() {
	columns := []table.Column{
		{Title: "Char", Width: 7},
		{Title: "Accuracy", Width: 9},
		{Title: "Latency", Width: 9},
		{Title: "Correct", Width: 8},
		{Title: "Incorrect", Width: 10},
		{Title: "Missed", Width: 7},
	}
	m.charTable = table.New(table.WithColumns(columns), table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("#8C8C8C")).Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#F0F0F0")).
		Background(lipgloss.Color("#3A3A3A"))
	m.charTable.SetStyles(styles)
}

func (m *Model) refreshReport() {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = fmt.Sprintf("failed to build report: %v", err)
		return
	}
	m.errMsg = ""
	m.report = report
	m.renderOverview()
	m.renderCharRows()
}

func (m *Model) renderOverview() {
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, m.report.Sessions); err != nil {
		m.errMsg = fmt.Sprintf("failed to render summary: %v", err)
		return
	}
	if len(m.report.WeakChars) > 0 {
		buf.WriteString(weakStyle.Render("Weak characters: "+weakCharsLine(m.report.WeakChars)) + "\n")
	}
	m.overview.SetContent(buf.String())
}

func (m *Model) renderCharRows() {
	aggs := m.report.CharAggs
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range sortedByAccuracy(aggs) {
		label := agg.Char
		if label == " " {
			label = "<space>"
		}
		rows = append(rows, table.Row{
			label,
			fmt.Sprintf("%.1f%%", stats.CharAccuracy(agg)*100),
			fmt.Sprintf("%.0fms", stats.AvgLatencyMs(agg)),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
			fmt.Sprintf("%d", agg.Missed),
		})
	}
	m.charTable.SetRows(rows)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, nil
		case "shift+tab", "left", "h":
			m.activeTab = (m.activeTab + len(m.tabs) - 1) % len(m.tabs)
			return m, nil
		case "r":
			m.refreshReport()
			return m, nil
		}
		return m.updateActive(msg)
	default:
		return m, nil
	}
}

func (m *Model) updateActive(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeTab {
	case tabCharTable:
		m.charTable, cmd = m.charTable.Update(msg)
	default:
		m.overview, cmd = m.overview.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateLayout() {
	bodyHeight := m.height - 4
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.overview.Width = m.width
	m.overview.Height = bodyHeight
	m.charTable.SetWidth(m.width)
	m.charTable.SetHeight(bodyHeight)
}

// View implements tea.Model.
func (m *Model) View() string {
	nav := m.renderNav()
	if m.errMsg != "" {
		return nav + "\n" + errorStyle.Render(m.errMsg)
	}
	var body string
	switch m.activeTab {
	case tabCharTable:
		body = m.charTable.View()
	default:
		body = m.overview.View()
	}
	footer := headerStyle.Render("tab: switch  r: refresh  q: quit")
	return nav + "\n" + body + "\n" + footer
}

func (m *Model) renderNav() string {
	items := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			items[i] = activeNavStyle.Render(tab)
		} else {
			items[i] = inactiveNavStyle.Render(tab)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, items...)
}

func weakCharsLine(weak map[rune]struct{}) string {
	out := make([]rune, 0, len(weak))
	for ch := range weak {
		out = append(out, ch)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	line := ""
	for i, ch := range out {
		if i > 0 {
			line += " "
		}
		line += string(ch)
	}
	return line
}

func sortedByAccuracy(aggs []model.CharAggregate) []model.CharAggregate {
	sorted := make([]model.CharAggregate, len(aggs))
	copy(sorted, aggs)
	sort.Slice(sorted, func(i, j int) bool {
		ai := stats.CharAccuracy(sorted[i])
		aj := stats.CharAccuracy(sorted[j])
		if ai == aj {
			return sorted[i].Char < sorted[j].Char
		}
		return ai < aj
	})
	return sorted
}
