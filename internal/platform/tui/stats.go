package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/codequest/internal/level"
	"github.com/vovakirdan/codequest/internal/session"
	"github.com/vovakirdan/codequest/internal/storage"
)

// StatsModel shows the local history of every level.
type StatsModel struct {
	env    Env
	levels []level.Level
	stats  map[string]*storage.LevelStats
	err    error

	table     table.Model
	help      help.Model
	keys      StatsKeyMap
	width     int
	height    int
	quitting  bool
	goingBack bool
}

// NewStatsModel creates the stats screen.
func NewStatsModel(env Env, width, height int) StatsModel {
	m := StatsModel{
		env:    env,
		keys:   DefaultStatsKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.levels, m.err = env.Catalog.LoadAll()
	m.table = m.createTable()
	m.reload()
	return m
}

func (m *StatsModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Level", Width: 6},
		{Title: "Name", Width: 22},
		{Title: "Best", Width: 5},
		{Title: "Time", Width: 6},
		{Title: "Clears", Width: 6},
		{Title: "Runs", Width: 5},
		{Title: "Fails", Width: 5},
		{Title: "Last played", Width: 14},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(max(m.height-8, 5)),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// reload reads the stats again and rebuilds the rows.
func (m *StatsModel) reload() {
	if m.env.Store == nil {
		m.stats = nil
		m.table.SetRows(nil)
		return
	}
	stats, err := m.env.Store.AllLevelStats()
	if err != nil {
		m.err = err
		m.env.logger().Warn("cannot read level stats", "error", err)
		return
	}
	m.stats = stats

	rows := make([]table.Row, 0, len(m.levels))
	for _, l := range m.levels {
		row := table.Row{l.ID, l.Name, "", "", "0", "0", "0", ""}
		if s, ok := stats[l.ID]; ok {
			if s.Completed() {
				row[2] = session.StarString(s.BestStars)
				row[3] = session.FormatElapsed(time.Duration(s.BestTime) * time.Second)
			}
			row[4] = fmt.Sprintf("%d", s.Completions)
			row[5] = fmt.Sprintf("%d", s.Attempts)
			row[6] = fmt.Sprintf("%d", s.Failures)
			if !s.LastPlayed.IsZero() {
				row[7] = s.LastPlayed.Local().Format("Jan 02 15:04")
			}
		}
		rows = append(rows, row)
	}
	m.table.SetRows(rows)
}

// Init initializes the stats screen.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the stats screen.
func (m StatsModel) Update(msg tea.Msg) (StatsModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			return m, nil
		case key.Matches(msg, m.keys.Back):
			m.goingBack = true
			return m, nil
		case key.Matches(msg, m.keys.Clear):
			if row := m.table.SelectedRow(); row != nil && m.env.Store != nil {
				if err := m.env.Store.ClearLevel(row[0]); err != nil {
					m.err = err
				}
				m.reload()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		cursor := m.table.Cursor()
		m.table = m.createTable()
		m.reload()
		m.table.SetCursor(cursor)
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View renders the stats screen.
func (m StatsModel) View() string {
	if m.quitting || m.goingBack {
		return ""
	}

	var b strings.Builder
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	b.WriteString(centerText(titleStyle.Render("LEVEL HISTORY"), m.width))
	b.WriteString("\n\n")

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	switch {
	case m.env.Store == nil:
		empty := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true).Padding(2, 4)
		b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, empty.Render("Local history is disabled.")))
	default:
		b.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, tableStyle.Render(m.table.View())))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render(m.help.View(m.keys)))
	return b.String()
}

// IsGoingBack reports whether the player wants the picker back.
func (m StatsModel) IsGoingBack() bool {
	return m.goingBack
}

// IsQuitting reports whether the player asked to quit.
func (m StatsModel) IsQuitting() bool {
	return m.quitting
}
