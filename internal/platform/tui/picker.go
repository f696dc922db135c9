package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/codequest/internal/level"
	"github.com/vovakirdan/codequest/internal/progress"
	"github.com/vovakirdan/codequest/internal/session"
	"github.com/vovakirdan/codequest/internal/storage"
)

const remoteFetchTimeout = 5 * time.Second

// progressLoadedMsg carries the local and remote progress of every level.
type progressLoadedMsg struct {
	local     map[string]*storage.LevelStats
	remote    map[string]progress.ChallengeProgress
	localErr  error
	remoteErr error
}

// loadProgressCmd reads the history database and, when configured, the
// backend's record of the player.
func loadProgressCmd(env Env) tea.Cmd {
	return func() tea.Msg {
		var msg progressLoadedMsg
		if env.Store != nil {
			msg.local, msg.localErr = env.Store.AllLevelStats()
		}
		if env.Remote != nil {
			ctx, cancel := context.WithTimeout(context.Background(), remoteFetchTimeout)
			defer cancel()
			msg.remote, msg.remoteErr = env.Remote.FetchChallenges(ctx)
		}
		return msg
	}
}

// PickerModel is the level selection screen.
type PickerModel struct {
	env    Env
	levels []level.Level
	cursor int
	local  map[string]*storage.LevelStats
	remote map[string]progress.ChallengeProgress
	notice string
	err    error

	keys   PickerKeyMap
	help   help.Model
	width  int
	height int

	selected  *level.Level
	wantStats bool
	quitting  bool
}

// NewPickerModel creates the picker with the cursor on focusID, if given.
func NewPickerModel(env Env, focusID string, width, height int) PickerModel {
	m := PickerModel{
		env:    env,
		keys:   DefaultPickerKeyMap(),
		help:   help.New(),
		width:  width,
		height: height,
	}
	m.levels, m.err = env.Catalog.LoadAll()
	for i, l := range m.levels {
		if l.ID == focusID {
			m.cursor = i
		}
	}
	return m
}

// Init starts loading progress.
func (m PickerModel) Init() tea.Cmd {
	return loadProgressCmd(m.env)
}

// Update handles messages for the picker.
func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.levels)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Select):
			if len(m.levels) > 0 {
				l := m.levels[m.cursor]
				m.selected = &l
			}
		case key.Matches(msg, m.keys.Stats):
			m.wantStats = true
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case progressLoadedMsg:
		m.local = msg.local
		m.remote = msg.remote
		switch {
		case msg.localErr != nil:
			m.notice = "Local history unavailable: " + msg.localErr.Error()
			m.env.logger().Warn("cannot read level stats", "error", msg.localErr)
		case msg.remoteErr != nil:
			m.notice = "Offline: remote progress unavailable."
			m.env.logger().Warn("cannot fetch remote progress", "error", msg.remoteErr)
		}
	}
	return m, nil
}

// stars returns the best known rating of a level, local or remote.
func (m PickerModel) stars(id string) (int, bool) {
	best, done := 0, false
	if s, ok := m.local[id]; ok && s.Completed() {
		best, done = s.BestStars, true
	}
	if p, ok := m.remote[id]; ok && p.Completed {
		best, done = max(best, p.Stars), true
	}
	return best, done
}

// View renders the picker.
func (m PickerModel) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	cur := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(centerText(titleStyle.Render("C O D E Q U E S T"), m.width))
	b.WriteString("\n")
	if m.env.Player != "" {
		b.WriteString(centerText(dim.Render("playing as "+m.env.Player), m.width))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(centerText("Cannot load levels: "+m.err.Error(), m.width))
		b.WriteString("\n")
	}

	group := ""
	for i, l := range m.levels {
		if l.Group != group {
			group = l.Group
			b.WriteString(centerText(dim.Render(group), m.width))
			b.WriteString("\n")
		}

		mark := "   "
		if stars, done := m.stars(l.ID); done {
			mark = session.StarString(stars)
		}
		name := l.Name
		if name == "" {
			name = l.ID
		}
		line := fmt.Sprintf("%-5s %-24s %s", l.ID, name, mark)
		if i == m.cursor {
			b.WriteString(centerText(cur.Render("> "+line), m.width))
		} else {
			b.WriteString(centerText("  "+line, m.width))
		}
		b.WriteString("\n")
	}

	if len(m.levels) > 0 {
		if desc := strings.TrimSpace(m.levels[m.cursor].Description); desc != "" {
			b.WriteString("\n")
			for _, line := range strings.Split(desc, "\n") {
				b.WriteString(centerText(dim.Render(line), m.width))
				b.WriteString("\n")
			}
		}
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(centerText(dim.Render(m.notice), m.width))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(centerText(dim.Render(m.help.View(m.keys)), m.width))
	b.WriteString("\n")
	return b.String()
}

// Selected returns the chosen level, or nil.
func (m PickerModel) Selected() *level.Level {
	return m.selected
}

// WantsStats reports whether the stats screen was requested.
func (m PickerModel) WantsStats() bool {
	return m.wantStats
}

// IsQuitting reports whether the player asked to quit.
func (m PickerModel) IsQuitting() bool {
	return m.quitting
}
