package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/codequest/internal/judge"
	"github.com/vovakirdan/codequest/internal/level"
	"github.com/vovakirdan/codequest/internal/logging"
	"github.com/vovakirdan/codequest/internal/progress"
	"github.com/vovakirdan/codequest/internal/session"
	"github.com/vovakirdan/codequest/internal/storage"
)

// Env holds the collaborators shared by every screen.
type Env struct {
	Catalog *level.Catalog
	Gateway judge.Gateway
	// Store is the local history. Nil disables it.
	Store *storage.Store
	// Remote is the gamification backend. Nil plays offline.
	Remote *progress.Client

	Options      session.Options
	TickInterval time.Duration
	Logger       *log.Logger
	// Dispatch runs judge and save calls; nil starts goroutines.
	Dispatch func(func())
	// Player is shown in the picker, e.g. the SSH user.
	Player string
}

func (e Env) savers() []session.ProgressSaver {
	var s []session.ProgressSaver
	if e.Store != nil {
		s = append(s, e.Store)
	}
	if e.Remote != nil {
		s = append(s, e.Remote)
	}
	return s
}

func (e Env) logger() *log.Logger {
	return logging.OrDiscard(e.Logger)
}

func (e Env) tickInterval() time.Duration {
	if e.TickInterval <= 0 {
		return time.Second / 30
	}
	return e.TickInterval
}

type screen uint8

const (
	screenPicker screen = iota
	screenPlay
	screenStats
)

// AppModel moves between the picker, the play screen and the stats
// table.
type AppModel struct {
	env    Env
	screen screen
	picker PickerModel
	play   PlayModel
	stats  StatsModel
	width  int
	height int
	err    error

	quitting bool
}

// NewAppModel creates the app. When startID names a level the app opens
// straight into it.
func NewAppModel(env Env, startID string, width, height int) (AppModel, error) {
	m := AppModel{
		env:    env,
		width:  width,
		height: height,
		picker: NewPickerModel(env, startID, width, height),
	}
	if startID == "" {
		return m, nil
	}

	l, err := env.Catalog.ByID(startID)
	if err != nil {
		return AppModel{}, err
	}
	play, err := NewPlayModel(env, l, width, height)
	if err != nil {
		return AppModel{}, err
	}
	m.play = play
	m.screen = screenPlay
	return m, nil
}

// Init initializes the current screen.
func (m AppModel) Init() tea.Cmd {
	if m.screen == screenPlay {
		return m.play.Init()
	}
	return m.picker.Init()
}

// Update routes messages to the current screen and handles transitions.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = wsm.Width
		m.height = wsm.Height
	}

	switch m.screen {
	case screenPlay:
		return m.updatePlay(msg)
	case screenStats:
		return m.updateStats(msg)
	default:
		return m.updatePicker(msg)
	}
}

func (m AppModel) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	switch {
	case m.picker.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.picker.WantsStats():
		m.stats = NewStatsModel(m.env, m.width, m.height)
		m.screen = screenStats
		return m, m.stats.Init()

	case m.picker.Selected() != nil:
		play, err := NewPlayModel(m.env, *m.picker.Selected(), m.width, m.height)
		if err != nil {
			m.err = err
			m.picker = NewPickerModel(m.env, m.picker.Selected().ID, m.width, m.height)
			return m, m.picker.Init()
		}
		m.err = nil
		m.play = play
		m.screen = screenPlay
		return m, m.play.Init()
	}
	return m, cmd
}

func (m AppModel) updatePlay(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.play, cmd = m.play.Update(msg)

	switch {
	case m.play.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.play.BackToPicker():
		focus := ""
		if l, ok := m.play.Controller().Level(); ok {
			focus = l.ID
		}
		m.picker = NewPickerModel(m.env, focus, m.width, m.height)
		m.screen = screenPicker
		return m, m.picker.Init()
	}
	return m, cmd
}

func (m AppModel) updateStats(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.stats, cmd = m.stats.Update(msg)

	switch {
	case m.stats.IsQuitting():
		m.quitting = true
		return m, tea.Quit
	case m.stats.IsGoingBack():
		m.picker = NewPickerModel(m.env, "", m.width, m.height)
		m.screen = screenPicker
		return m, m.picker.Init()
	}
	return m, cmd
}

// View renders the current screen.
func (m AppModel) View() string {
	if m.quitting {
		return ""
	}
	var v string
	switch m.screen {
	case screenPlay:
		v = m.play.View()
	case screenStats:
		v = m.stats.View()
	default:
		v = m.picker.View()
	}
	if m.err != nil {
		v += "\n" + fmt.Sprintf("error: %v", m.err)
	}
	return v
}

// Run starts the app in the local terminal.
func Run(env Env, startID string) error {
	model, err := NewAppModel(env, startID, 0, 0)
	if err != nil {
		return err
	}
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
