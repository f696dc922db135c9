package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/codequest/internal/core"
	"github.com/vovakirdan/codequest/internal/hints"
	"github.com/vovakirdan/codequest/internal/level"
	"github.com/vovakirdan/codequest/internal/session"
)

// Layout limits of the play screen.
const (
	minEditorWidth  = 30
	minEditorHeight = 6
	consoleHeight   = 8
	maxConsoleLines = 500
)

var (
	consoleStyles = map[session.Level]lipgloss.Style{
		session.LevelInfo:     lipgloss.NewStyle(),
		session.LevelProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		session.LevelWarn:     lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		session.LevelError:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		session.LevelSuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	}

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	focusedPaneStyle = paneStyle.BorderForeground(lipgloss.Color("62"))
	headerStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// eventBuffer collects session events between two updates. The
// controller only emits from the goroutine that drives it, so no locking
// is needed.
type eventBuffer struct {
	events []session.Event
}

func (b *eventBuffer) Send(evt session.Event) {
	b.events = append(b.events, evt)
}

func (b *eventBuffer) drain() []session.Event {
	evts := b.events
	b.events = nil
	return evts
}

// PlayModel is the screen where one level is solved.
type PlayModel struct {
	env    Env
	ctrl   *session.Controller
	events *eventBuffer
	clock  uint64
	ctx    context.Context
	cancel context.CancelFunc

	editor  textarea.Model
	console viewport.Model
	lines   []string
	screen  *core.Screen
	keys    PlayKeyMap
	help    help.Model

	width        int
	height       int
	focusConsole bool
	backToPicker bool
	quitting     bool
}

// NewPlayModel creates a play screen with l loaded.
func NewPlayModel(env Env, l level.Level, width, height int) (PlayModel, error) {
	events := &eventBuffer{}
	ctrl := session.New(session.Deps{
		Gateway:  env.Gateway,
		Savers:   env.savers(),
		Logger:   env.logger(),
		Sink:     events,
		Dispatch: env.Dispatch,
	}, env.Options)

	ctx, cancel := context.WithCancel(context.Background())
	m := PlayModel{
		env:     env,
		ctrl:    ctrl,
		events:  events,
		clock:   newClock(),
		ctx:     ctx,
		cancel:  cancel,
		editor:  textarea.New(),
		console: viewport.New(minEditorWidth, consoleHeight),
		keys:    DefaultPlayKeyMap(),
		help:    help.New(),
		width:   width,
		height:  height,
	}
	m.editor.ShowLineNumbers = true
	m.editor.CharLimit = 0
	m.editor.Placeholder = "Player.moveRight(1);"
	m.editor.Focus()

	if err := m.load(l); err != nil {
		cancel()
		return PlayModel{}, err
	}
	m.layout()
	return m, nil
}

// load switches the controller to l and resets the editor.
func (m *PlayModel) load(l level.Level) error {
	if err := m.ctrl.Load(l); err != nil {
		return err
	}
	m.editor.SetValue(strings.TrimRight(l.StarterCode, "\n"))
	m.lines = nil
	if desc := strings.TrimSpace(l.Description); desc != "" {
		for _, line := range strings.Split(desc, "\n") {
			m.appendLine(consoleStyles[session.LevelInfo].Render(line))
		}
	}
	w, h := core.BoardSize(m.ctrl.Grid())
	m.screen = core.NewScreen(w, h)
	m.pump()
	m.updateKeys()
	return nil
}

// Init starts the simulation clock.
func (m PlayModel) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, tickCmd(m.clock, m.env.tickInterval()))
}

// Update handles messages for the play screen.
func (m PlayModel) Update(msg tea.Msg) (PlayModel, tea.Cmd) {
	switch msg := msg.(type) {
	case TickMsg:
		if msg.Clock != m.clock || m.backToPicker || m.quitting {
			return m, nil
		}
		m.ctrl.Tick(m.env.tickInterval())
		m.pump()
		m.updateKeys()
		return m, tickCmd(m.clock, m.env.tickInterval())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.focusConsole {
		m.console, cmd = m.console.Update(msg)
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m PlayModel) handleKey(msg tea.KeyMsg) (PlayModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.Close()
		return m, nil

	case key.Matches(msg, m.keys.Back):
		m.backToPicker = true
		m.Close()
		return m, nil

	case key.Matches(msg, m.keys.Run):
		m.run()
		return m, nil

	case key.Matches(msg, m.keys.Reset):
		m.ctrl.Reset()
		m.pump()
		return m, nil

	case key.Matches(msg, m.keys.Solution):
		m.useSolution()
		return m, nil

	case key.Matches(msg, m.keys.Next):
		m.next()
		return m, nil

	case key.Matches(msg, m.keys.Focus):
		m.focusConsole = !m.focusConsole
		if m.focusConsole {
			m.editor.Blur()
			return m, nil
		}
		cmd := m.editor.Focus()
		return m, cmd
	}

	var cmd tea.Cmd
	if m.focusConsole {
		m.console, cmd = m.console.Update(msg)
	} else {
		m.editor, cmd = m.editor.Update(msg)
	}
	return m, cmd
}

func (m *PlayModel) run() {
	_, err := m.ctrl.Run(m.ctx, m.editor.Value())
	switch {
	case errors.Is(err, session.ErrNotReady) && m.ctrl.State() == session.StateSucceeded:
		m.notify(session.LevelInfo, "This level is complete. Press ^n for the next one or esc for the level list.")
	case errors.Is(err, session.ErrNotReady):
		m.notify(session.LevelWarn, "A run is already in progress. Press ^t to stop it.")
	case err != nil:
		m.notify(session.LevelError, err.Error())
	}
	m.pump()
}

func (m *PlayModel) useSolution() {
	sol, err := m.ctrl.UseSolution()
	switch {
	case errors.Is(err, hints.ErrSolutionLocked):
		st := m.ctrl.Attempts()
		left := hints.MaxTier*st.K - st.Failed
		m.notify(session.LevelWarn, fmt.Sprintf("The solution unlocks after %d more failed attempt(s).", left))
	case err != nil:
		m.notify(session.LevelWarn, err.Error())
	default:
		m.editor.SetValue(strings.TrimRight(sol, "\n"))
		m.notify(session.LevelWarn, "Reference solution loaded into the editor.")
	}
}

func (m *PlayModel) next() {
	lvl, ok := m.ctrl.Level()
	if !ok {
		return
	}
	nl, ok := m.env.Catalog.Next(lvl.ID)
	if !ok {
		m.notify(session.LevelInfo, "That was the last level.")
		return
	}
	if err := m.load(nl); err != nil {
		m.notify(session.LevelError, err.Error())
	}
	m.layout()
}

// pump moves pending session events into the console.
func (m *PlayModel) pump() {
	for _, evt := range m.events.drain() {
		for _, line := range session.Describe(evt) {
			m.notify(line.Level, line.Text)
		}
	}
}

func (m *PlayModel) notify(lvl session.Level, text string) {
	m.appendLine(consoleStyles[lvl].Render(text))
}

func (m *PlayModel) appendLine(line string) {
	m.lines = append(m.lines, line)
	if len(m.lines) > maxConsoleLines {
		m.lines = m.lines[len(m.lines)-maxConsoleLines:]
	}
	m.console.SetContent(lipgloss.NewStyle().Width(m.console.Width).Render(strings.Join(m.lines, "\n")))
	m.console.GotoBottom()
}

func (m *PlayModel) updateKeys() {
	lvl, ok := m.ctrl.Level()
	_, hasNext := m.env.Catalog.Next(lvl.ID)
	m.keys.Next.SetEnabled(ok && hasNext && m.ctrl.State() == session.StateSucceeded)
}

// layout sizes the editor and console around the board.
func (m *PlayModel) layout() {
	boardW := 0
	if m.screen != nil {
		boardW = m.screen.Width()
	}
	w := max(m.width-boardW-6, minEditorWidth)
	h := max(m.height-consoleHeight-8, minEditorHeight)
	m.editor.SetWidth(w)
	m.editor.SetHeight(h)
	m.console.Width = w
	m.console.Height = consoleHeight
	m.console.SetContent(lipgloss.NewStyle().Width(w).Render(strings.Join(m.lines, "\n")))
	m.console.GotoBottom()
}

// View renders the play screen.
func (m PlayModel) View() string {
	if m.quitting {
		return ""
	}

	lvl, _ := m.ctrl.Level()
	header := headerStyle.Render(lvl.ID + "  " + lvl.Title())

	m.screen.Clear()
	core.DrawBoard(m.screen, 0, 0, core.Board{
		Grid:  m.ctrl.Grid(),
		Start: lvl.Start,
		Goal:  lvl.Goal,
		Actor: m.ctrl.ActorWorld(),
	})
	left := lipgloss.JoinVertical(lipgloss.Left,
		RenderScreen(m.screen),
		"",
		m.statusView(),
		"",
		m.hintsView(),
	)

	editorPane, consolePane := focusedPaneStyle, paneStyle
	if m.focusConsole {
		editorPane, consolePane = paneStyle, focusedPaneStyle
	}
	right := lipgloss.JoinVertical(lipgloss.Left,
		editorPane.Render(m.editor.View()),
		consolePane.Render(m.console.View()),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right)
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, dimStyle.Render(m.help.View(m.keys)))
}

func (m PlayModel) statusView() string {
	st := m.ctrl.Attempts()
	lines := []string{
		fmt.Sprintf("State    %s", m.ctrl.State()),
		fmt.Sprintf("Time     %s", session.FormatElapsed(m.ctrl.Elapsed())),
		fmt.Sprintf("Failed   %d", st.Failed),
		fmt.Sprintf("Hints    %d/%d", min(st.Tier, hints.MaxTier-1), hints.MaxTier-1),
	}
	if i, n := m.ctrl.Progress(); n > 0 {
		lines = append(lines, fmt.Sprintf("Command  %d/%d", i+1, n))
	}
	if stats, ok := m.ctrl.Stats(); ok {
		lines = append(lines, "Rating   "+session.StarString(stats.Stars))
	}
	return strings.Join(lines, "\n")
}

func (m PlayModel) hintsView() string {
	unlocked := m.ctrl.Hints()
	if len(unlocked) == 0 {
		st := m.ctrl.Attempts()
		return dimStyle.Render(fmt.Sprintf("First hint after %d failed attempt(s).", hints.AttemptsUntilNextTier(st.Failed, st.K)))
	}
	var b strings.Builder
	for i, h := range unlocked {
		fmt.Fprintf(&b, "Hint %d: %s\n", i+1, h)
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("214")).
		Width(max(m.screen.Width(), 24)).
		Render(strings.TrimRight(b.String(), "\n"))
}

// Close cancels pending judge requests.
func (m PlayModel) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}

// Controller exposes the session for inspection.
func (m PlayModel) Controller() *session.Controller {
	return m.ctrl
}

// BackToPicker reports whether the player left the level.
func (m PlayModel) BackToPicker() bool {
	return m.backToPicker
}

// IsQuitting reports whether the player asked to quit.
func (m PlayModel) IsQuitting() bool {
	return m.quitting
}
