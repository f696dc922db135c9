package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/codequest/internal/core"
	"github.com/vovakirdan/codequest/internal/judge"
	"github.com/vovakirdan/codequest/internal/level"
	"github.com/vovakirdan/codequest/internal/session"
	"github.com/vovakirdan/codequest/internal/storage"
)

func testEnv(t *testing.T) Env {
	t.Helper()
	return Env{
		Catalog:      level.NewCatalog(),
		Gateway:      judge.NewLocal(),
		Options:      session.DefaultOptions(),
		TickInterval: 50 * time.Millisecond,
		Dispatch:     func(f func()) { f() },
	}
}

func openStore(t *testing.T) *storage.Store {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newPlay(t *testing.T, env Env, id string) PlayModel {
	t.Helper()
	l, err := env.Catalog.ByID(id)
	if err != nil {
		t.Fatalf("ByID(%q) failed: %v", id, err)
	}
	m, err := NewPlayModel(env, l, 120, 40)
	if err != nil {
		t.Fatalf("NewPlayModel() failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func tickUntil(m PlayModel, n int, done func(PlayModel) bool) PlayModel {
	for i := 0; i < n && !done(m); i++ {
		m, _ = m.Update(TickMsg{Clock: m.clock})
	}
	return m
}

func consoleContains(m PlayModel, s string) bool {
	return strings.Contains(strings.Join(m.lines, "\n"), s)
}

func TestPlaySolvesLevel(t *testing.T) {
	store := openStore(t)
	env := testEnv(t)
	env.Store = store
	m := newPlay(t, env, "1-1")

	m.editor.SetValue("Player.moveRight(5);")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = tickUntil(m, 200, func(m PlayModel) bool {
		return m.ctrl.State() == session.StateSucceeded && m.ctrl.Idle()
	})

	if got := m.ctrl.State(); got != session.StateSucceeded {
		t.Fatalf("state = %s, want succeeded", got)
	}
	// One more tick applies the queued save result.
	m, _ = m.Update(TickMsg{Clock: m.clock})
	if !consoleContains(m, "Level 1-1 complete") {
		t.Errorf("console does not report completion:\n%s", strings.Join(m.lines, "\n"))
	}
	if !consoleContains(m, "Saved (local)") {
		t.Errorf("console does not report the save:\n%s", strings.Join(m.lines, "\n"))
	}
	if !m.keys.Next.Enabled() {
		t.Error("next level key should be enabled after completion")
	}

	stats, err := store.LevelStats("1-1")
	if err != nil {
		t.Fatalf("LevelStats() failed: %v", err)
	}
	if stats.Completions != 1 {
		t.Errorf("completions = %d, want 1", stats.Completions)
	}
}

func TestPlayBlankSourceFails(t *testing.T) {
	m := newPlay(t, testEnv(t), "1-1")
	m.editor.SetValue("   ")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m, _ = m.Update(TickMsg{Clock: m.clock})

	if got := m.ctrl.Attempts().Failed; got != 1 {
		t.Errorf("failed = %d, want 1", got)
	}
	if !consoleContains(m, judge.MsgEmptySource) {
		t.Errorf("console = %q", m.lines)
	}
}

func TestPlaySolutionLocked(t *testing.T) {
	m := newPlay(t, testEnv(t), "1-1")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if !consoleContains(m, "solution unlocks after") {
		t.Errorf("console = %q", m.lines)
	}
	if strings.Contains(m.editor.Value(), "moveRight(5)") {
		t.Error("locked solution was loaded into the editor")
	}
}

func TestPlayIgnoresForeignTicks(t *testing.T) {
	m := newPlay(t, testEnv(t), "1-1")
	m, cmd := m.Update(TickMsg{Clock: m.clock + 1000})
	if cmd != nil {
		t.Error("foreign tick scheduled another tick")
	}
	if m.ctrl.Elapsed() != 0 {
		t.Errorf("elapsed = %v, want 0", m.ctrl.Elapsed())
	}

	m, cmd = m.Update(TickMsg{Clock: m.clock})
	if cmd == nil {
		t.Error("own tick did not schedule the next one")
	}
	if m.ctrl.Elapsed() != 50*time.Millisecond {
		t.Errorf("elapsed = %v, want 50ms", m.ctrl.Elapsed())
	}
}

func TestPlayRunWhileExecuting(t *testing.T) {
	env := testEnv(t)
	m := newPlay(t, env, "1-1")
	m.editor.SetValue("Player.moveRight(5);")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m, _ = m.Update(TickMsg{Clock: m.clock})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})

	if !consoleContains(m, "already in progress") {
		t.Errorf("console = %q", m.lines)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	if m.ctrl.State() != session.StateReady {
		t.Errorf("state after reset = %s, want ready", m.ctrl.State())
	}
}

func TestPickerNavigation(t *testing.T) {
	env := testEnv(t)
	levels, err := env.Catalog.LoadAll()
	if err != nil || len(levels) < 3 {
		t.Fatalf("LoadAll() = %d levels, %v", len(levels), err)
	}

	m := NewPickerModel(env, levels[1].ID, 80, 40)
	if m.cursor != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor)
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if sel := m.Selected(); sel == nil || sel.ID != levels[2].ID {
		t.Errorf("selected = %v, want %s", sel, levels[2].ID)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if !m.WantsStats() {
		t.Error("tab should open stats")
	}
}

func TestPickerStars(t *testing.T) {
	m := NewPickerModel(testEnv(t), "", 80, 40)
	m, _ = m.Update(progressLoadedMsg{
		local: map[string]*storage.LevelStats{
			"1-1": {LevelID: "1-1", Completions: 1, BestStars: 2},
			"1-2": {LevelID: "1-2", Attempts: 3},
		},
	})

	if stars, done := m.stars("1-1"); !done || stars != 2 {
		t.Errorf("stars(1-1) = %d, %v", stars, done)
	}
	if _, done := m.stars("1-2"); done {
		t.Error("1-2 was never completed")
	}
	if !strings.Contains(m.View(), "★★☆") {
		t.Error("view does not show the rating")
	}
}

func TestStatsClearLevel(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if _, err := store.SaveProgress(ctx, session.Completion{LevelID: "1-1", Stars: 3, Elapsed: 20 * time.Second}); err != nil {
		t.Fatalf("SaveProgress() failed: %v", err)
	}

	env := testEnv(t)
	env.Store = store
	m := NewStatsModel(env, 120, 40)

	rows := m.table.Rows()
	if len(rows) == 0 || rows[0][0] != "1-1" {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][2] != "★★★" || rows[0][4] != "1" {
		t.Errorf("row = %v", rows[0])
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if got := m.table.Rows()[0][4]; got != "0" {
		t.Errorf("clears after ClearLevel = %s, want 0", got)
	}
}

func TestAppTransitions(t *testing.T) {
	app, err := NewAppModel(testEnv(t), "1-1", 120, 40)
	if err != nil {
		t.Fatalf("NewAppModel() failed: %v", err)
	}
	if app.screen != screenPlay {
		t.Fatalf("screen = %d, want play", app.screen)
	}

	model, _ := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	app = model.(AppModel)
	if app.screen != screenPicker {
		t.Fatalf("screen after esc = %d, want picker", app.screen)
	}
	if app.picker.levels[app.picker.cursor].ID != "1-1" {
		t.Error("picker should focus the level that was left")
	}

	model, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	app = model.(AppModel)
	if !app.quitting || cmd == nil {
		t.Error("q should quit from the picker")
	}
}

func TestAppUnknownLevel(t *testing.T) {
	if _, err := NewAppModel(testEnv(t), "9-9", 80, 24); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestRenderScreenPlain(t *testing.T) {
	s := core.NewScreen(4, 2)
	s.DrawText(0, 0, "ab", core.ColorGoal)
	s.Set(3, 1, '@', core.ColorActor)

	got := RenderScreen(s)
	if !strings.Contains(got, "ab") || !strings.Contains(got, "@") {
		t.Errorf("RenderScreen() = %q", got)
	}
	if strings.Count(got, "\n") != 1 {
		t.Errorf("RenderScreen() rows = %d, want 2", strings.Count(got, "\n")+1)
	}
}

func TestPlayerRegistry(t *testing.T) {
	r := NewPlayerRegistry()
	now := time.Now()
	a := r.Join("ann", "1.2.3.4:1", now)
	b := r.Join("bob", "1.2.3.4:2", now.Add(time.Second))
	if a == b {
		t.Fatal("ids must be unique")
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	if ps := r.Players(); ps[0].User != "ann" || ps[1].User != "bob" {
		t.Errorf("Players() = %+v", ps)
	}

	r.Leave(a)
	r.Leave(a)
	if r.Count() != 1 {
		t.Errorf("Count() after leave = %d, want 1", r.Count())
	}
}
