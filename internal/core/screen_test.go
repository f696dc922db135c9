package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 || s.Height() != 24 {
		t.Fatalf("size = %dx%d, want 80x24", s.Width(), s.Height())
	}
	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if c := s.Get(x, y); c.Rune != ' ' || c.Color != ColorDefault {
				t.Fatalf("new screen not blank at (%d, %d): %+v", x, y, c)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.Set(5, 5, 'X', ColorWall)
	if c := s.Get(5, 5); c.Rune != 'X' || c.Color != ColorWall {
		t.Errorf("Get(5, 5) = %+v", c)
	}

	s.Set(-1, 0, 'A', ColorDefault)
	s.Set(100, 0, 'A', ColorDefault)
	s.Set(0, -1, 'A', ColorDefault)
	s.Set(0, 100, 'A', ColorDefault)

	if s.Get(-1, 0).Rune != ' ' || s.Get(100, 0).Rune != ' ' {
		t.Error("out of bounds Get should return a blank cell")
	}
}

func TestScreenClear(t *testing.T) {
	s := NewScreen(4, 3)
	s.DrawText(0, 1, "abcd", ColorLabel)
	s.Clear()

	if got := s.String(); got != "    \n    \n    " {
		t.Errorf("after Clear String() = %q", got)
	}
}

func TestScreenDrawText(t *testing.T) {
	s := NewScreen(6, 1)
	s.DrawText(2, 0, "héllo", ColorLabel)

	if got := s.Row(0); got != "  héll" {
		t.Errorf("Row(0) = %q, want clipped text", got)
	}
	if s.Get(3, 0).Rune != 'é' || s.Get(3, 0).Color != ColorLabel {
		t.Errorf("multibyte rune misplaced: %+v", s.Get(3, 0))
	}
}

func TestScreenDrawBox(t *testing.T) {
	s := NewScreen(5, 3)
	s.DrawBox(NewRect(0, 0, 5, 3), ColorFrame)

	want := strings.Join([]string{
		"┌───┐",
		"│   │",
		"└───┘",
	}, "\n")
	if got := s.String(); got != want {
		t.Errorf("DrawBox:\n%s\nwant:\n%s", got, want)
	}
	if s.Get(0, 0).Color != ColorFrame {
		t.Error("box should carry its colour")
	}
}

func TestScreenResize(t *testing.T) {
	s := NewScreen(2, 2)
	s.Set(0, 0, 'x', ColorDefault)
	s.Resize(3, 1)

	if s.Width() != 3 || s.Height() != 1 {
		t.Fatalf("size = %dx%d, want 3x1", s.Width(), s.Height())
	}
	if s.Row(0) != "   " {
		t.Errorf("Resize should clear, got %q", s.Row(0))
	}
	if s.Row(5) != "   " {
		t.Errorf("out of range Row = %q", s.Row(5))
	}
}
