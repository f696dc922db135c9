package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/codequest/internal/core"
)

// colorStyles maps semantic board colours to terminal styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault: lipgloss.NewStyle(),
	core.ColorFloor:   lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	core.ColorWall:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	core.ColorGoal:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
	core.ColorActor:   lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true),
	core.ColorStart:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorFrame:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	core.ColorLabel:   lipgloss.NewStyle().Foreground(lipgloss.Color("229")),
}

// RenderScreen converts a Screen buffer to a styled string.
// Adjacent cells with the same colour share one escape sequence.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			color := s.Get(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.Get(x, y)
				if cell.Color != color {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[color]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// centerText pads text so it is centred in width columns.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	return strings.Repeat(" ", (width-w)/2) + text
}
