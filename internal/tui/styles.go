package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
)

// sparkline draws data as block characters, sampling down to width.
func sparkline(data []float64, width int) string {
	if len(data) == 0 || width < 1 {
		return ""
	}
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	minVal, maxVal := data[0], data[0]
	for _, v := range data {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	rang := maxVal - minVal
	if rang == 0 {
		rang = 1
	}
	step := len(data) / width
	if step < 1 {
		step = 1
	}
	var sb strings.Builder
	for i := 0; i < width && i*step < len(data); i++ {
		idx := int((data[i*step] - minVal) / rang * 7)
		idx = max(0, min(idx, 7))
		sb.WriteRune(chars[idx])
	}
	return sb.String()
}

// bar renders a progress bar of the given width for frac in [0, 1].
func bar(frac float64, width int) string {
	frac = math.Max(0, math.Min(frac, 1))
	full := int(frac * float64(width))
	return cyan.Render(strings.Repeat("━", full)) + dimmer.Render(strings.Repeat("━", width-full))
}

// Summary renders aligned key/value rows under a title.
func Summary(title string, rows [][2]string) string {
	var b strings.Builder
	b.WriteString("\n  " + cyan.Render(title) + "\n")
	b.WriteString(dimmer.Render("  "+strings.Repeat("─", 36)) + "\n")
	for _, r := range rows {
		b.WriteString(fmt.Sprintf("  %s %s\n", dim.Render(fmt.Sprintf("%-18s", r[0])), white.Render(r[1])))
	}
	return b.String()
}
