package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	selected lipgloss.Style
	muted    lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	alert    lipgloss.Style
	graph    lipgloss.Style
	panel    lipgloss.Style
	canvas   lipgloss.Style
}

func themeStyles(th Theme) styles {
	return styles{
		header:   lipgloss.NewStyle().Foreground(th.Primary).Bold(true).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(th.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(th.Text),
		selected: lipgloss.NewStyle().Foreground(th.Secondary).Bold(true),
		muted:    lipgloss.NewStyle().Foreground(th.Muted),
		running:  lipgloss.NewStyle().Foreground(th.Success).Bold(true),
		paused:   lipgloss.NewStyle().Foreground(th.Warning).Bold(true),
		alert:    lipgloss.NewStyle().Foreground(th.Error).Bold(true),
		graph:    lipgloss.NewStyle().Foreground(th.Accent).Padding(1, 0),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(th.Muted).
			Padding(1, 2).
			Width(66),
		canvas: lipgloss.NewStyle().Foreground(th.Primary).Padding(1, 2),
	}
}

// ProgressBar renders fraction in [0, 1] as a bar of width cells, colored
// by how full it is.
func ProgressBar(fraction float64, width int, th Theme) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	color := th.Error
	if fraction > 0.8 {
		color = th.Success
	} else if fraction > 0.4 {
		color = th.Warning
	}
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

// Sparkline renders the last width values as block characters.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 {
		return strings.Repeat("─", width)
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[max(0, min(idx, len(chars)-1))])
	}
	return b.String()
}

func Separator(width int, th Theme) string {
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return lipgloss.NewStyle().Foreground(th.Muted).Render(left + " ◆ " + right)
}
