package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/san-kum/surfsim/internal/config"
)

const (
	stateMenu = iota
	stateSim
)

// Menu lists the preset scenarios and opens the selected one in a live view.
type Menu struct {
	state, cursor int
	scenarios     []string
	logger        *zap.Logger
	err           error
	live          Model
}

func NewMenu(logger *zap.Logger) Menu {
	return Menu{scenarios: config.ListPresets(), logger: logger}
}

func (m Menu) Init() tea.Cmd { return nil }

func (m Menu) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
		live, cmd := m.live.Update(msg)
		m.live = live.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.scenarios)-1 {
			m.cursor++
		}
	case "enter", " ":
		return m.open(m.scenarios[m.cursor])
	}
	return m, nil
}

func (m Menu) open(name string) (tea.Model, tea.Cmd) {
	cfg := config.GetPreset(name)
	if err := cfg.Resolve(); err != nil {
		m.err = err
		return m, nil
	}
	live, err := NewModel(cfg, m.logger)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live, m.err, m.state = live, nil, stateSim
	return m, live.Init()
}

func (m Menu) View() string {
	if m.state == stateSim {
		return m.live.View()
	}

	th := CurrentTheme
	h := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)
	sub := lipgloss.NewStyle().Foreground(th.Muted)
	pick := lipgloss.NewStyle().Foreground(th.Secondary).Bold(true)
	key := lipgloss.NewStyle().Foreground(th.Primary).Bold(true)

	var b strings.Builder
	b.WriteString("\n\n    " + h.Render("SURFSIM") + "\n    " + sub.Render("control surface actuation") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, name := range m.scenarios {
		desc := config.GetPreset(name).Description
		if len(desc) > 48 {
			desc = desc[:45] + "..."
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", pick.Render("▸"), pick.Render(fmt.Sprintf("%-20s", name)), lipgloss.NewStyle().Foreground(th.Text).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-20s", name)), sub.Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(th.Error).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" open  ") + key.Render("esc") + sub.Render(" back  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// RunInteractive opens the scenario picker on the alternate screen.
func RunInteractive(logger *zap.Logger) error {
	_, err := tea.NewProgram(NewMenu(logger), tea.WithAltScreen()).Run()
	return err
}

// RunLive opens one scenario directly.
func RunLive(cfg *config.Config, logger *zap.Logger) error {
	m, err := NewModel(cfg, logger)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
