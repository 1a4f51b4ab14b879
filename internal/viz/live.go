package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/surfsim/internal/actuator"
	"github.com/san-kum/surfsim/internal/config"
	"github.com/san-kum/surfsim/internal/experiment"
	"github.com/san-kum/surfsim/internal/sim"
	"github.com/san-kum/surfsim/internal/units"
)

const (
	canvasWidth     = 48
	canvasHeight    = 20
	historyCapacity = 600
	frameRate       = 60
	positionStep    = 0.05
)

type TickMsg time.Time

// Model runs a scenario in real time and lets the user drive its demands.
type Model struct {
	cfg    *config.Config
	logger *zap.Logger

	sim     *sim.Simulator
	sample  sim.Sample
	nominal map[string]float64
	err     error

	canvas   *Canvas
	running  bool
	selected int
	showHelp bool

	positions []float64
	forces    [][]float64
}

// NewModel builds the scenario described by a resolved config.
func NewModel(cfg *config.Config, logger *zap.Logger) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := Model{
		cfg:     cfg,
		logger:  logger,
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		running: true,
	}
	m.canvas.SetViewport(Viewport{MinX: -0.2, MaxX: 1.1, MinY: -0.8, MaxY: 0.8})
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m *Model) reset() error {
	w, err := experiment.BuildWorld(m.cfg)
	if err != nil {
		return err
	}
	m.sim = sim.New(w, m.logger)
	m.sim.SetDrainEvery(m.cfg.DrainEvery)
	m.sample = m.sim.Sample()
	m.err = nil
	m.nominal = make(map[string]float64)
	for _, c := range w.Network.Circuits() {
		m.nominal[c.Name] = c.Pressure
	}
	m.positions = m.positions[:0]
	m.forces = make([][]float64, w.Assembly.Len())
	if m.selected >= w.Assembly.Len() {
		m.selected = 0
	}
	return nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.running && m.err == nil {
			m.advance(1.0 / frameRate)
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	w := m.sim.World()
	d := w.Demands[m.selected]
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "r":
		if err := m.reset(); err != nil {
			m.err = err
		}
	case "tab":
		m.selected = (m.selected + 1) % len(w.Demands)
	case "up", "k":
		m.command(positionStep)
	case "down", "j":
		m.command(-positionStep)
	case "m":
		d.Mode = (d.Mode + 1) % (actuator.ClosedCircuitDamping + 1)
	case "l":
		lock := !w.Demands[0].Lock
		for _, dd := range w.Demands {
			dd.Lock = lock
			dd.LockAt = dd.Position
		}
	case "s":
		d.SoftLock = !d.SoftLock
	case "e":
		d.ElectricMode = !d.ElectricMode
	case "p":
		route := w.Network.Routes()[m.selected]
		if c, ok := w.Network.Circuit(route.Supply); ok {
			if c.Pressure > 0 {
				c.Pressure = 0
			} else {
				c.Pressure = m.nominal[c.Name]
			}
		}
	case "b":
		route := w.Network.Routes()[m.selected]
		if bus, ok := w.Network.Bus(route.Bus); ok {
			bus.Powered = !bus.Powered
		}
	case "t":
		NextTheme()
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

// command moves every position demand by delta, within [0, 1].
func (m *Model) command(delta float64) {
	for _, d := range m.sim.World().Demands {
		d.Position = math.Max(0, math.Min(1, d.Position+delta))
	}
}

// advance steps the scenario by wall-clock time span.
func (m *Model) advance(span float64) {
	steps := max(1, int(math.Round(span/m.cfg.Dt)))
	for i := 0; i < steps; i++ {
		s, err := m.sim.Step(m.cfg.Dt)
		if err != nil {
			m.err = err
			m.running = false
			return
		}
		m.sample = s
	}
	m.record()
}

func (m *Model) record() {
	m.positions = appendCapped(m.positions, m.sample.Position)
	for i, a := range m.sample.Actuators {
		m.forces[i] = appendCapped(m.forces[i], a.Force)
	}
}

func appendCapped(xs []float64, v float64) []float64 {
	xs = append(xs, v)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

// draw renders a side view: hinge at the origin, chord rotated by the
// normalized position between the travel limits, one actuator rod per
// actuator from a fixed anchor below the hinge line.
func (m *Model) draw() {
	c := m.canvas
	c.Clear()
	b := m.sim.World().Assembly.Body()

	chordAngle := func(pos float64) float64 { return (pos - 0.5) * math.Pi / 2 }
	ray := func(pos, r float64) (float64, float64) {
		a := chordAngle(pos)
		return r * math.Cos(a), r * math.Sin(a)
	}

	for _, limit := range []float64{0, 1} {
		x, y := ray(limit, 1)
		c.Dashed(0, 0, x, y, 2)
	}
	if b.IsSoftLocked() {
		x, y := ray(m.sample.Position, 1.05)
		c.Point(x, y)
	}

	x, y := ray(m.sample.Position, 1)
	c.Segment(0, 0, x, y)
	c.Segment(0, -0.05, 0, 0.05)

	n := len(m.sample.Actuators)
	for i := range m.sample.Actuators {
		attach := 0.25 + 0.1*float64(i)
		ax, ay := ray(m.sample.Position, attach)
		anchorX := attach - 0.05*float64(n-1) + 0.1*float64(i)
		c.Segment(anchorX, -0.7, ax, ay)
		c.Segment(anchorX-0.03, -0.7, anchorX+0.03, -0.7)
	}
	if b.IsLocked() {
		x, y := ray(m.sample.Position, 1)
		c.Segment(x-0.04, y-0.04, x+0.04, y+0.04)
		c.Segment(x-0.04, y+0.04, x+0.04, y-0.04)
	}
}

func (m Model) View() string {
	st := themeStyles(CurrentTheme)
	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.cfg.Name)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.alert.Render("STOPPED: "+m.err.Error()) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	if len(m.positions) > 1 {
		chart := asciigraph.Plot(m.positions,
			asciigraph.Height(5),
			asciigraph.Width(40),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Caption("position"),
		)
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	smp := m.sample
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", smp.Time))
	row("Position", fmt.Sprintf("%.3f", smp.Position))
	row("Angle", fmt.Sprintf("%.1f°", units.ToDeg(smp.Angle)))
	row("Travel", ProgressBar(smp.Position, 20, CurrentTheme))
	lock := "free"
	if smp.Locked {
		lock = "locked"
	} else if smp.SoftLocked {
		lock = "soft locked"
	}
	row("Lock", lock)

	s.WriteString("\n" + st.muted.Render("ACTUATORS") + "\n")
	demands := m.sim.World().Demands
	for i, a := range smp.Actuators {
		line := fmt.Sprintf("#%d %-22s cmd %.2f F %7.0fN %s", i, a.Mode, demands[i].Position, a.Force, Sparkline(m.forces[i], 8))
		if a.BackupActive {
			line += " EHA"
		}
		if i == m.selected {
			s.WriteString(st.selected.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + st.value.Render(line) + "\n")
		}
	}

	s.WriteString("\n" + st.muted.Render("CIRCUITS") + "\n")
	for _, c := range m.sim.World().Network.Circuits() {
		row(c.Name, fmt.Sprintf("%5.0f psi  drawn %.3f L", units.ToPsi(c.Pressure), c.Drawn*1000))
	}

	s.WriteString("\n" + Separator(40, CurrentTheme) + "\n")
	s.WriteString(st.muted.Render("SP:Pause R:Reset Q:Quit ↑↓:Command\nTab:Select M:Mode L:Lock ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════════╗
║             KEYBOARD SHORTCUTS            ║
╠══════════════════════════════════════════╣
║  Space    - Pause/Resume simulation      ║
║  R        - Rebuild scenario             ║
║  Q        - Quit                         ║
║  Tab      - Select next actuator         ║
║  Up/K     - Command +0.05                ║
║  Down/J   - Command -0.05                ║
║  M        - Cycle actuator mode          ║
║  L        - Toggle mechanical lock       ║
║  S        - Toggle soft lock             ║
║  P        - Toggle supply pressure       ║
║  E        - Toggle electric backup       ║
║  B        - Toggle bus power             ║
║  T        - Cycle themes                 ║
║  ?        - Toggle this help             ║
╚══════════════════════════════════════════╝`
