package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/metrics"
	"github.com/san-kum/fibersag/internal/physics"
)

const (
	width           = 80
	height          = 24
	fps             = 60
	historyCapacity = 600
	maxStepsPerTick = 1 << 16
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(1, 2)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(1, 2).Width(45)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a chain between frames and draws it with its convergence
// state.
type Model struct {
	chain   *physics.Chain
	cfg     dynamo.Config
	monitor *metrics.Convergence
	title   string

	canvas        *Canvas
	running       bool
	stepsPerFrame int
	frame         int
	showHelp      bool

	heights  []float64 // sampled lowest heights, scaled
	history  []dynamo.Snapshot
	playHead int

	// vertical extent of the view eases toward the current sag
	zoom, zoomVel float64
	zoomSpring    harmonica.Spring
}

func NewModel(chain *physics.Chain, cfg dynamo.Config, title string) Model {
	if cfg.SampleEvery < 1 {
		cfg.SampleEvery = 1
	}
	if cfg.HeightScale == 0 {
		cfg.HeightScale = 1
	}
	return Model{
		chain:         chain,
		cfg:           cfg,
		monitor:       metrics.NewConvergence(cfg.Window),
		title:         title,
		canvas:        NewCanvas(width, height),
		running:       true,
		stepsPerFrame: cfg.SampleEvery,
		heights:       make([]float64, 0, historyCapacity),
		history:       make([]dynamo.Snapshot, 0, historyCapacity),
		playHead:      -1,
		zoom:          initialDepth(chain),
		zoomSpring:    harmonica.NewSpring(harmonica.FPS(fps), 4.0, 0.8),
	}
}

func initialDepth(c *physics.Chain) float64 {
	d := math.Abs(c.LowestHeight())
	if d < 1e-3 {
		pos := c.Positions()
		d = 0.1 * math.Abs(pos[len(pos)-1].X-pos[0].X)
	}
	return d
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
			if m.running {
				m.playHead = -1
			}
		case "n":
			if !m.running && m.playHead == -1 {
				m.advance(1)
			}
		case "r":
			m.reset()
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "+", "=":
			m.stepsPerFrame = min(m.stepsPerFrame*2, maxStepsPerTick)
		case "-", "_":
			m.stepsPerFrame = max(m.stepsPerFrame/2, 1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.frame++
		if m.running && m.playHead == -1 {
			m.advance(m.stepsPerFrame)
		}
		m.easeZoom()
		return m, tick()
	}
	return m, nil
}

// advance takes up to n steps, sampling on the configured cadence. A
// divergence pauses the model.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		if err := m.chain.Step(); err != nil {
			m.running = false
			return
		}
		if m.chain.Steps()%m.cfg.SampleEvery == 0 {
			m.sample()
		}
	}
}

func (m *Model) sample() {
	s := m.chain.Snapshot()
	h := s.LowestHeight * m.cfg.HeightScale
	m.monitor.Observe(h)

	m.heights = append(m.heights, h)
	if len(m.heights) > historyCapacity {
		m.heights = m.heights[1:]
	}
	m.history = append(m.history, s)
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func (m *Model) easeZoom() {
	target := initialDepth(m.chain)
	if m.playHead >= 0 {
		target = math.Max(math.Abs(m.history[m.playHead].LowestHeight), 1e-3)
	}
	m.zoom, m.zoomVel = m.zoomSpring.Update(m.zoom, m.zoomVel, target)
	if m.zoom <= 0 || math.IsNaN(m.zoom) {
		m.zoom, m.zoomVel = target, 0
	}
}

// scrub moves the replay position through the sampled history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset restores the initial layout and clears the monitor.
func (m *Model) reset() {
	m.chain.Reset()
	m.monitor.Reset()
	m.heights = m.heights[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.zoom, m.zoomVel = initialDepth(m.chain), 0
}

func (m Model) Running() bool { return m.running }

func (m Model) Chain() *physics.Chain { return m.chain }

func (m Model) Monitor() *metrics.Convergence { return m.monitor }

func (m Model) Heights() []float64 { return m.heights }

func (m Model) StepsPerFrame() int { return m.stepsPerFrame }

func (m Model) Zoom() float64 { return m.zoom }

func (m Model) Converged() bool {
	return m.monitor.IsConverged(m.cfg.Threshold)
}

func (m Model) state() runState {
	switch {
	case m.chain.Err() != nil:
		return statusDiverged
	case m.playHead >= 0:
		return statusReplay
	case m.Converged():
		return statusConverged
	case !m.running:
		return statusPaused
	}
	return statusRunning
}

func (m Model) status() string {
	st := m.state()
	label := map[runState]string{
		statusDiverged:  "DIVERGED",
		statusConverged: "CONVERGED",
		statusPaused:    "PAUSED",
		statusRunning:   spinnerFrames[m.frame%len(spinnerFrames)] + " RUNNING",
	}[st]
	if st == statusReplay {
		label = fmt.Sprintf("REPLAY %d/%d", m.playHead+1, len(m.history))
	}
	return statusStyle(st).Render(label)
}

func (m *Model) draw(positions []dynamo.Vector2D) {
	m.canvas.Clear()
	vp := FitViewport(positions, m.zoom)

	// dashed support line at y=0
	y0 := dynamo.Vec(vp.MinX, 0)
	_, sy := vp.Project(m.canvas, y0)
	for x := 0; x < m.canvas.SubWidth(); x += 4 {
		m.canvas.Set(x, sy)
	}

	m.canvas.DrawPolyline(vp, positions)

	for _, a := range []dynamo.Vector2D{positions[0], positions[len(positions)-1]} {
		ax, ay := vp.Project(m.canvas, a)
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				m.canvas.Set(ax+dx, ay+dy)
			}
		}
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	var positions []dynamo.Vector2D
	step, t, lowest, ke := m.chain.Steps(), m.chain.Time(), m.chain.LowestHeight(), m.chain.KineticEnergy()
	if m.playHead >= 0 && m.playHead < len(m.history) {
		snap := m.history[m.playHead]
		positions = snap.Positions
		step, t, lowest, ke = snap.Step, snap.Time, snap.LowestHeight, snap.KineticEnergy
	} else {
		positions = m.chain.Positions()
	}
	m.draw(positions)

	canvasView := canvasStyle.Foreground(CurrentTheme.Primary).Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(GradientText(strings.ToUpper(m.title), CurrentTheme.Accent, CurrentTheme.Primary) + "\n")
	s.WriteString(m.status() + "\n\n")

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(5), asciigraph.Width(30), asciigraph.Caption("lowest height"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.4fs", t))
	row("Step", fmt.Sprintf("%d", step))
	row("Lowest", fmt.Sprintf("%.6f", lowest))
	if m.monitor.Len() > 1 {
		row("StdDev", fmt.Sprintf("%.4g", m.monitor.StdDev()))
	} else {
		row("StdDev", "-")
	}
	row("KE", fmt.Sprintf("%.4g", ke))
	row("Steps/frame", fmt.Sprintf("%d", m.stepsPerFrame))

	s.WriteString(MetricLabel.Render("Window") + WindowBar(m.monitor.Len(), m.monitor.Window(), 20, m.Converged()) + "\n")
	s.WriteString(MetricLabel.Render("Tension") + TensionSparkline(m.chain.Tensions(), 30) + "\n")

	if err := m.chain.Err(); err != nil {
		s.WriteString("\n" + statusStyle(statusDiverged).Render(err.Error()) + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause N:Step R:Reset Q:Quit\n+/-:Speed [ ]:Replay T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpPanel.Render(helpText) + "\n\n" + mainView
	}
	return mainView
}

const helpText = `KEYBOARD SHORTCUTS

Space  pause / resume
n      single step while paused
r      reset to the initial layout
+ -    double / halve steps per frame
[ ]    replay sampled history
t      cycle themes
?      toggle this help
q      quit`

// Run starts the live view in the alternate screen.
func Run(chain *physics.Chain, cfg dynamo.Config, title string) error {
	_, err := tea.NewProgram(NewModel(chain, cfg, title), tea.WithAltScreen()).Run()
	return err
}
