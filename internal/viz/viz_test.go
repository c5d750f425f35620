package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/physics"
)

func TestCanvasSetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	if !c.IsSet(0, 0) || !c.IsSet(3, 3) {
		t.Fatal("expected dots to be set")
	}
	if c.Grid[0][0] != 0x2801 || c.Grid[0][1] != 0x2880 {
		t.Errorf("unexpected cells %U %U", c.Grid[0][0], c.Grid[0][1])
	}

	c.Unset(0, 0)
	if c.IsSet(0, 0) || c.Grid[0][0] != brailleBlank {
		t.Errorf("unset left %U", c.Grid[0][0])
	}

	// out of range is ignored
	c.Set(-1, 0)
	c.Set(100, 100)
	if c.IsSet(-1, 0) || c.IsSet(100, 100) {
		t.Error("out of range dots reported as set")
	}
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	for i := 0; i < 8; i++ {
		if !c.IsSet(i, i) {
			t.Errorf("diagonal dot %d not set", i)
		}
	}
	if got := strings.Count(c.String(), "\n"); got != 2 {
		t.Errorf("expected 2 rows, got %d", got)
	}
}

func TestViewportProject(t *testing.T) {
	c := NewCanvas(10, 5)
	vp := Viewport{MinX: -1, MaxX: 1, Bottom: -1, Top: 0}

	tests := []struct {
		p      dynamo.Vector2D
		wx, wy int
	}{
		{dynamo.Vec(-1, 0), 0, 0},
		{dynamo.Vec(1, -1), 19, 19},
		{dynamo.Vec(0, -0.5), 10, 10},
	}
	for _, tt := range tests {
		x, y := vp.Project(c, tt.p)
		if x != tt.wx || y != tt.wy {
			t.Errorf("Project(%v) = (%d, %d), want (%d, %d)", tt.p, x, y, tt.wx, tt.wy)
		}
	}
}

func TestFitViewport(t *testing.T) {
	pos := []dynamo.Vector2D{dynamo.Vec(-2, 0), dynamo.Vec(0, -0.5), dynamo.Vec(2, 0)}
	vp := FitViewport(pos, 0.5)

	if vp.MinX >= -2 || vp.MaxX <= 2 {
		t.Errorf("anchors not inside the frame: %+v", vp)
	}
	if vp.Bottom >= -0.5 || vp.Top <= 0 {
		t.Errorf("sag not inside the frame: %+v", vp)
	}
}

func TestDrawPolyline(t *testing.T) {
	c := NewCanvas(20, 5)
	pos := []dynamo.Vector2D{dynamo.Vec(-2, 0), dynamo.Vec(0, -0.5), dynamo.Vec(2, 0)}
	vp := FitViewport(pos, 0.5)
	c.DrawPolyline(vp, pos)

	for _, p := range pos {
		x, y := vp.Project(c, p)
		if !c.IsSet(x, y) {
			t.Errorf("vertex %v not drawn", p)
		}
	}
}

func testModel(t *testing.T) Model {
	t.Helper()
	p := physics.DefaultParams()
	p.Subdivisions = 10
	p.K = 50
	p.Damping = 0.5
	p.Dt = 1e-3

	chain, err := physics.NewChain(p)
	if err != nil {
		t.Fatal(err)
	}
	cfg := dynamo.DefaultConfig()
	cfg.SampleEvery = 10
	cfg.Window = 5
	return NewModel(chain, cfg, "test")
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestModelTickAdvances(t *testing.T) {
	m := testModel(t)
	m, cmd := update(m, TickMsg(time.Now()))

	if cmd == nil {
		t.Error("tick should schedule the next frame")
	}
	if got := m.Chain().Steps(); got != 10 {
		t.Errorf("steps after one frame = %d, want 10", got)
	}
	if len(m.Heights()) != 1 {
		t.Errorf("expected one sample, got %d", len(m.Heights()))
	}
	if m.Heights()[0] >= 0 {
		t.Errorf("fiber should have started to sag, height %v", m.Heights()[0])
	}
}

func TestModelPauseAndSingleStep(t *testing.T) {
	m := testModel(t)
	m, _ = update(m, key(" "))
	if m.Running() {
		t.Fatal("space should pause")
	}

	m, _ = update(m, TickMsg(time.Now()))
	if m.Chain().Steps() != 0 {
		t.Error("paused model advanced on tick")
	}

	m, _ = update(m, key("n"))
	if m.Chain().Steps() != 1 {
		t.Errorf("single step took %d steps", m.Chain().Steps())
	}

	m, _ = update(m, key(" "))
	if !m.Running() {
		t.Error("space should resume")
	}
}

func TestModelReset(t *testing.T) {
	m := testModel(t)
	for i := 0; i < 5; i++ {
		m, _ = update(m, TickMsg(time.Now()))
	}
	m, _ = update(m, key("r"))

	if m.Chain().Steps() != 0 || m.Monitor().Len() != 0 || len(m.Heights()) != 0 {
		t.Errorf("reset left steps=%d samples=%d", m.Chain().Steps(), m.Monitor().Len())
	}
	if m.Chain().LowestHeight() != 0 {
		t.Errorf("reset left lowest height %v", m.Chain().LowestHeight())
	}
}

func TestModelSpeed(t *testing.T) {
	m := testModel(t)
	m, _ = update(m, key("+"))
	if m.StepsPerFrame() != 20 {
		t.Errorf("steps per frame = %d, want 20", m.StepsPerFrame())
	}
	for i := 0; i < 10; i++ {
		m, _ = update(m, key("-"))
	}
	if m.StepsPerFrame() != 1 {
		t.Errorf("steps per frame = %d, want 1", m.StepsPerFrame())
	}
}

func TestModelQuit(t *testing.T) {
	m := testModel(t)
	_, cmd := update(m, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelDivergencePauses(t *testing.T) {
	p := physics.DefaultParams()
	p.Subdivisions = 10
	p.Dt = 1
	chain, err := physics.NewChain(p)
	if err != nil {
		t.Fatal(err)
	}
	m := NewModel(chain, dynamo.DefaultConfig(), "unstable")

	for i := 0; i < 100 && m.Running(); i++ {
		m, _ = update(m, TickMsg(time.Now()))
	}
	if m.Running() || m.Chain().Err() == nil {
		t.Fatal("expected divergence to pause the model")
	}
	if !strings.Contains(m.View(), "DIVERGED") {
		t.Error("view does not report divergence")
	}
}

func TestModelView(t *testing.T) {
	m := testModel(t)
	for i := 0; i < 3; i++ {
		m, _ = update(m, TickMsg(time.Now()))
	}
	v := m.View()
	for _, want := range []string{"Lowest", "StdDev", "Step"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestModelReplay(t *testing.T) {
	m := testModel(t)
	for i := 0; i < 4; i++ {
		m, _ = update(m, TickMsg(time.Now()))
	}
	steps := m.Chain().Steps()

	m, _ = update(m, key("["))
	if m.Running() {
		t.Error("replay should pause")
	}
	if !strings.Contains(m.View(), "REPLAY") {
		t.Error("view does not show replay")
	}
	m, _ = update(m, TickMsg(time.Now()))
	if m.Chain().Steps() != steps {
		t.Error("chain advanced during replay")
	}
}

func TestNextTheme(t *testing.T) {
	defer SetTheme(ThemeSteel.Name)
	start := CurrentTheme.Name
	for range Themes {
		NextTheme()
	}
	if CurrentTheme.Name != start {
		t.Errorf("cycling all themes ended at %q, want %q", CurrentTheme.Name, start)
	}
	if GetTheme("missing").Name != ThemeSteel.Name {
		t.Error("unknown theme should fall back to steel")
	}
}

func countBars(s string) int {
	n := 0
	for _, r := range tensionBars {
		n += strings.Count(s, string(r))
	}
	return n
}

func TestTensionSparkline(t *testing.T) {
	tests := []struct {
		name      string
		tensions  []float64
		width     int
		wantBars  int
		wantSlack int
	}{
		{"one bar per spring", []float64{1, 2, 3}, 10, 3, 0},
		{"bucketed to width", rampTensions(100), 20, 20, 0},
		{"slack springs", []float64{0, -1, 4, 0}, 4, 1, 3},
		{"all slack", []float64{0, 0}, 8, 0, 2},
		{"non-finite", []float64{1, math.NaN()}, 2, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TensionSparkline(tt.tensions, tt.width)
			if n := countBars(got); n != tt.wantBars {
				t.Errorf("bars = %d, want %d in %q", n, tt.wantBars, got)
			}
			if n := strings.Count(got, string(slackMark)); n != tt.wantSlack {
				t.Errorf("slack = %d, want %d in %q", n, tt.wantSlack, got)
			}
		})
	}

	if got := TensionSparkline([]float64{1, 5}, 2); !strings.Contains(got, "█") {
		t.Errorf("peak tension should draw a full bar: %q", got)
	}
	if got := TensionSparkline(nil, 4); got != "────" {
		t.Errorf("empty = %q", got)
	}
}

func rampTensions(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 5 + float64(i%7)
	}
	return out
}

func TestWindowBar(t *testing.T) {
	tests := []struct {
		filled, window, width int
		wantFull              int
	}{
		{0, 20, 10, 0},
		{10, 20, 10, 5},
		{20, 20, 10, 10},
		{30, 20, 10, 10},
	}
	for _, tt := range tests {
		got := WindowBar(tt.filled, tt.window, tt.width, false)
		if n := strings.Count(got, "█"); n != tt.wantFull {
			t.Errorf("WindowBar(%d/%d) filled = %d, want %d", tt.filled, tt.window, n, tt.wantFull)
		}
		if n := strings.Count(got, "█") + strings.Count(got, "░"); n != tt.width {
			t.Errorf("WindowBar(%d/%d) width = %d, want %d", tt.filled, tt.window, n, tt.width)
		}
	}
	if WindowBar(1, 0, 10, false) != "" {
		t.Error("zero window should render nothing")
	}
}

func TestGradientText(t *testing.T) {
	got := GradientText("fiber", ThemeSteel.Accent, ThemeSteel.Primary)
	for _, r := range "fiber" {
		if !strings.ContainsRune(got, r) {
			t.Errorf("gradient lost %q: %q", r, got)
		}
	}
	if GradientText("", ThemeSteel.Accent, ThemeSteel.Primary) != "" {
		t.Error("empty text should stay empty")
	}
	if c := blend("not-a-color", "#ffffff", 0.5); c != "#ffffff" {
		t.Errorf("blend fallback = %q", c)
	}
}

func TestModelStatusStates(t *testing.T) {
	m := testModel(t)
	if m.state() != statusRunning {
		t.Errorf("new model state = %v, want running", m.state())
	}
	m, _ = update(m, key(" "))
	if m.state() != statusPaused {
		t.Errorf("paused model state = %v", m.state())
	}
	if !strings.Contains(m.status(), "PAUSED") {
		t.Errorf("status = %q", m.status())
	}
}

func TestInteractiveFlow(t *testing.T) {
	app := *NewInteractiveApp()

	next, _ := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(model)
	if app.state != stateConfig || app.cfg == nil {
		t.Fatalf("enter should open the config screen, state=%d", app.state)
	}
	if !strings.Contains(app.View(), strings.ToUpper(app.selected)) {
		t.Error("config view missing preset title")
	}

	next, _ = app.Update(key("j"))
	app = next.(model)
	if app.fieldCursor != 1 {
		t.Errorf("field cursor = %d, want 1", app.fieldCursor)
	}

	// keep the test chain small
	_ = app.cfg.SetParam("subdivisions", 8)

	next, cmd := app.Update(key("s"))
	app = next.(model)
	if app.state != stateSim || cmd == nil {
		t.Fatalf("s should start the simulation, state=%d err=%v", app.state, app.err)
	}
	if app.liveModel.Chain().Len() != 9 {
		t.Errorf("chain has %d nodes, want 9", app.liveModel.Chain().Len())
	}
}

func TestInteractiveRejectsInvalid(t *testing.T) {
	app := *NewInteractiveApp()
	next, _ := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(model)
	_ = app.cfg.SetParam("mass", -1)

	next, _ = app.Update(key("s"))
	app = next.(model)
	if app.state != stateConfig || app.err == nil {
		t.Error("invalid config should stay on the config screen with an error")
	}
}
