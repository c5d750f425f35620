package tui

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/san-kum/fibersag/internal/dynamo"
)

const (
	width       = 70
	height      = 20
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the fiber as ASCII at each sample, at most
// frameRate times a second. It satisfies dynamo.Observer.
type LiveRenderer struct {
	title     string
	frameRate int
	out       io.Writer
	lastFrame time.Time
	canvas    [][]rune
	frames    int
}

func NewLiveRenderer(title string, frameRate int) *LiveRenderer {
	return NewLiveRendererTo(os.Stdout, title, frameRate)
}

// NewLiveRendererTo writes frames to w. A non-positive frameRate draws
// every sample.
func NewLiveRendererTo(w io.Writer, title string, frameRate int) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		title:     title,
		frameRate: frameRate,
		out:       w,
		canvas:    canvas,
	}
}

func (r *LiveRenderer) OnSample(s dynamo.Snapshot) {
	if r.frameRate > 0 {
		if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			return
		}
		r.lastFrame = time.Now()
	}

	r.clear()
	r.drawFiber(s.Positions)
	r.render(s)
	r.frames++
}

// Frames returns how many frames have been drawn.
func (r *LiveRenderer) Frames() int { return r.frames }

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) line(x1, y1, x2, y2 int, c rune) {
	dx := abs(x2 - x1)
	dy := abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx - dy
	for {
		r.set(x1, y1, c)
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawFiber fits the span to the width and the deepest point to the lower
// rows. The support line y=0 sits on row 1.
func (r *LiveRenderer) drawFiber(pos []dynamo.Vector2D) {
	if len(pos) < 2 {
		return
	}
	minX, maxX, depth := pos[0].X, pos[0].X, 0.0
	for _, p := range pos {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		depth = math.Max(depth, -p.Y)
	}
	spanX := maxX - minX
	if spanX == 0 {
		spanX = 1
	}
	if depth == 0 {
		depth = 1
	}
	if math.IsInf(depth, 0) || math.IsNaN(depth) || math.IsNaN(spanX) || math.IsInf(spanX, 0) {
		return
	}

	project := func(p dynamo.Vector2D) (int, int) {
		x := 2 + int(math.Round((p.X-minX)/spanX*float64(width-5)))
		y := 1 + int(math.Round(-p.Y/depth*float64(height-3)))
		return x, y
	}

	for i := 0; i < width; i += 2 {
		r.set(i, 1, '.')
	}

	px, py := project(pos[0])
	for _, p := range pos[1:] {
		x, y := project(p)
		r.line(px, py, x, y, '*')
		px, py = x, y
	}

	for _, a := range []dynamo.Vector2D{pos[0], pos[len(pos)-1]} {
		x, y := project(a)
		r.set(x, y, '#')
	}
}

func (r *LiveRenderer) render(s dynamo.Snapshot) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.4fs  step=%d\n", r.title, s.Time, s.Step))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")
	b.WriteString(fmt.Sprintf("  lowest=%.6f  ke=%.4g  nodes=%d\n", s.LowestHeight, s.KineticEnergy, len(s.Positions)))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
