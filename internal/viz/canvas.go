package viz

import (
	"math"
	"strings"

	"github.com/san-kum/fibersag/internal/dynamo"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// SubWidth and SubHeight give the canvas size in dots.
func (c *Canvas) SubWidth() int  { return c.Width * 2 }
func (c *Canvas) SubHeight() int { return c.Height * 4 }

func (c *Canvas) cell(x, y int) (row, col int, mask rune, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, 0, false
	}
	col = x / 2
	row = y / 4
	if col >= c.Width || row >= c.Height {
		return 0, 0, 0, false
	}
	return row, col, rune(pixelMap[y%4][x%2]), true
}

// Set lights the dot at (x, y) in sub-pixel coordinates. Out of range dots
// are ignored.
func (c *Canvas) Set(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] |= mask
	}
}

// Unset clears a dot
func (c *Canvas) Unset(x, y int) {
	if row, col, mask, ok := c.cell(x, y); ok {
		c.Grid[row][col] &^= mask
		c.Grid[row][col] |= brailleBlank
	}
}

func (c *Canvas) IsSet(x, y int) bool {
	row, col, mask, ok := c.cell(x, y)
	return ok && c.Grid[row][col]&mask != 0
}

// Clear resets the canvas
func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Viewport maps world coordinates onto canvas dots. X spans [MinX, MaxX];
// Y spans [Bottom, Top] with Top drawn on the first row.
type Viewport struct {
	MinX, MaxX  float64
	Bottom, Top float64
}

// FitViewport frames the fiber's horizontal extent with a small margin and
// reaches down to depth below y=0.
func FitViewport(positions []dynamo.Vector2D, depth float64) Viewport {
	if len(positions) == 0 {
		return Viewport{MinX: -1, MaxX: 1, Bottom: -1, Top: 0.1}
	}
	minX, maxX := positions[0].X, positions[0].X
	for _, p := range positions[1:] {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
	}
	margin := 0.05 * (maxX - minX)
	if margin == 0 {
		margin = 0.5
	}
	depth = math.Abs(depth)
	if depth < 1e-6 {
		depth = margin
	}
	return Viewport{
		MinX:   minX - margin,
		MaxX:   maxX + margin,
		Bottom: -depth * 1.15,
		Top:    depth * 0.15,
	}
}

// Project maps a world point to dot coordinates on c.
func (v Viewport) Project(c *Canvas, p dynamo.Vector2D) (int, int) {
	w := float64(c.SubWidth() - 1)
	h := float64(c.SubHeight() - 1)
	x := (p.X - v.MinX) / (v.MaxX - v.MinX) * w
	y := (v.Top - p.Y) / (v.Top - v.Bottom) * h
	return clampDot(x), clampDot(y)
}

// DrawPolyline joins consecutive points with straight segments.
func (c *Canvas) DrawPolyline(v Viewport, points []dynamo.Vector2D) {
	if len(points) == 0 {
		return
	}
	x0, y0 := v.Project(c, points[0])
	c.Set(x0, y0)
	for _, p := range points[1:] {
		x1, y1 := v.Project(c, p)
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
}

// clampDot keeps wildly out-of-frame points from turning Bresenham into a
// very long loop; anything beyond the canvas is dropped by Set anyway.
func clampDot(f float64) int {
	const limit = 1 << 16
	switch {
	case math.IsNaN(f):
		return -1
	case f > limit:
		return limit
	case f < -limit:
		return -limit
	}
	return int(math.Round(f))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
