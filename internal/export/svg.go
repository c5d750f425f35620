package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/fibersag/internal/dynamo"
	"github.com/san-kum/fibersag/internal/viz"
)

// maxMarkers bounds the number of node circles drawn; longer chains get
// every k-th node marked.
const maxMarkers = 200

// FiberToSVG draws the fiber as a polyline with node markers. Both axes
// share one scale so the sag is not exaggerated; y points up.
func FiberToSVG(positions []dynamo.Vector2D, width, height int, stroke string) string {
	if len(positions) < 2 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := positions[0].X, positions[0].X
	minY, maxY := positions[0].Y, positions[0].Y
	for _, p := range positions {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	pad := 0.1 * math.Max(rangeX, rangeY)
	scale := math.Min(float64(width)/(rangeX+2*pad), float64(height)/(rangeY+2*pad))

	// center the drawing inside the viewport
	offX := (float64(width) - (rangeX+2*pad)*scale) / 2
	offY := (float64(height) - (rangeY+2*pad)*scale) / 2
	project := func(p dynamo.Vector2D) (float64, float64) {
		x := offX + (p.X-minX+pad)*scale
		y := float64(height) - offY - (p.Y-minY+pad)*scale
		return x, y
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	ax, ay := project(dynamo.Vec(minX, 0))
	bx, _ := project(dynamo.Vec(maxX, 0))
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333344" stroke-dasharray="4 4"/>
`, ax, ay, bx, ay))

	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i, p := range positions {
		x, y := project(p)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString("\"/>\n")

	every := (len(positions) + maxMarkers - 1) / maxMarkers
	sb.WriteString(fmt.Sprintf("<g fill=\"%s\">\n", stroke))
	for i := 1; i < len(positions)-1; i += every {
		x, y := project(positions[i])
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="2"/>
`, x, y))
	}
	sb.WriteString("</g>\n")

	sb.WriteString("<g fill=\"#ffffff\">\n")
	for _, p := range []dynamo.Vector2D{positions[0], positions[len(positions)-1]} {
		x, y := project(p)
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="8" height="8" class="anchor"/>
`, x-4, y-4))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// HeightsToSVG plots a sampled height history against time.
func HeightsToSVG(samples []dynamo.Sample, width, height int, strokeColor string) string {
	if len(samples) < 2 {
		return ""
	}

	minX, maxX := samples[0].Time, samples[0].Time
	minY, maxY := samples[0].Height, samples[0].Height
	for _, s := range samples {
		minX, maxX = math.Min(minX, s.Time), math.Max(maxX, s.Time)
		minY, maxY = math.Min(minY, s.Height), math.Max(maxY, s.Height)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, s := range samples {
		x := (s.Time - minX) / rangeX * float64(width)
		y := float64(height) - (s.Height-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// CanvasToSVG converts a braille canvas to one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g fill="#00ff00">
`, width, height, width, height))

	dotRadius := scale * 0.4

	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if !canvas.IsSet(col*2+dx, row*4+dy) {
						continue
					}
					cx := (float64(col*2+dx) + 0.5) * scale
					cy := (float64(row*4+dy) + 0.5) * scale
					sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
