package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	helpPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(1, 2)

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(12)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)
)

// runState is what the live view shows in its status line.
type runState int

const (
	statusRunning runState = iota
	statusPaused
	statusReplay
	statusConverged
	statusDiverged
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// statusStyle colors a run state from the current theme.
func statusStyle(s runState) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch s {
	case statusConverged:
		return style.Foreground(CurrentTheme.Success)
	case statusPaused:
		return style.Foreground(CurrentTheme.Warning)
	case statusReplay:
		return style.Foreground(CurrentTheme.Accent)
	case statusDiverged:
		return style.Foreground(CurrentTheme.Error)
	}
	return style.Foreground(CurrentTheme.Primary)
}

// blend interpolates two hex colors in Lab space. Unparseable colors fall
// back to the other end.
func blend(from, to lipgloss.Color, t float64) lipgloss.Color {
	a, errA := colorful.Hex(string(from))
	b, errB := colorful.Hex(string(to))
	switch {
	case errA != nil && errB != nil:
		return from
	case errA != nil:
		return to
	case errB != nil:
		return from
	}
	return lipgloss.Color(a.BlendLab(b, t).Clamped().Hex())
}

// GradientText colors each rune of text along a gradient.
func GradientText(text string, from, to lipgloss.Color) string {
	runes := []rune(text)
	switch len(runes) {
	case 0:
		return ""
	case 1:
		return lipgloss.NewStyle().Foreground(from).Render(text)
	}

	var b strings.Builder
	for i, r := range runes {
		c := blend(from, to, float64(i)/float64(len(runes)-1))
		b.WriteString(lipgloss.NewStyle().Foreground(c).Render(string(r)))
	}
	return b.String()
}

// WindowBar shows how much of the convergence window is filled. The bar is
// muted while filling, turns to the warning color once full and to the
// success color when the window has converged.
func WindowBar(filled, window, width int, converged bool) string {
	if width < 1 || window < 1 {
		return ""
	}
	n := filled * width / window
	n = max(0, min(n, width))

	color := CurrentTheme.Muted
	switch {
	case converged:
		color = CurrentTheme.Success
	case filled >= window:
		color = CurrentTheme.Warning
	}
	bar := strings.Repeat("█", n) + strings.Repeat("░", width-n)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

const slackMark = '·'

var tensionBars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// TensionSparkline draws spring tensions along the fiber, anchor to anchor.
// Springs are grouped into at most width buckets and each bucket shows its
// largest tension, scaled against the peak so the supports stand out.
// Buckets with no spring in tension are drawn as slack.
func TensionSparkline(tensions []float64, width int) string {
	if width < 1 {
		return ""
	}
	if len(tensions) == 0 {
		return strings.Repeat("─", width)
	}

	buckets := min(width, len(tensions))
	peaks := make([]float64, buckets)
	top := 0.0
	for i := range peaks {
		lo := i * len(tensions) / buckets
		hi := (i + 1) * len(tensions) / buckets
		p := tensions[lo]
		for _, t := range tensions[lo+1 : hi] {
			p = max(p, t)
		}
		peaks[i] = p
		if p > top {
			top = p
		}
	}

	slack := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	var b strings.Builder
	for _, p := range peaks {
		// NaN compares false, so it lands here too
		if !(p > 0) || !(top > 0) {
			b.WriteString(slack.Render(string(slackMark)))
			continue
		}
		frac := min(p/top, 1)
		bar := tensionBars[int(frac*float64(len(tensionBars)-1))]
		color := blend(CurrentTheme.Primary, CurrentTheme.Warning, frac)
		b.WriteString(lipgloss.NewStyle().Foreground(color).Render(string(bar)))
	}
	return b.String()
}
