package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dbmon/internal/ui"
)

// Performance graphs are drawn on a braille canvas: every cell is a 2x4 dot
// matrix, so a graph of width w and height h plots 2w samples at 4h levels.
//
//	bit:  0 3
//	      1 4
//	      2 5
//	      6 7
const brailleBlank = '\u2800'

var brailleBits = [4][2]rune{{0x01, 0x08}, {0x02, 0x10}, {0x04, 0x20}, {0x40, 0x80}}

// graphScale maps sample values onto the vertical axis.
type graphScale struct {
	lo, hi float64
	// byValue colors each cell by the percentage threshold of its highest
	// sample instead of the fixed series color.
	byValue bool
}

var percentScale = graphScale{lo: 0, hi: 100, byValue: true}

// countScale scales a non-negative series from zero to its own peak.
func countScale(data []float64) graphScale {
	var peak float64
	for _, v := range data {
		peak = max(peak, v)
	}
	return graphScale{hi: peak}
}

// fraction returns v's position on the scale in [0, 1]. A zero-height
// scale puts every sample on the middle line.
func (s graphScale) fraction(v float64) float64 {
	if s.hi <= s.lo {
		return 0.5
	}
	return min(max((v-s.lo)/(s.hi-s.lo), 0), 1)
}

// brailleCanvas is a width x height grid of braille cells.
type brailleCanvas struct {
	cells [][]rune
	peaks []float64
}

func newBrailleCanvas(width, height int) *brailleCanvas {
	c := &brailleCanvas{cells: make([][]rune, height), peaks: make([]float64, width)}
	for i := range c.cells {
		c.cells[i] = []rune(strings.Repeat(string(brailleBlank), width))
	}
	return c
}

// column fills sample x (0..2*width-1) from the bottom up to dots dots.
func (c *brailleCanvas) column(x, dots int, v float64) {
	cell, side := x/2, x%2
	c.peaks[cell] = max(c.peaks[cell], v)
	height := len(c.cells)
	for d := 0; d < dots && d < height*4; d++ {
		row := height - 1 - d/4
		c.cells[row][cell] |= brailleBits[3-d%4][side]
	}
}

func (c *brailleCanvas) render(scale graphScale, color lipgloss.Color) string {
	lines := make([]string, len(c.cells))
	for r, row := range c.cells {
		var b strings.Builder
		for col, cell := range row {
			fg := color
			if scale.byValue {
				fg = MetricColor(c.peaks[col])
			}
			b.WriteString(lipgloss.NewStyle().Foreground(fg).Render(string(cell)))
		}
		lines[r] = b.String()
	}
	return strings.Join(lines, "\n")
}

// plotGraph draws data right-aligned on a width x height canvas. Series
// longer than the canvas are folded so each sample keeps its bucket's peak.
func plotGraph(data []float64, width, height int, scale graphScale, color lipgloss.Color) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}
	samples := foldPeaks(data, width*2)
	offset := width*2 - len(samples)

	c := newBrailleCanvas(width, height)
	for i, v := range samples {
		c.column(offset+i, int(scale.fraction(v)*float64(height*4)), v)
	}
	return c.render(scale, color)
}

// RenderPercentGraph draws a 0-100 series (CPU, memory) colored by threshold.
func RenderPercentGraph(data []float64, width, height int) string {
	return plotGraph(data, width, height, percentScale, ColorGraph)
}

// RenderCountGraph draws an unbounded series (queries) scaled to its peak
// in a single color.
func RenderCountGraph(data []float64, width, height int, color lipgloss.Color) string {
	return plotGraph(data, width, height, countScale(data), color)
}

// foldPeaks shrinks data to at most n points, keeping the maximum of each
// bucket so spikes survive. Shorter input is returned as is.
func foldPeaks(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	for i := range out {
		lo, hi := i*len(data)/n, (i+1)*len(data)/n
		out[i] = data[lo]
		for _, v := range data[lo+1 : hi] {
			out[i] = max(out[i], v)
		}
	}
	return out
}

// gaugeSparkline renders recent gauge history right-aligned in width cells,
// colored by the latest value.
func gaugeSparkline(data []float64, width int) string {
	if len(data) == 0 {
		return ""
	}
	return padSparkline(ui.RenderSparklineColor(data, width, MetricColor(data[len(data)-1])), width)
}

// seriesSparkline renders recent history of an unbounded value.
func seriesSparkline(data []float64, width int, color lipgloss.Color) string {
	if len(data) == 0 {
		return ""
	}
	return padSparkline(ui.RenderSparklineColor(data, width, color), width)
}

func padSparkline(s string, width int) string {
	if w := lipgloss.Width(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}
