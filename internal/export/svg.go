// Package export writes stored runs as standalone SVG figures.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/mobility/internal/analysis"
	"github.com/san-kum/mobility/internal/viz"
)

const background = "#0a0a0a"

// Series is one curve of a line chart.
type Series struct {
	X, Y   []float64
	Stroke string
}

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// CanvasToSVG draws every lit dot of a Braille canvas as a circle of
// diameter ~scale.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	w, h := canvas.Dots()
	var sb strings.Builder
	header(&sb, float64(w)*scale, float64(h)*scale)
	sb.WriteString(`<g fill="#00ff00">` + "\n")
	r := scale * 0.4
	canvas.Each(func(x, y int) {
		cx := (float64(x) + 0.5) * scale
		cy := (float64(y) + 0.5) * scale
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
	})
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// bounds is the padded data range of a figure.
type bounds struct {
	minX, maxX, minY, maxY float64
}

func (b *bounds) include(x, y float64) {
	b.minX, b.maxX = math.Min(b.minX, x), math.Max(b.maxX, x)
	b.minY, b.maxY = math.Min(b.minY, y), math.Max(b.maxY, y)
}

func (b *bounds) pad(frac float64) {
	rx, ry := b.maxX-b.minX, b.maxY-b.minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}
	b.minX -= rx * frac
	b.maxX += rx * frac
	b.minY -= ry * frac
	b.maxY += ry * frac
}

func (b bounds) toPixel(x, y float64, width, height int) (float64, float64) {
	px := (x - b.minX) / (b.maxX - b.minX) * float64(width)
	py := float64(height) - (y-b.minY)/(b.maxY-b.minY)*float64(height)
	return px, py
}

func emptyBounds() bounds {
	return bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
}

// LineChart draws each series as a polyline on shared axes. Series with
// fewer than two points are skipped.
func LineChart(series []Series, width, height int) string {
	b := emptyBounds()
	drawn := 0
	for _, s := range series {
		n := min(len(s.X), len(s.Y))
		if n < 2 {
			continue
		}
		drawn++
		for i := 0; i < n; i++ {
			b.include(s.X[i], s.Y[i])
		}
	}
	if drawn == 0 {
		return ""
	}
	b.pad(0.05)

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	for _, s := range series {
		n := min(len(s.X), len(s.Y))
		if n < 2 {
			continue
		}
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, s.Stroke)
		for i := 0; i < n; i++ {
			x, y := b.toPixel(s.X[i], s.Y[i], width, height)
			if i == 0 {
				fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
			} else {
				fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
			}
		}
		sb.WriteString("\"/>\n")
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// Scatter draws a projected particle configuration, one dot per particle,
// keeping the aspect ratio of the data.
func Scatter(p *analysis.Projection, size int, fill string) string {
	if p == nil || len(p.Points) == 0 {
		return ""
	}
	b := emptyBounds()
	for _, pt := range p.Points {
		b.include(pt.X, pt.Y)
	}
	b.pad(0.05)
	if rx, ry := b.maxX-b.minX, b.maxY-b.minY; rx > ry {
		mid := (b.minY + b.maxY) / 2
		b.minY, b.maxY = mid-rx/2, mid+rx/2
	} else {
		mid := (b.minX + b.maxX) / 2
		b.minX, b.maxX = mid-ry/2, mid+ry/2
	}

	var sb strings.Builder
	header(&sb, float64(size), float64(size))
	fmt.Fprintf(&sb, "<g fill=\"%s\">\n", fill)
	for _, pt := range p.Points {
		x, y := b.toPixel(pt.X, pt.Y, size, size)
		fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"2\"/>\n", x, y)
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
