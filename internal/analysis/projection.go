package analysis

import (
	"fmt"
	"strings"
)

// Projection is a particle configuration seen along one axis.
type Projection struct {
	XAxis, YAxis int
	Points       []struct{ X, Y float64 }
}

// Project drops every coordinate except xAxis and yAxis (0, 1 or 2).
func Project(positions []float64, xAxis, yAxis int) (*Projection, error) {
	if xAxis < 0 || xAxis > 2 || yAxis < 0 || yAxis > 2 || xAxis == yAxis {
		return nil, fmt.Errorf("analysis: bad projection axes %d, %d", xAxis, yAxis)
	}
	if len(positions)%3 != 0 {
		return nil, fmt.Errorf("analysis: positions hold %d values, not a multiple of 3", len(positions))
	}
	p := &Projection{
		XAxis:  xAxis,
		YAxis:  yAxis,
		Points: make([]struct{ X, Y float64 }, 0, len(positions)/3),
	}
	for i := 0; i+2 < len(positions); i += 3 {
		p.Points = append(p.Points, struct{ X, Y float64 }{positions[i+xAxis], positions[i+yAxis]})
	}
	return p, nil
}

// ProjectionToASCII renders a projection as a width x height scatter plot.
func ProjectionToASCII(p *Projection, width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.05
	maxX += rangeX * 0.05
	minY -= rangeY * 0.05
	maxY += rangeY * 0.05
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// A cell hit twice is drawn denser.
	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row < 0 || row >= height || col < 0 || col >= width {
			continue
		}
		if canvas[row][col] == ' ' {
			canvas[row][col] = '•'
		} else {
			canvas[row][col] = '●'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
