package viz

import (
	"math"
	"strings"
)

const blankCell = 0x2800

// dotBits[row][col] is the bit of one dot inside a 2x4 Braille cell.
var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a Width x Height grid of Braille cells. Drawing happens on dots:
// x runs over [0, 2*Width) and y over [0, 4*Height), origin at the top left.
// Dots outside the canvas are dropped.
type Canvas struct {
	Width, Height int
	cells         []rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([]rune, w*h)}
	c.Clear()
	return c
}

// Dots is the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return 2 * c.Width, 4 * c.Height }

func (c *Canvas) locate(x, y int) (int, rune, bool) {
	w, h := c.Dots()
	if x < 0 || y < 0 || x >= w || y >= h {
		return 0, 0, false
	}
	return (y/4)*c.Width + x/2, dotBits[y%4][x%2], true
}

func (c *Canvas) Set(x, y int) {
	if i, bit, ok := c.locate(x, y); ok {
		c.cells[i] |= bit
	}
}

func (c *Canvas) Lit(x, y int) bool {
	i, bit, ok := c.locate(x, y)
	return ok && c.cells[i]&bit != 0
}

// Mark draws a particle as a 2x2 block of dots anchored at (x, y).
func (c *Canvas) Mark(x, y int) {
	c.Set(x, y)
	c.Set(x+1, y)
	c.Set(x, y+1)
	c.Set(x+1, y+1)
}

func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = blankCell
	}
}

// Line joins two dots, stepping once per dot along the longer axis.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := x1-x0, y1-y0
	steps := max(absInt(dx), absInt(dy))
	if steps == 0 {
		c.Set(x0, y0)
		return
	}
	for i := 0; i <= steps; i++ {
		f := float64(i) / float64(steps)
		c.Set(x0+int(math.Round(f*float64(dx))), y0+int(math.Round(f*float64(dy))))
	}
}

// Each calls fn for every lit dot, row by row.
func (c *Canvas) Each(fn func(x, y int)) {
	w, h := c.Dots()
	for y := range h {
		for x := range w {
			if c.Lit(x, y) {
				fn(x, y)
			}
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for row := range c.Height {
		b.WriteString(string(c.cells[row*c.Width : (row+1)*c.Width]))
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
