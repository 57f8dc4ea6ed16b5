package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
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

const blank = 0x2800

// Canvas is a braille dot grid where each cell carries the color of the last
// dot drawn into it.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Tint          [][]string
	styles        map[string]lipgloss.Style
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Tint:   make([][]string, h),
		styles: make(map[string]lipgloss.Style),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Tint[i] = make([]string, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in sub-pixel coordinates and tints its cell.
// The canvas is (Width*2) x (Height*4) sub-pixels.
func (c *Canvas) Set(x, y int, color string) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	if color != "" {
		c.Tint[row][col] = color
	}
}

// Lit reports whether the dot at (x, y) is set.
func (c *Canvas) Lit(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Tint[i][j] = ""
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int, color string) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	// off-screen segments from a point near the camera would take forever
	if dx+dy > 8*(c.Width*2+c.Height*4) {
		return
	}
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
		c.Set(x0, y0, color)
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

func (c *Canvas) style(color string) lipgloss.Style {
	s, ok := c.styles[color]
	if !ok {
		s = lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		c.styles[color] = s
	}
	return s
}

// String renders the grid, grouping adjacent cells of the same tint into one
// styled run.
func (c *Canvas) String() string {
	var b strings.Builder
	var run strings.Builder
	for i, row := range c.Grid {
		tint := ""
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if tint == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(c.style(tint).Render(run.String()))
			}
			run.Reset()
		}
		for j, r := range row {
			t := c.Tint[i][j]
			if r == blank {
				t = ""
			}
			if t != tint {
				flush()
				tint = t
			}
			run.WriteRune(r)
		}
		flush()
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
