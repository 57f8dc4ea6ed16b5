package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/lorenz3d/internal/physics"
)

// Axis picks one coordinate of a point.
type Axis byte

const (
	AxisX Axis = 'x'
	AxisY Axis = 'y'
	AxisZ Axis = 'z'
)

func ParseAxis(s string) (Axis, error) {
	if len(s) == 1 {
		switch a := Axis(s[0]); a {
		case AxisX, AxisY, AxisZ:
			return a, nil
		}
	}
	return 0, fmt.Errorf("analysis: unknown axis %q (want x, y or z)", s)
}

func (a Axis) String() string { return string(rune(a)) }

func (a Axis) Of(p physics.Point3D) float64 {
	switch a {
	case AxisX:
		return p.X
	case AxisY:
		return p.Y
	default:
		return p.Z
	}
}

// Series extracts one coordinate of every point.
func Series(points []physics.Point3D, a Axis) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = a.Of(p)
	}
	return out
}

// PhasePortraitToASCII plots the (h, v) projection of points. Axes are drawn
// where zero falls inside the padded bounds.
func PhasePortraitToASCII(points []physics.Point3D, h, v Axis, width, height int) string {
	if len(points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := h.Of(points[0]), h.Of(points[0])
	minY, maxY := v.Of(points[0]), v.Of(points[0])
	for _, p := range points {
		minX, maxX = min(minX, h.Of(p)), max(maxX, h.Of(p))
		minY, maxY = min(minY, v.Of(p)), max(maxY, v.Of(p))
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, p := range points {
		col := int((h.Of(p) - minX) / rangeX * float64(width-1))
		row := height - 1 - int((v.Of(p)-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
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
