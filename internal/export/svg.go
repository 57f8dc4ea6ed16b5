package export

import (
	"bufio"
	"fmt"
	"html"
	"io"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

// SVG writes the projected trail as an SVG document. Line mode emits one
// path per run of equal color; dots mode emits circles.
func SVG(w io.Writer, points []physics.Point3D, colors []trail.RGB, proj Projector, opts Options) error {
	opts = opts.withDefaults()
	width, height := opts.size()
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, html.EscapeString(opts.Background))

	lw := opts.LineWidth * opts.Scale
	for _, run := range project(points, colors, proj, width, height) {
		if opts.Mode == config.VisualModeDots {
			for _, v := range run {
				fmt.Fprintf(bw, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, v.x, v.y, lw, v.color.Hex())
			}
			continue
		}
		writePaths(bw, run, lw)
	}

	if opts.Caption != "" {
		fmt.Fprintf(bw, `<text x="8" y="%.0f" fill="#888888" font-family="monospace" font-size="%.0f">%s</text>
`, height-8, 12*opts.Scale, html.EscapeString(opts.Caption))
	}
	bw.WriteString("</svg>\n")
	return bw.Flush()
}

// writePaths splits a run into paths of constant color. Each path starts at
// the last vertex of the previous one so the line stays continuous.
func writePaths(w *bufio.Writer, run []vertex, lw float64) {
	if len(run) < 2 {
		return
	}
	start := 0
	for i := 1; i <= len(run); i++ {
		if i < len(run) && run[i].color.Hex() == run[start+1].color.Hex() {
			continue
		}
		fmt.Fprintf(w, `<path fill="none" stroke="%s" stroke-width="%.1f" stroke-linecap="round" d="M%.1f,%.1f`,
			run[start+1].color.Hex(), lw, run[start].x, run[start].y)
		for _, v := range run[start+1 : i] {
			fmt.Fprintf(w, " L%.1f,%.1f", v.x, v.y)
		}
		w.WriteString(`"/>` + "\n")
		start = i - 1
		if start+1 >= len(run) {
			break
		}
	}
}

// Plane selects two coordinates for a flat projection.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

func (p Plane) coords(pt physics.Point3D) (float64, float64, error) {
	switch p {
	case PlaneXY:
		return pt.X, pt.Y, nil
	case PlaneXZ:
		return pt.X, pt.Z, nil
	case PlaneYZ:
		return pt.Y, pt.Z, nil
	}
	return 0, 0, fmt.Errorf("export: unknown plane %q (want xy, xz or yz)", string(p))
}

// FitPlane is a Projector that maps a coordinate plane onto the image with
// the bounds of the given points plus 10% padding.
type FitPlane struct {
	plane                      Plane
	minX, minY, rangeX, rangeY float64
}

func NewFitPlane(plane Plane, points []physics.Point3D) (*FitPlane, error) {
	f := &FitPlane{plane: plane}
	first := true
	var maxX, maxY float64
	for _, p := range points {
		if !p.IsFinite() {
			continue
		}
		x, y, err := plane.coords(p)
		if err != nil {
			return nil, err
		}
		if first {
			f.minX, maxX, f.minY, maxY = x, x, y, y
			first = false
			continue
		}
		f.minX, maxX = min(f.minX, x), max(maxX, x)
		f.minY, maxY = min(f.minY, y), max(maxY, y)
	}
	if first {
		if _, _, err := plane.coords(physics.Point3D{}); err != nil {
			return nil, err
		}
	}

	f.rangeX, f.rangeY = maxX-f.minX, maxY-f.minY
	if f.rangeX == 0 {
		f.rangeX = 1
	}
	if f.rangeY == 0 {
		f.rangeY = 1
	}
	f.minX -= f.rangeX * 0.1
	f.minY -= f.rangeY * 0.1
	f.rangeX *= 1.2
	f.rangeY *= 1.2
	return f, nil
}

func (f *FitPlane) Project(p physics.Point3D, w, h float64) (float64, float64, float64, bool) {
	x, y, err := f.plane.coords(p)
	if err != nil {
		return 0, 0, 0, false
	}
	return (x - f.minX) / f.rangeX * w, h - (y-f.minY)/f.rangeY*h, 0, true
}
