// Package export renders a trail snapshot to image files.
package export

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

const (
	DefaultBackground = "#0a0a0b"
	DefaultWidth      = 1280
	DefaultHeight     = 720
	DefaultScale      = 3
	DefaultContrast   = 0.2
)

// Projector maps world points onto a w×h image plane.
type Projector interface {
	Project(p physics.Point3D, w, h float64) (x, y, depth float64, ok bool)
}

type Options struct {
	Width, Height int
	Scale         float64 // output pixels per viewport pixel
	Mode          string  // config.VisualModeLine or config.VisualModeDots
	LineWidth     float64
	Background    string
	Contrast      float64 // 0 leaves colors untouched
	Caption       string
}

func DefaultOptions() Options {
	return Options{
		Width:      DefaultWidth,
		Height:     DefaultHeight,
		Scale:      1,
		Mode:       config.VisualModeLine,
		LineWidth:  1.5,
		Background: DefaultBackground,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.Scale <= 0 {
		o.Scale = d.Scale
	}
	if o.Mode == "" {
		o.Mode = d.Mode
	}
	if o.LineWidth <= 0 {
		o.LineWidth = d.LineWidth
	}
	if o.Background == "" {
		o.Background = d.Background
	}
	return o
}

func (o Options) size() (float64, float64) {
	return float64(o.Width) * o.Scale, float64(o.Height) * o.Scale
}

// SnapshotName returns lorenz-YYYY-MM-DD_HH-MM-SS.<ext> for t.
func SnapshotName(t time.Time, ext string) string {
	return fmt.Sprintf("lorenz-%s.%s", t.Format("2006-01-02_15-04-05"), ext)
}

// Caption summarises the parameters a snapshot was taken with.
func Caption(p physics.Params, points int) string {
	return fmt.Sprintf("%s  points=%d", p, points)
}

// ContrastFactor is the per-channel gain for a contrast boost c, applied as
// factor*(v-128)+128.
func ContrastFactor(c float64) float64 {
	return (259 * (c*100 + 255)) / (255 * (259 - c*100))
}

func contrast(v uint8, factor float64) uint8 {
	f := factor*(float64(v)-128) + 128
	return uint8(math.Round(math.Max(0, math.Min(255, f))))
}

type vertex struct {
	x, y  float64
	color trail.RGB
}

// project returns the visible polyline runs, oldest first. A point that is
// non-finite or behind the camera breaks the run.
func project(points []physics.Point3D, colors []trail.RGB, proj Projector, w, h float64) [][]vertex {
	var runs [][]vertex
	var cur []vertex
	for i, p := range points {
		var x, y float64
		ok := p.IsFinite()
		if ok {
			x, y, _, ok = proj.Project(p, w, h)
		}
		if !ok {
			if len(cur) > 0 {
				runs = append(runs, cur)
				cur = nil
			}
			continue
		}
		c := trail.RGB{R: 1, G: 1, B: 1}
		if i < len(colors) {
			c = colors[i]
		}
		cur = append(cur, vertex{x, y, c})
	}
	if len(cur) > 0 {
		runs = append(runs, cur)
	}
	return runs
}
