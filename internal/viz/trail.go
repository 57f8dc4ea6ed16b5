package viz

import (
	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/sim"
	"github.com/san-kum/lorenz3d/internal/trail"
)

// TrailRenderer keeps the latest frame handed over by the loop and paints it
// onto a canvas on demand.
type TrailRenderer struct {
	frame sim.Frame
	hex   map[[3]float32]string
}

func NewTrailRenderer() *TrailRenderer {
	return &TrailRenderer{hex: make(map[[3]float32]string)}
}

func (r *TrailRenderer) Draw(f sim.Frame) { r.frame = f }

func (r *TrailRenderer) Frame() sim.Frame { return r.frame }

// Each visits the valid points oldest first, following the draw ranges.
func (r *TrailRenderer) Each(fn func(p physics.Point3D, color string)) {
	f := r.frame
	for _, rg := range f.Ranges.List() {
		for slot := rg.Start; slot < rg.End(); slot++ {
			i := slot * 3
			p := physics.Point3D{
				X: float64(f.Positions[i]),
				Y: float64(f.Positions[i+1]),
				Z: float64(f.Positions[i+2]),
			}
			fn(p, r.colorHex(f.Colors[i], f.Colors[i+1], f.Colors[i+2]))
		}
	}
}

func (r *TrailRenderer) colorHex(cr, cg, cb float32) string {
	key := [3]float32{cr, cg, cb}
	if h, ok := r.hex[key]; ok {
		return h
	}
	// the gradient yields a bounded set of colors per palette, but keep the
	// cache from growing without limit across palette switches
	if len(r.hex) > 4096 {
		clear(r.hex)
	}
	h := trail.RGB{R: float64(cr), G: float64(cg), B: float64(cb)}.Hex()
	r.hex[key] = h
	return h
}

// Paint draws the trail. In line mode consecutive points are joined,
// including across the seam between the two draw ranges.
func (r *TrailRenderer) Paint(cv *Canvas, cam *Camera, mode string) {
	var px, py int
	havePrev := false
	r.Each(func(p physics.Point3D, color string) {
		if !p.IsFinite() {
			havePrev = false
			return
		}
		x, y, ok := cam.projectCell(p, cv)
		if !ok {
			havePrev = false
			return
		}
		if mode == config.VisualModeLine && havePrev {
			cv.DrawLine(px, py, x, y, color)
		} else {
			cv.Set(x, y, color)
		}
		px, py, havePrev = x, y, true
	})
}
