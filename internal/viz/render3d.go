package viz

import (
	"math"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/physics"
)

type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Normalize() Vec3 {
	if l := v.Length(); l != 0 {
		return v.Scale(1 / l)
	}
	return Vec3{}
}
func (v Vec3) Dot(o Vec3) float64 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}

// rotate turns v about the unit axis k by angle a (Rodrigues).
func (v Vec3) rotate(k Vec3, a float64) Vec3 {
	c, s := math.Cos(a), math.Sin(a)
	return v.Scale(c).Add(k.Cross(v).Scale(s)).Add(k.Scale(k.Dot(v) * (1 - c)))
}

func vecOf(p physics.Point3D) Vec3 { return Vec3{p.X, p.Y, p.Z} }

const (
	MinDistance  = 50.0
	MaxDistance  = 400.0
	DistanceStep = 5.0
	PanSpeed     = 0.3
	minPhi       = 0.1
	maxPhi       = math.Pi - 0.1
	AxisLength   = 90.0
)

// Camera orbits a pan target on a sphere. Theta is the azimuth around the
// world Y axis, Phi the polar angle from +Y, and Roll spins the view about
// the line of sight.
type Camera struct {
	Theta, Phi float64
	Distance   float64
	Pan        Vec3
	Roll       float64
	FOV        float64 // vertical, radians
	Near       float64
}

func NewCamera(cfg config.CameraConfig) *Camera {
	c := &Camera{FOV: 60 * math.Pi / 180, Near: 0.01}
	c.Apply(cfg)
	return c
}

// Apply resets the orbit from configuration and clears pan and roll.
func (c *Camera) Apply(cfg config.CameraConfig) {
	c.Theta = cfg.Theta
	c.Phi = clamp(cfg.Phi, minPhi, maxPhi)
	c.Distance = clamp(cfg.Distance, MinDistance, MaxDistance)
	c.Pan = Vec3{}
	c.Roll = 0
}

func (c *Camera) Orbit(dTheta, dPhi float64) {
	c.Theta += dTheta
	c.Phi = clamp(c.Phi+dPhi, minPhi, maxPhi)
}

// Zoom moves the camera by whole distance steps; positive is away.
func (c *Camera) Zoom(steps int) {
	c.Distance = clamp(c.Distance+float64(steps)*DistanceStep, MinDistance, MaxDistance)
}

// PanBy shifts the target in screen units, scaled by PanSpeed.
func (c *Camera) PanBy(dx, dy float64) {
	c.Pan.X -= dx * PanSpeed
	c.Pan.Y += dy * PanSpeed
}

func (c *Camera) RollBy(a float64) { c.Roll += a }

func (c *Camera) Position() Vec3 {
	d := c.Distance
	return Vec3{
		d*math.Sin(c.Phi)*math.Cos(c.Theta) + c.Pan.X,
		d*math.Cos(c.Phi) + c.Pan.Y,
		d*math.Sin(c.Phi)*math.Sin(c.Theta) + c.Pan.Z,
	}
}

// basis returns the right, up and forward axes of the view.
func (c *Camera) basis() (right, up, forward Vec3) {
	eye := c.Position()
	forward = c.Pan.Sub(eye).Normalize()
	up = Vec3{0, 1, 0}
	if c.Roll != 0 {
		up = up.rotate(forward, c.Roll)
	}
	right = forward.Cross(up).Normalize()
	up = right.Cross(forward)
	return right, up, forward
}

// Project maps a world point onto a w×h viewport. The returned depth is the
// distance along the line of sight; ok is false behind the near plane.
func (c *Camera) Project(p physics.Point3D, w, h float64) (x, y, depth float64, ok bool) {
	right, up, forward := c.basis()
	d := vecOf(p).Sub(c.Position())
	depth = d.Dot(forward)
	if depth <= c.Near {
		return 0, 0, depth, false
	}
	f := 1 / math.Tan(c.FOV/2)
	aspect := w / h
	nx := d.Dot(right) * f / (depth * aspect)
	ny := d.Dot(up) * f / depth
	return (nx + 1) / 2 * w, (1 - ny) / 2 * h, depth, true
}

// projectCell is Project rounded to canvas sub-pixels.
func (c *Camera) projectCell(p physics.Point3D, cv *Canvas) (int, int, bool) {
	x, y, _, ok := c.Project(p, float64(cv.Width*2), float64(cv.Height*4))
	if !ok {
		return 0, 0, false
	}
	return int(math.Round(x)), int(math.Round(y)), true
}

type Edge struct {
	Start, End physics.Point3D
	Color      string
}

// AxesEdges returns the X, Y and Z helper axes in red, green and blue.
func AxesEdges(length float64) []Edge {
	return []Edge{
		{End: physics.Point3D{X: length}, Color: "#ff0000"},
		{End: physics.Point3D{Y: length}, Color: "#00ff00"},
		{End: physics.Point3D{Z: length}, Color: "#0000ff"},
	}
}

// DrawEdges projects and draws each edge in its own color.
func DrawEdges(cv *Canvas, cam *Camera, edges []Edge) {
	for _, e := range edges {
		x0, y0, ok0 := cam.projectCell(e.Start, cv)
		x1, y1, ok1 := cam.projectCell(e.End, cv)
		if ok0 && ok1 {
			cv.DrawLine(x0, y0, x1, y1, e.Color)
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
