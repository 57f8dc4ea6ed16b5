package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// Render rasterizes the trail into a new image. Points must be oldest first.
func Render(points []physics.Point3D, colors []trail.RGB, proj Projector, opts Options) (*image.RGBA, error) {
	opts = opts.withDefaults()
	bg, err := colorful.Hex(opts.Background)
	if err != nil {
		return nil, fmt.Errorf("export: background %q: %w", opts.Background, err)
	}

	w, h := opts.size()
	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	draw.Draw(img, img.Bounds(), image.NewUniform(rgba(bg)), image.Point{}, draw.Src)

	lw := opts.LineWidth * opts.Scale
	r := &segmentRasterizer{dst: img}
	for _, run := range project(points, colors, proj, w, h) {
		for i, v := range run {
			switch {
			case opts.Mode == config.VisualModeDots:
				r.dot(v, lw)
			case i > 0:
				r.segment(run[i-1], v, lw)
			case len(run) == 1:
				r.dot(v, lw)
			}
		}
	}

	if opts.Caption != "" {
		d := font.Drawer{
			Dst:  img,
			Src:  image.NewUniform(color.RGBA{0x88, 0x88, 0x88, 0xff}),
			Face: basicfont.Face7x13,
			Dot:  fixed.P(8, img.Bounds().Dy()-8),
		}
		d.DrawString(opts.Caption)
	}

	if opts.Contrast != 0 {
		boost(img, ContrastFactor(opts.Contrast))
	}
	return img, nil
}

// PNG renders the trail and encodes it.
func PNG(w io.Writer, points []physics.Point3D, colors []trail.RGB, proj Projector, opts Options) error {
	img, err := Render(points, colors, proj, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

type segmentRasterizer struct {
	dst *image.RGBA
	z   vector.Rasterizer
}

// polygon fills the convex polygon pts with c, rasterizing only the part of
// its bounding box that lies inside the image.
func (s *segmentRasterizer) polygon(pts [][2]float64, c trail.RGB) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p[0]), math.Max(maxX, p[0])
		minY, maxY = math.Min(minY, p[1]), math.Max(maxY, p[1])
	}
	box := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX))+1, int(math.Ceil(maxY))+1)
	clip := box.Intersect(s.dst.Bounds())
	if clip.Empty() {
		return
	}

	s.z.Reset(clip.Dx(), clip.Dy())
	ox, oy := float32(clip.Min.X), float32(clip.Min.Y)
	s.z.MoveTo(float32(pts[0][0])-ox, float32(pts[0][1])-oy)
	for _, p := range pts[1:] {
		s.z.LineTo(float32(p[0])-ox, float32(p[1])-oy)
	}
	s.z.ClosePath()
	s.z.DrawOp = draw.Over
	s.z.Draw(s.dst, clip, image.NewUniform(rgba(colorful.Color(c))), image.Point{})
}

func (s *segmentRasterizer) segment(a, b vertex, lw float64) {
	dx, dy := b.x-a.x, b.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		s.dot(b, lw)
		return
	}
	nx, ny := -dy/l*lw/2, dx/l*lw/2
	s.polygon([][2]float64{
		{a.x + nx, a.y + ny},
		{b.x + nx, b.y + ny},
		{b.x - nx, b.y - ny},
		{a.x - nx, a.y - ny},
	}, b.color)
}

func (s *segmentRasterizer) dot(v vertex, lw float64) {
	r := math.Max(lw, 1)
	pts := make([][2]float64, 8)
	for i := range pts {
		a := float64(i) * math.Pi / 4
		pts[i] = [2]float64{v.x + r*math.Cos(a), v.y + r*math.Sin(a)}
	}
	s.polygon(pts, v.color)
}

func boost(img *image.RGBA, factor float64) {
	var lut [256]uint8
	for i := range lut {
		lut[i] = contrast(uint8(i), factor)
	}
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = lut[img.Pix[i]]
		img.Pix[i+1] = lut[img.Pix[i+1]]
		img.Pix[i+2] = lut[img.Pix[i+2]]
	}
}

func rgba(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 0xff}
}
