package sim

import (
	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

// FrameResult is what one frame did to the trail.
type FrameResult struct {
	Steps   int
	Points  []physics.Point3D // points added this frame, oldest first
	Current physics.Point3D
	Reset   bool
	Rebuilt bool
	Dirty   bool // buffer arrays changed and need re-upload
	Ranges  trail.Ranges
}

type Option func(*Engine)

// WithIntegrator replaces the closed-form Euler step with a generic
// integrator driven by the Lorenz vector field.
func WithIntegrator(in dynamo.Integrator) Option {
	return func(e *Engine) { e.integrator = in }
}

// Engine owns the trail buffer and advances it once per frame from a
// snapshot of external settings. It never fails a frame.
type Engine struct {
	buf        *trail.Buffer
	initial    physics.Point3D
	current    physics.Point3D
	integrator dynamo.Integrator
	pacer      Pacer
	palette    string
	gradient   trail.Gradient
	ranges     trail.Ranges
}

func NewEngine(capacity int, initial physics.Point3D, opts ...Option) (*Engine, error) {
	buf, err := trail.New(capacity)
	if err != nil {
		return nil, err
	}
	g, _ := trail.Palette(trail.DefaultPalette)
	e := &Engine{
		buf:      buf,
		initial:  initial,
		current:  initial,
		palette:  trail.DefaultPalette,
		gradient: g,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Frame runs one tick of the trail state machine: a pending reset clears the
// trail and ends the frame; otherwise a running simulation takes as many
// steps as the pacer allows. Draw ranges are recomputed either way.
func (e *Engine) Frame(s Snapshot) FrameResult {
	var res FrameResult
	log := dynamo.Logger()

	if s.MaxPoints != e.buf.Capacity() {
		if buf, err := trail.New(s.MaxPoints); err != nil {
			log.Warn("capacity rejected", "max_points", s.MaxPoints, "err", err)
		} else {
			log.Info("trail buffer rebuilt", "from", e.buf.Capacity(), "to", s.MaxPoints)
			e.buf = buf
			res.Rebuilt = true
			res.Dirty = true
		}
	}

	if s.Palette != e.palette {
		if g, err := trail.Palette(s.Palette); err != nil {
			log.Warn("palette rejected", "palette", s.Palette, "err", err)
		} else {
			e.palette = s.Palette
			e.gradient = g
			e.buf.Recolor(s.Params.Dt, g)
			res.Dirty = true
		}
	}

	switch {
	case s.NeedsReset:
		e.buf.Reset()
		e.pacer.Reset()
		e.current = e.initial
		res.Reset = true
		res.Dirty = true
		log.Debug("trail reset")
	case s.Running:
		n := e.pacer.Next(s.Speed)
		if n > 0 {
			res.Points = make([]physics.Point3D, 0, n)
		}
		for range n {
			e.current = e.step(e.current, s.Params)
			e.buf.AddPoint(e.current)
			e.buf.Recolor(s.Params.Dt, e.gradient)
			res.Points = append(res.Points, e.current)
		}
		res.Steps = n
		res.Dirty = res.Dirty || n > 0
	}

	e.ranges = trail.ComputeRanges(e.buf)
	res.Ranges = e.ranges
	res.Current = e.current
	return res
}

func (e *Engine) step(p physics.Point3D, params physics.Params) physics.Point3D {
	if e.integrator == nil {
		return physics.Step(p, params)
	}
	next := e.integrator.Step(physics.NewLorenzFromParams(params), p.State(), params.Dt)
	return physics.PointFromState(next)
}

// Buffer exposes the trail for readers such as exporters. Do not mutate it.
func (e *Engine) Buffer() *trail.Buffer { return e.buf }

func (e *Engine) Ranges() trail.Ranges { return e.ranges }

func (e *Engine) Current() physics.Point3D { return e.current }

func (e *Engine) Palette() trail.Gradient { return e.gradient }
