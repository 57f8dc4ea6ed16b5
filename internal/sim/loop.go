package sim

import (
	"context"
	"time"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/integrators"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

// Frame is the renderer's view of the trail after a tick. Positions and
// Colors alias the engine's buffer and are only valid until the next tick.
type Frame struct {
	Positions  []float32
	Colors     []float32
	Ranges     trail.Ranges
	Dirty      bool
	Current    physics.Point3D
	ValidCount int
}

type Renderer interface {
	Draw(f Frame)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(Frame)

func (fn RendererFunc) Draw(f Frame) { fn(f) }

// Loop runs the store, engine and renderer in lock-step.
type Loop struct {
	store    *Store
	engine   *Engine
	renderer Renderer
}

// NewLoop wires the pieces together. A nil renderer discards frames.
func NewLoop(store *Store, engine *Engine, r Renderer) *Loop {
	if r == nil {
		r = RendererFunc(func(Frame) {})
	}
	return &Loop{store: store, engine: engine, renderer: r}
}

// FromConfig builds a store, engine and loop from cfg.
func FromConfig(cfg *config.Config, r Renderer) (*Loop, error) {
	var opts []Option
	if cfg.Integrator != "" && cfg.Integrator != integrators.Default {
		in, err := integrators.Get(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithIntegrator(in))
	}
	engine, err := NewEngine(cfg.MaxPoints, cfg.GetInitialPoint(), opts...)
	if err != nil {
		return nil, err
	}
	return NewLoop(NewStore(cfg), engine, r), nil
}

// Tick runs one frame and returns what it did.
func (l *Loop) Tick() FrameResult {
	res := l.engine.Frame(l.store.Snapshot())
	l.store.Apply(res)

	buf := l.engine.Buffer()
	l.renderer.Draw(Frame{
		Positions:  buf.Positions(),
		Colors:     buf.Colors(),
		Ranges:     res.Ranges,
		Dirty:      res.Dirty,
		Current:    res.Current,
		ValidCount: buf.ValidCount(),
	})
	return res
}

// Run ticks every interval until ctx is cancelled. A tick in progress always
// completes before cancellation is observed.
func (l *Loop) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.Tick()
		}
	}
}

// RunFrames ticks n times without waiting, for headless runs.
func (l *Loop) RunFrames(n int) {
	for range n {
		l.Tick()
	}
}

func (l *Loop) Store() *Store   { return l.store }
func (l *Loop) Engine() *Engine { return l.engine }
