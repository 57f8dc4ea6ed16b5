package sim

import (
	"context"
	"testing"
	"time"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

func newLoop(t *testing.T, r Renderer) *Loop {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.MaxPoints = 2500
	e, err := NewEngine(cfg.MaxPoints, cfg.GetInitialPoint())
	if err != nil {
		t.Fatal(err)
	}
	return NewLoop(NewStore(cfg), e, r)
}

func TestLoopTick(t *testing.T) {
	var frames []Frame
	l := newLoop(t, RendererFunc(func(f Frame) { frames = append(frames, f) }))

	l.Tick()
	if len(frames) != 1 || frames[0].ValidCount != 0 || frames[0].Dirty {
		t.Fatalf("paused tick: %+v", frames)
	}

	l.Store().SetRunning(true)
	l.Tick()
	want := physics.Step(physics.InitialPoint, physics.ClassicParams())
	if got := l.Store().CurrentPoint(); got != want {
		t.Errorf("store current: got %+v, want %+v", got, want)
	}
	f := frames[1]
	if f.ValidCount != 1 || !f.Dirty || f.Ranges.First != (trail.DrawRange{Start: 0, Count: 1}) {
		t.Errorf("frame: %+v", f)
	}
	if len(f.Positions) != 3*2500 || len(f.Colors) != 3*2500 {
		t.Errorf("array sizes: %d %d", len(f.Positions), len(f.Colors))
	}
	if f.Positions[0] != float32(want.X) {
		t.Errorf("slot 0 x: got %v, want %v", f.Positions[0], float32(want.X))
	}
}

func TestLoopResetFlow(t *testing.T) {
	l := newLoop(t, nil)
	l.Store().SetRunning(true)
	l.RunFrames(20)
	if len(l.Store().History()) != 20 {
		t.Fatalf("history: got %d", len(l.Store().History()))
	}

	l.Store().RequestReset()
	res := l.Tick()
	if !res.Reset {
		t.Fatal("reset not handled")
	}
	if l.Store().NeedsReset() || len(l.Store().History()) != 0 {
		t.Error("store not cleared after reset")
	}
	if l.Store().CurrentPoint() != physics.InitialPoint {
		t.Errorf("current: got %+v", l.Store().CurrentPoint())
	}

	// reset paused the run
	if res := l.Tick(); res.Steps != 0 {
		t.Errorf("stepped after reset: %d", res.Steps)
	}
}

func TestLoopCapacityChange(t *testing.T) {
	l := newLoop(t, nil)
	l.Store().SetRunning(true)
	l.RunFrames(10)

	if err := l.Store().SetMaxPoints(5000); err != nil {
		t.Fatal(err)
	}
	res := l.Tick()
	if !res.Rebuilt || l.Engine().Buffer().Capacity() != 5000 {
		t.Errorf("rebuilt=%v capacity=%d", res.Rebuilt, l.Engine().Buffer().Capacity())
	}
}

func TestLoopRunStopsOnCancel(t *testing.T) {
	l := newLoop(t, nil)
	l.Store().SetRunning(true)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := l.Run(ctx, time.Millisecond); err != context.DeadlineExceeded {
		t.Errorf("Run: got %v", err)
	}
	if frames, _ := l.Store().Counters(); frames == 0 {
		t.Error("no frames ticked")
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Integrator = "rk4"
	l, err := FromConfig(cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	l.Store().SetRunning(true)
	l.RunFrames(3)
	if got := l.Engine().Buffer().ValidCount(); got != 3 {
		t.Errorf("valid count: got %d", got)
	}

	cfg.Integrator = "leapfrog"
	if _, err := FromConfig(cfg, nil); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
