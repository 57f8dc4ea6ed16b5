package sim

import (
	"errors"
	"testing"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/integrators"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

func running(capacity int) Snapshot {
	return Snapshot{
		Params:    physics.ClassicParams(),
		Running:   true,
		Speed:     1,
		MaxPoints: capacity,
		Palette:   trail.DefaultPalette,
	}
}

func newEngine(t *testing.T, capacity int, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(capacity, physics.InitialPoint, opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNewEngineInvalidCapacity(t *testing.T) {
	for _, c := range []int{0, -3} {
		if _, err := NewEngine(c, physics.InitialPoint); !errors.Is(err, dynamo.ErrInvalidCapacity) {
			t.Errorf("capacity %d: got %v, want ErrInvalidCapacity", c, err)
		}
	}
}

func TestEngineRunFollowsEuler(t *testing.T) {
	e := newEngine(t, 100)
	s := running(100)

	want := physics.InitialPoint
	for i := 0; i < 5; i++ {
		res := e.Frame(s)
		want = physics.Step(want, s.Params)
		if res.Steps != 1 || len(res.Points) != 1 {
			t.Fatalf("frame %d: steps=%d points=%d", i, res.Steps, len(res.Points))
		}
		if res.Current != want {
			t.Fatalf("frame %d: got %+v, want %+v", i, res.Current, want)
		}
		if !res.Dirty {
			t.Errorf("frame %d: expected dirty", i)
		}
	}

	if got := e.Buffer().ValidCount(); got != 5 {
		t.Errorf("valid count: got %d, want 5", got)
	}
	if r := e.Ranges(); r.First != (trail.DrawRange{Start: 0, Count: 5}) || !r.Second.Empty() {
		t.Errorf("ranges: got %v %v", r.First, r.Second)
	}
}

func TestEngineSpeed(t *testing.T) {
	e := newEngine(t, 100)
	s := running(100)
	s.Speed = 2

	res := e.Frame(s)
	if res.Steps != 2 {
		t.Fatalf("got %d steps, want 2", res.Steps)
	}
	want := physics.Step(physics.Step(physics.InitialPoint, s.Params), s.Params)
	if res.Current != want || res.Points[1] != want {
		t.Errorf("got %+v, want %+v", res.Current, want)
	}

	s.Speed = 0.5
	total := 0
	for i := 0; i < 10; i++ {
		total += e.Frame(s).Steps
	}
	if total != 5 {
		t.Errorf("half speed over 10 frames: got %d steps, want 5", total)
	}
}

func TestEngineIdle(t *testing.T) {
	e := newEngine(t, 10)
	s := running(10)
	e.Frame(s)
	e.Frame(s)

	s.Running = false
	before := e.Current()
	res := e.Frame(s)
	if res.Steps != 0 || res.Dirty || res.Reset {
		t.Errorf("idle frame mutated: %+v", res)
	}
	if res.Current != before {
		t.Errorf("current moved while idle")
	}
	if res.Ranges.Count() != 2 {
		t.Errorf("idle ranges: got %d points, want 2", res.Ranges.Count())
	}
}

func TestEngineReset(t *testing.T) {
	e := newEngine(t, 10)
	s := running(10)
	for i := 0; i < 12; i++ {
		e.Frame(s)
	}

	s.NeedsReset = true
	res := e.Frame(s)
	if !res.Reset || res.Steps != 0 {
		t.Fatalf("reset frame: %+v", res)
	}
	if res.Current != physics.InitialPoint {
		t.Errorf("current not restored: %+v", res.Current)
	}
	b := e.Buffer()
	if b.Head() != 0 || b.TotalWritten() != 0 || b.ValidCount() != 0 {
		t.Errorf("buffer not cleared: head=%d total=%d", b.Head(), b.TotalWritten())
	}
	if res.Ranges.Count() != 0 {
		t.Errorf("ranges after reset: %v", res.Ranges.List())
	}
}

func TestEngineRebuildOnCapacityChange(t *testing.T) {
	e := newEngine(t, 10)
	s := running(10)
	for i := 0; i < 4; i++ {
		e.Frame(s)
	}
	cur := e.Current()

	s.MaxPoints = 20
	res := e.Frame(s)
	if !res.Rebuilt {
		t.Fatal("expected rebuild")
	}
	if got := e.Buffer().Capacity(); got != 20 {
		t.Errorf("capacity: got %d, want 20", got)
	}
	if got := e.Buffer().ValidCount(); got != 1 {
		t.Errorf("old trail kept: got %d points, want 1", got)
	}
	if want := physics.Step(cur, s.Params); res.Current != want {
		t.Errorf("trajectory restarted: got %+v, want %+v", res.Current, want)
	}
}

func TestEngineRejectsBadCapacity(t *testing.T) {
	e := newEngine(t, 10)
	s := running(0)
	res := e.Frame(s)
	if res.Rebuilt {
		t.Error("rebuilt with capacity 0")
	}
	if got := e.Buffer().Capacity(); got != 10 {
		t.Errorf("capacity: got %d, want 10", got)
	}
}

func TestEnginePaletteChangeRecolors(t *testing.T) {
	e := newEngine(t, 10)
	s := running(10)
	s.Palette = "red"
	e.Frame(s)

	s.Running = false
	s.Palette = "green"
	res := e.Frame(s)
	if !res.Dirty {
		t.Error("palette change should mark the buffer dirty")
	}
	g, _ := trail.Palette("green")
	if got := e.Buffer().Color(0); got != toFloat32(g.Lighter) {
		t.Errorf("newest color: got %v, want %v", got, g.Lighter)
	}

	s.Palette = "no-such-palette"
	if res := e.Frame(s); res.Dirty {
		t.Error("unknown palette should be ignored")
	}
}

func TestEnginePaletteChangeUsesCurrentDt(t *testing.T) {
	e := newEngine(t, 10)
	s := running(10)
	for i := 0; i < 3; i++ {
		e.Frame(s)
	}

	// dt edited while paused, then the palette changes before any step
	s.Running = false
	s.Params.Dt = 1.0
	s.Palette = "green"
	if res := e.Frame(s); res.Steps != 0 || !res.Dirty {
		t.Fatalf("paused palette change: steps=%d dirty=%v", res.Steps, res.Dirty)
	}

	g, _ := trail.Palette("green")
	if got, want := e.Buffer().Color(1), toFloat32(g.ColorForAge(1.0)); got != want {
		t.Errorf("second newest color: got %v, want %v (aged with the new dt)", got, want)
	}
}

func TestEngineWithIntegrator(t *testing.T) {
	in, err := integrators.Get("euler")
	if err != nil {
		t.Fatal(err)
	}
	a := newEngine(t, 50)
	b := newEngine(t, 50, WithIntegrator(in))
	s := running(50)
	for i := 0; i < 30; i++ {
		ra, rb := a.Frame(s), b.Frame(s)
		if ra.Current != rb.Current {
			t.Fatalf("frame %d: %+v != %+v", i, ra.Current, rb.Current)
		}
	}
}

// toFloat32 rounds c the way the buffer stores it.
func toFloat32(c trail.RGB) trail.RGB {
	return trail.RGB{R: float64(float32(c.R)), G: float64(float32(c.G)), B: float64(float32(c.B))}
}
