package sim

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
)

// Snapshot is everything a frame reads from the store, captured at once.
type Snapshot struct {
	Params     physics.Params
	Running    bool
	NeedsReset bool
	Speed      float64
	MaxPoints  int
	Palette    string
}

// Store holds the user-facing simulation settings and the telemetry the
// engine reports back. Writers win in order; the engine only sees values
// present when a frame starts.
type Store struct {
	mu           sync.RWMutex
	params       physics.Params
	preset       string
	running      bool
	needsReset   bool
	speed        float64
	maxPoints    int
	palette      string
	current      physics.Point3D
	history      []physics.Point3D
	historyLimit int
	frames       int
	steps        int
}

func NewStore(cfg *config.Config) *Store {
	return &Store{
		params:       cfg.Params,
		preset:       cfg.Preset,
		speed:        cfg.Speed,
		maxPoints:    cfg.MaxPoints,
		palette:      cfg.Palette,
		current:      cfg.GetInitialPoint(),
		history:      make([]physics.Point3D, 0, cfg.HistoryLimit),
		historyLimit: cfg.HistoryLimit,
	}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Params:     s.params,
		Running:    s.running,
		NeedsReset: s.needsReset,
		Speed:      s.speed,
		MaxPoints:  s.maxPoints,
		Palette:    s.palette,
	}
}

// Apply records what a frame did: the latest point, the recent-point mirror,
// and acknowledgement of a pending reset.
func (s *Store) Apply(r FrameResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.frames++
	s.steps += r.Steps
	s.current = r.Current
	if r.Reset {
		s.needsReset = false
		s.history = s.history[:0]
		return
	}
	if s.historyLimit == 0 {
		return
	}
	s.history = append(s.history, r.Points...)
	if over := len(s.history) - s.historyLimit; over > 0 {
		s.history = append(s.history[:0], s.history[over:]...)
	}
}

// SetParams replaces the coefficients and clears the active preset.
func (s *Store) SetParams(p physics.Params) error {
	if !(p.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, p.Dt)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	s.preset = ""
	return nil
}

// SetParam updates one named parameter.
func (s *Store) SetParam(name string, v float64) error {
	p := s.Params()
	switch name {
	case "sigma":
		p.Sigma = v
	case "rho":
		p.Rho = v
	case "beta":
		p.Beta = v
	case "dt":
		p.Dt = v
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, name)
	}
	return s.SetParams(p)
}

// LoadPreset switches to a named parameter set and restarts the trail
// without changing whether the simulation is running.
func (s *Store) LoadPreset(name string) error {
	p, err := config.GetPreset(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p
	s.preset = name
	s.needsReset = true
	return nil
}

// RequestReset asks the next frame to clear the trail; it also pauses.
func (s *Store) RequestReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.needsReset = true
	s.running = false
}

func (s *Store) ToggleRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = !s.running
	return s.running
}

func (s *Store) SetRunning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = v
}

func (s *Store) SetSpeed(v float64) error {
	if !config.ValidSpeed(v) {
		return fmt.Errorf("%w: %g (choose from %v)", dynamo.ErrInvalidSpeed, v, config.SpeedOptions)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = v
	return nil
}

// CycleSpeed advances to the next selectable speed.
func (s *Store) CycleSpeed() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speed = cycleFloat(config.SpeedOptions, s.speed)
	return s.speed
}

// SetMaxPoints changes the trail capacity; the engine rebuilds its buffer and
// drops the current trail on the next frame.
func (s *Store) SetMaxPoints(n int) error {
	if !config.ValidMaxPoints(n) {
		return fmt.Errorf("%w: %d (choose from %v)", dynamo.ErrInvalidMaxPoints, n, config.MaxPointsOptions)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxPoints = n
	return nil
}

func (s *Store) CycleMaxPoints() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := config.MaxPointsOptions[0]
	for i, n := range config.MaxPointsOptions {
		if n == s.maxPoints {
			next = config.MaxPointsOptions[(i+1)%len(config.MaxPointsOptions)]
			break
		}
	}
	s.maxPoints = next
	return next
}

func (s *Store) SetPalette(name string) error {
	if _, err := trail.Palette(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette = name
	return nil
}

func (s *Store) CyclePalette() string {
	names := trail.PaletteNames()
	s.mu.Lock()
	defer s.mu.Unlock()
	next := names[0]
	for i, n := range names {
		if n == s.palette {
			next = names[(i+1)%len(names)]
			break
		}
	}
	s.palette = next
	return next
}

func (s *Store) Params() physics.Params {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.params
}

func (s *Store) Preset() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preset
}

func (s *Store) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

func (s *Store) NeedsReset() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.needsReset
}

func (s *Store) CurrentPoint() physics.Point3D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// History returns a copy of the recent-point mirror, oldest first.
func (s *Store) History() []physics.Point3D {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]physics.Point3D, len(s.history))
	copy(out, s.history)
	return out
}

// Counters returns frames ticked and integration steps taken so far.
func (s *Store) Counters() (frames, steps int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frames, s.steps
}

func cycleFloat(options []float64, cur float64) float64 {
	for i, v := range options {
		if math.Abs(v-cur) < 1e-9 {
			return options[(i+1)%len(options)]
		}
	}
	return options[0]
}
