package automation

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/sim"
	"github.com/san-kum/lorenz3d/internal/storage"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of trail segments.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep changes the controls, then runs for Frames frames. Unset
// fields leave the previous step's value in place, so the trajectory
// continues across steps unless Preset or Reset restarts it.
type ScenarioStep struct {
	Preset    string             `yaml:"preset"`
	Params    map[string]float64 `yaml:"params"`
	Speed     float64            `yaml:"speed"`
	MaxPoints int                `yaml:"max_points"`
	Palette   string             `yaml:"palette"`
	Reset     bool               `yaml:"reset"`
	Frames    int                `yaml:"frames"`
	SaveAs    string             `yaml:"save_as"`
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	for i, step := range scenario.Steps {
		if step.Frames <= 0 {
			return nil, fmt.Errorf("step %d: frames must be positive, got %d", i+1, step.Frames)
		}
	}

	return &scenario, nil
}

// RunScenario plays every step on one loop built from base. Steps with a
// SaveAs label are written to st when st is non-nil. The returned metadata
// has one entry per step.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, st *storage.Store) ([]storage.RunMetadata, error) {
	loop, err := sim.FromConfig(base, nil)
	if err != nil {
		return nil, err
	}
	s := loop.Store()
	log := dynamo.Logger().With("scenario", scenario.Name)

	results := make([]storage.RunMetadata, 0, len(scenario.Steps))
	for i, step := range scenario.Steps {
		log.Info("running step", "step", i+1, "of", len(scenario.Steps), "frames", step.Frames)

		if err := apply(s, step); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		s.SetRunning(true)

		frames0, steps0 := s.Counters()
		initial := s.CurrentPoint()
		for range step.Frames {
			if err := ctx.Err(); err != nil {
				return results, err
			}
			loop.Tick()
		}
		frames, steps := s.Counters()
		points, _ := loop.Engine().Buffer().Chronological()

		snap := s.Snapshot()
		meta := storage.RunMetadata{
			Label:      step.SaveAs,
			Params:     snap.Params,
			Preset:     s.Preset(),
			Integrator: base.Integrator,
			Palette:    snap.Palette,
			Speed:      snap.Speed,
			MaxPoints:  snap.MaxPoints,
			Frames:     frames - frames0,
			Steps:      steps - steps0,
			Points:     len(points),
			Initial:    initial,
			Final:      loop.Engine().Current(),
		}
		if st != nil && step.SaveAs != "" {
			id, err := st.Save(meta, points)
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
			meta.ID = id
			log.Info("saved step", "step", i+1, "id", id, "label", step.SaveAs)
		}
		results = append(results, meta)
	}

	return results, nil
}

func apply(s *sim.Store, step ScenarioStep) error {
	if step.Preset != "" {
		if err := s.LoadPreset(step.Preset); err != nil {
			return err
		}
	}
	names := make([]string, 0, len(step.Params))
	for name := range step.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := s.SetParam(name, step.Params[name]); err != nil {
			return err
		}
	}
	if step.Speed != 0 {
		if err := s.SetSpeed(step.Speed); err != nil {
			return err
		}
	}
	if step.MaxPoints != 0 {
		if err := s.SetMaxPoints(step.MaxPoints); err != nil {
			return err
		}
	}
	if step.Palette != "" {
		if err := s.SetPalette(step.Palette); err != nil {
			return err
		}
	}
	if step.Reset {
		s.RequestReset()
	}
	return nil
}

// EnsembleConfig defines a set of runs from randomly perturbed initial points
type EnsembleConfig struct {
	Params       physics.Params
	Base         physics.Point3D
	Perturbation float64
	NumTrials    int
	Duration     float64
	Seed         int64
}

// EnsembleResult compares one perturbed run with the unperturbed reference
type EnsembleResult struct {
	TrialID    int
	Initial    physics.Point3D
	Final      physics.Point3D
	Separation float64 // distance from the reference run's final point
	Bounded    bool    // did the run stay finite and inside 1e6?
}

// RunEnsemble integrates the reference run and NumTrials perturbed copies for
// Duration and reports how far each one ended up from the reference.
func RunEnsemble(ctx context.Context, cfg *EnsembleConfig) ([]EnsembleResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("ensemble needs at least one trial, got %d", cfg.NumTrials)
	}
	if !(cfg.Params.Dt > 0) {
		return nil, fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, cfg.Params.Dt)
	}
	steps := int(cfg.Duration / cfg.Params.Dt)
	reference := integrate(cfg.Base, cfg.Params, steps)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]EnsembleResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		initial := physics.Point3D{
			X: cfg.Base.X + (rng.Float64()-0.5)*2*cfg.Perturbation,
			Y: cfg.Base.Y + (rng.Float64()-0.5)*2*cfg.Perturbation,
			Z: cfg.Base.Z + (rng.Float64()-0.5)*2*cfg.Perturbation,
		}
		final := integrate(initial, cfg.Params, steps)

		bounded := final.IsFinite()
		for _, v := range []float64{final.X, final.Y, final.Z} {
			if math.Abs(v) > 1e6 {
				bounded = false
			}
		}

		results = append(results, EnsembleResult{
			TrialID:    trial,
			Initial:    initial,
			Final:      final,
			Separation: final.State().Sub(reference.State()).Norm(),
			Bounded:    bounded,
		})

		if (trial+1)%10 == 0 {
			dynamo.Logger().Debug("ensemble progress", "done", trial+1, "of", cfg.NumTrials)
		}
	}

	return results, nil
}

func integrate(p physics.Point3D, params physics.Params, steps int) physics.Point3D {
	for range steps {
		p = physics.Step(p, params)
	}
	return p
}

// EnsembleStats summarises an ensemble. The mean separation counts bounded
// runs only and is NaN when there are none.
func EnsembleStats(results []EnsembleResult) (bounded, unbounded int, meanSeparation float64) {
	sum := 0.0
	for _, r := range results {
		if r.Bounded {
			bounded++
			sum += r.Separation
		} else {
			unbounded++
		}
	}
	if bounded == 0 {
		return bounded, unbounded, math.NaN()
	}
	return bounded, unbounded, sum / float64(bounded)
}
