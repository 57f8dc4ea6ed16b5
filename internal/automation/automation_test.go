package automation

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/storage"
)

const scenarioYAML = `name: demo
description: warm up, lower rho, restart
steps:
  - frames: 100
    save_as: warmup
  - params:
      rho: 14
    frames: 50
  - reset: true
    palette: green
    frames: 10
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	if sc.Name != "demo" || len(sc.Steps) != 3 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Steps[1].Params["rho"] != 14 || !sc.Steps[2].Reset {
		t.Errorf("steps not decoded: %+v", sc.Steps)
	}
}

func TestLoadScenarioRejectsEmptySteps(t *testing.T) {
	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected an error for a scenario without steps")
	}
	if _, err := LoadScenario(writeScenario(t, "steps:\n  - frames: 0\n")); err == nil {
		t.Error("expected an error for a step without frames")
	}
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, scenarioYAML))
	if err != nil {
		t.Fatal(err)
	}
	st := storage.New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	results, err := RunScenario(context.Background(), sc, config.DefaultConfig(), st)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	warm := results[0]
	if warm.Steps != 100 || warm.Points != 100 || warm.Preset != "classic" {
		t.Errorf("warmup: steps=%d points=%d preset=%q", warm.Steps, warm.Points, warm.Preset)
	}
	if warm.ID == "" {
		t.Error("warmup should have been saved")
	}

	lowered := results[1]
	if lowered.Params.Rho != 14 || lowered.Preset != "" {
		t.Errorf("rho change not applied: rho=%g preset=%q", lowered.Params.Rho, lowered.Preset)
	}
	if lowered.Steps != 50 || lowered.Points != 150 {
		t.Errorf("trajectory should continue across steps: steps=%d points=%d", lowered.Steps, lowered.Points)
	}

	restarted := results[2]
	if restarted.Steps != 9 || restarted.Points != 9 {
		t.Errorf("reset frame should take no steps: steps=%d points=%d", restarted.Steps, restarted.Points)
	}
	if restarted.Palette != "green" {
		t.Errorf("palette = %q, want green", restarted.Palette)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Label != "warmup" {
		t.Errorf("expected only the labelled step to be saved, got %+v", runs)
	}
}

func TestRunScenarioStopsOnBadStep(t *testing.T) {
	sc := &Scenario{Steps: []ScenarioStep{{Frames: 5}, {Preset: "nope", Frames: 5}}}
	results, err := RunScenario(context.Background(), sc, config.DefaultConfig(), nil)
	if err == nil {
		t.Fatal("expected an error for an unknown preset")
	}
	if len(results) != 1 {
		t.Errorf("expected the first step's result, got %d", len(results))
	}
}

func TestRunScenarioCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sc := &Scenario{Steps: []ScenarioStep{{Frames: 5}}}
	if _, err := RunScenario(ctx, sc, config.DefaultConfig(), nil); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestEnsembleSensitivity(t *testing.T) {
	cfg := &EnsembleConfig{
		Params:       physics.ClassicParams(),
		Base:         physics.Point3D{X: 1, Y: 1, Z: 1},
		Perturbation: 1e-6,
		NumTrials:    20,
		Duration:     0.5,
		Seed:         42,
	}
	short, err := RunEnsemble(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	_, _, shortSep := EnsembleStats(short)

	cfg.Duration = 30
	long, err := RunEnsemble(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	bounded, unbounded, longSep := EnsembleStats(long)

	if bounded != 20 || unbounded != 0 {
		t.Errorf("classic runs should stay bounded: %d bounded, %d not", bounded, unbounded)
	}
	if !(longSep > 1000*shortSep) {
		t.Errorf("perturbations should grow on the chaotic attractor: %e after 0.5, %e after 30", shortSep, longSep)
	}
}

func TestEnsembleStableConverges(t *testing.T) {
	p, err := config.GetPreset("stable")
	if err != nil {
		t.Fatal(err)
	}
	results, err := RunEnsemble(context.Background(), &EnsembleConfig{
		Params:       p,
		Base:         physics.Point3D{X: 1, Y: 1, Z: 1},
		Perturbation: 1e-3,
		NumTrials:    10,
		Duration:     60,
		Seed:         7,
	})
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range results {
		if r.Separation > 1e-3 {
			t.Errorf("trial %d: separation %e should shrink below the perturbation", r.TrialID, r.Separation)
		}
	}
}

func TestEnsembleDeterministicWithSeed(t *testing.T) {
	cfg := &EnsembleConfig{Params: physics.ClassicParams(), Perturbation: 1e-3, NumTrials: 3, Duration: 1, Seed: 3}
	a, err := RunEnsemble(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := RunEnsemble(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if a[i].Initial != b[i].Initial || a[i].Final != b[i].Final {
			t.Fatalf("trial %d differs between runs with the same seed", i)
		}
	}
}

func TestEnsembleStatsEmpty(t *testing.T) {
	b, u, mean := EnsembleStats(nil)
	if b != 0 || u != 0 || !math.IsNaN(mean) {
		t.Errorf("EnsembleStats(nil) = %d, %d, %g", b, u, mean)
	}
}
