package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/lorenz3d/internal/analysis"
	"github.com/san-kum/lorenz3d/internal/automation"
	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/integrators"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/storage"
	"github.com/san-kum/lorenz3d/internal/trail"
	"github.com/spf13/cobra"
)

var (
	analyzeTime float64
	rhoMin      float64
	rhoMax      float64
	sweepSteps  int
	workers     int
	diagram     bool

	trials       int
	perturbation float64
	ensembleTime float64
	seed         int64
)

// transient is the time skipped before sampling a trajectory for its
// spectrum, so the initial approach to the attractor is not counted.
const transient = 20.0

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIGMA\tRHO\tBETA\tDT")
	for _, name := range config.ListPresets() {
		p, err := config.GetPreset(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.3f\t%.3f\n", name, p.Sigma, p.Rho, p.Beta, p.Dt)
	}
	return w.Flush()
}

func listPalettes(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLIGHTER\tMID\tDARKER")
	for _, name := range trail.PaletteNames() {
		g, err := trail.Palette(name)
		if err != nil {
			return err
		}
		def := ""
		if name == trail.DefaultPalette {
			def = " (default)"
		}
		fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n", name, def, g.Lighter.Hex(), g.Mid.Hex(), g.Darker.Hex())
	}
	return w.Flush()
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := config.Save(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func analyzeParams(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if analyzeTime <= 0 {
		return fmt.Errorf("time must be positive, got %g", analyzeTime)
	}

	p := cfg.Params
	x := cfg.GetInitialPoint()
	for range int(transient / p.Dt) {
		x = physics.Step(x, p)
	}
	n := int(analyzeTime / p.Dt)
	if n < 2 {
		return fmt.Errorf("time %g is shorter than two steps of dt %g", analyzeTime, p.Dt)
	}
	points := make([]physics.Point3D, n)
	for i := range points {
		x = physics.Step(x, p)
		points[i] = x
	}
	if !x.IsFinite() {
		return fmt.Errorf("trajectory diverged at %s; lower dt", p)
	}

	lambda := analysis.Lyapunov(p, cfg.GetInitialPoint(), analyzeTime, 1e-8)
	fmt.Printf("params: %s\n", p)
	fmt.Printf("lyapunov exponent: %.4f (%s)\n", lambda, regime(lambda))

	xs := analysis.Series(points, analysis.AxisX)
	fmt.Printf("dominant frequency of x: %.4f\n", analysis.DominantFrequency(xs, p.Dt))

	fmt.Printf("dt for 1e-6 local error: %.4g\n\n", suggestDt(p, points, 1e-6))

	spectrum := analysis.PowerSpectrum(xs)
	if len(spectrum) > 1 {
		// the interesting structure sits in the lowest bins
		spectrum = spectrum[1:min(len(spectrum), 129)]
		fmt.Println(asciigraph.Plot(spectrum,
			asciigraph.Height(12),
			asciigraph.Width(80),
			asciigraph.Caption("power spectrum of x (low bins)"),
		))
	}
	return nil
}

// suggestDt probes the trajectory with Dormand-Prince steps and returns the
// smallest step size that keeps the local error under tol.
func suggestDt(p physics.Params, points []physics.Point3D, tol float64) float64 {
	rk := integrators.NewRK45()
	dyn := physics.NewLorenzFromParams(p)
	best := math.Inf(1)
	for i := 0; i < len(points); i += 50 {
		rk.Step(dyn, points[i].State(), p.Dt)
		best = math.Min(best, rk.SuggestDt(p.Dt, tol))
	}
	return best
}

func regime(lambda float64) string {
	switch {
	case math.IsNaN(lambda):
		return "diverged"
	case lambda > 0.01:
		return "chaotic"
	case lambda < -0.01:
		return "stable"
	default:
		return "periodic"
	}
}

func sweepRho(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sc := analysis.DefaultSweepConfig()
	sc.Workers = workers
	results, err := analysis.Sweep(ctx, cfg.Params, rhoMin, rhoMax, sweepSteps, sc)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RHO\tLYAPUNOV\tMAXIMA\tREGIME")
	for _, r := range results {
		fmt.Fprintf(w, "%.2f\t%.4f\t%d\t%s\n", r.Rho, r.Lyapunov, len(r.ZMaxima), regime(r.Lyapunov))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if diagram {
		fmt.Println()
		fmt.Println("z maxima vs rho:")
		fmt.Println(analysis.BifurcationToASCII(results, 80, 24))
	}
	if onset, ok := chaosOnset(results); ok {
		fmt.Printf("\nfirst chaotic rho: %.2f\n", onset)
	} else {
		fmt.Printf("\nno chaotic rho in [%g, %g]\n", rhoMin, rhoMax)
	}
	return nil
}

func chaosOnset(results []analysis.SweepPoint) (float64, bool) {
	for _, r := range results {
		if regime(r.Lyapunov) == "chaotic" {
			return r.Rho, true
		}
	}
	return 0, false
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunScenario(ctx, sc, cfg, st)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tPARAMS\tSTEPS\tPOINTS\tFINAL\tSAVED")
	for i, r := range results {
		saved := r.ID
		if saved == "" {
			saved = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t(%.2f, %.2f, %.2f)\t%s\n",
			i+1, r.Params, r.Steps, r.Points, r.Final.X, r.Final.Y, r.Final.Z, saved)
	}
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	return err
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunEnsemble(ctx, &automation.EnsembleConfig{
		Params:       cfg.Params,
		Base:         cfg.GetInitialPoint(),
		Perturbation: perturbation,
		NumTrials:    trials,
		Duration:     ensembleTime,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	bounded, unbounded, mean := automation.EnsembleStats(results)
	fmt.Printf("params: %s  time: %g  perturbation: %g\n", cfg.Params, ensembleTime, perturbation)
	fmt.Printf("bounded: %d  diverged: %d\n", bounded, unbounded)
	fmt.Printf("mean separation: %.4g (%.3g times the perturbation)\n", mean, mean/perturbation)

	seps := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Bounded {
			seps = append(seps, r.Separation)
		}
	}
	if len(seps) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(seps,
			asciigraph.Height(8),
			asciigraph.Width(60),
			asciigraph.Caption("separation per trial"),
		))
	}
	return nil
}
