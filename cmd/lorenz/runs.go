package main

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/lorenz3d/internal/analysis"
	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/export"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/sim"
	"github.com/san-kum/lorenz3d/internal/storage"
	"github.com/san-kum/lorenz3d/internal/trail"
	"github.com/san-kum/lorenz3d/internal/viz"
	"github.com/spf13/cobra"
)

var (
	runFrames int
	noSave    bool
	plotPlane string
	svgPlane  string
	outFile   string

	imgWidth      int
	imgHeight     int
	imgMode       string
	scale         float64
	contrastBoost float64
)

func addImageFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&imgWidth, "width", export.DefaultWidth, "image width")
	f.IntVar(&imgHeight, "height", export.DefaultHeight, "image height")
	f.StringVar(&imgMode, "mode", config.VisualModeLine, "line or dots")
	f.StringVar(&palette, "palette", "", "trail palette (default: the run's)")
	f.StringVarP(&outFile, "out", "o", "", "output file (default: timestamped name)")
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if runFrames <= 0 {
		return fmt.Errorf("frames must be positive, got %d", runFrames)
	}

	loop, err := sim.FromConfig(cfg, nil)
	if err != nil {
		return err
	}
	st := loop.Store()
	st.SetRunning(true)

	start := time.Now()
	loop.RunFrames(runFrames)
	elapsed := time.Since(start)

	frames, steps := st.Counters()
	points, _ := loop.Engine().Buffer().Chronological()
	final := loop.Engine().Current()

	fmt.Printf("params: %s\n", cfg.Params)
	fmt.Printf("integrator: %s  speed: %g  max points: %d\n", cfg.Integrator, cfg.Speed, cfg.MaxPoints)
	fmt.Printf("frames: %d  steps: %d  points: %d  (%s)\n", frames, steps, len(points), elapsed.Round(time.Millisecond))
	fmt.Printf("final: (%.3f, %.3f, %.3f)\n", final.X, final.Y, final.Z)
	if !final.IsFinite() {
		fmt.Println("warning: trajectory diverged; lower dt or pick another preset")
	}

	metrics := trailMetrics(points)
	metrics["lyapunov"] = analysis.Lyapunov(cfg.Params, cfg.GetInitialPoint(), float64(steps)*cfg.Dt, 1e-8)
	fmt.Printf("lyapunov: %.4f\n", metrics["lyapunov"])

	if noSave {
		return nil
	}

	meta := storage.RunMetadata{
		Params:     cfg.Params,
		Preset:     st.Preset(),
		Integrator: cfg.Integrator,
		Palette:    cfg.Palette,
		Speed:      cfg.Speed,
		MaxPoints:  cfg.MaxPoints,
		Frames:     frames,
		Steps:      steps,
		Points:     len(points),
		Initial:    cfg.GetInitialPoint(),
		Final:      final,
		Metrics:    metrics,
	}
	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	id, err := store.Save(meta, points)
	if err != nil {
		return err
	}
	dynamo.Logger().Info("saved run", "id", id, "points", len(points))
	fmt.Printf("saved: %s\n", id)
	return nil
}

// trailMetrics records the bounding box of the finite points.
func trailMetrics(points []physics.Point3D) map[string]float64 {
	m := map[string]float64{}
	first := true
	for _, p := range points {
		if !p.IsFinite() {
			continue
		}
		for _, a := range []analysis.Axis{analysis.AxisX, analysis.AxisY, analysis.AxisZ} {
			v := a.Of(p)
			lo, hi := a.String()+"_min", a.String()+"_max"
			if first {
				m[lo], m[hi] = v, v
				continue
			}
			m[lo], m[hi] = math.Min(m[lo], v), math.Max(m[hi], v)
		}
		first = false
	}
	return m
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tPRESET\tSIGMA\tRHO\tBETA\tDT\tINTEG\tSTEPS\tPOINTS")

	for _, run := range runs {
		preset := run.Preset
		if preset == "" {
			preset = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.3f\t%.3f\t%s\t%d\t%d\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			preset,
			run.Params.Sigma,
			run.Params.Rho,
			run.Params.Beta,
			run.Params.Dt,
			run.Integrator,
			run.Steps,
			run.Points,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	points, err := st.LoadPoints(runID)
	if err != nil {
		return err
	}

	if len(points) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("params: %s\n", meta.Params)
	fmt.Printf("points: %d\n\n", len(points))

	for _, a := range []analysis.Axis{analysis.AxisX, analysis.AxisY, analysis.AxisZ} {
		graph := asciigraph.Plot(downsample(analysis.Series(points, a), 400),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(a.String()+" vs step"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if len(plotPlane) != 2 {
		return fmt.Errorf("plane must name two axes, got %q", plotPlane)
	}
	h, err := analysis.ParseAxis(plotPlane[:1])
	if err != nil {
		return err
	}
	v, err := analysis.ParseAxis(plotPlane[1:])
	if err != nil {
		return err
	}
	fmt.Printf("phase portrait (%s):\n", plotPlane)
	fmt.Println(analysis.PhasePortraitToASCII(points, h, v, 80, 30))
	return nil
}

// downsample keeps at most n evenly spaced values.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	stride := float64(len(data)-1) / float64(n-1)
	for i := range out {
		out[i] = data[int(float64(i)*stride)]
	}
	return out
}

// openOut returns stdout when path is empty.
func openOut(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	points, err := storage.New(dataDir).LoadPoints(args[0])
	if err != nil {
		return err
	}
	w, err := openOut(outFile)
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(w, points); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	points, err := st.LoadPoints(args[0])
	if err != nil {
		return err
	}
	w, err := openOut(outFile)
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(w, *meta, points); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// loadTrail reads a saved run and colors it the way the live view would
// have at the moment it was saved.
func loadTrail(runID string) (*storage.RunMetadata, []physics.Point3D, []trail.RGB, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	points, err := st.LoadPoints(runID)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(points) == 0 {
		return nil, nil, nil, errors.New("run has no points")
	}

	name := meta.Palette
	if palette != "" {
		name = palette
	}
	if name == "" {
		name = trail.DefaultPalette
	}
	g, err := trail.Palette(name)
	if err != nil {
		return nil, nil, nil, err
	}
	return meta, points, colorize(points, meta.Params.Dt, g), nil
}

// colorize assigns age colors to points ordered oldest first.
func colorize(points []physics.Point3D, dt float64, g trail.Gradient) []trail.RGB {
	colors := make([]trail.RGB, len(points))
	n := len(points)
	for i := range points {
		colors[i] = g.ColorForAge(float64(n-1-i) * dt)
	}
	return colors
}

func imageOptions(meta *storage.RunMetadata, n int) (export.Options, error) {
	if imgMode != config.VisualModeLine && imgMode != config.VisualModeDots {
		return export.Options{}, fmt.Errorf("mode must be %q or %q", config.VisualModeLine, config.VisualModeDots)
	}
	opts := export.DefaultOptions()
	opts.Width, opts.Height = imgWidth, imgHeight
	opts.Mode = imgMode
	opts.Caption = export.Caption(meta.Params, n)
	return opts, nil
}

func snapshotRun(cmd *cobra.Command, args []string) error {
	meta, points, colors, err := loadTrail(args[0])
	if err != nil {
		return err
	}
	opts, err := imageOptions(meta, len(points))
	if err != nil {
		return err
	}
	opts.Scale = scale
	opts.Contrast = contrastBoost

	name := outFile
	if name == "" {
		name = export.SnapshotName(meta.Timestamp, "png")
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	cam := viz.NewCamera(config.DefaultCamera())
	if err := export.PNG(f, points, colors, cam, opts); err != nil {
		f.Close()
		return err
	}
	fmt.Printf("saved %s\n", name)
	return f.Close()
}

func svgRun(cmd *cobra.Command, args []string) error {
	meta, points, colors, err := loadTrail(args[0])
	if err != nil {
		return err
	}
	opts, err := imageOptions(meta, len(points))
	if err != nil {
		return err
	}

	var proj export.Projector = viz.NewCamera(config.DefaultCamera())
	if svgPlane != "" {
		fit, err := export.NewFitPlane(export.Plane(strings.ToLower(svgPlane)), points)
		if err != nil {
			return err
		}
		proj = fit
	}

	name := outFile
	if name == "" {
		name = export.SnapshotName(meta.Timestamp, "svg")
	}
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := export.SVG(f, points, colors, proj, opts); err != nil {
		f.Close()
		return err
	}
	fmt.Printf("saved %s\n", name)
	return f.Close()
}
