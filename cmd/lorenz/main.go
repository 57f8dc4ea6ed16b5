package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/san-kum/lorenz3d/internal/config"
	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	verbose    bool

	// simulation overrides, applied on top of the config file
	preset     string
	palette    string
	integrator string
	maxPoints  int
	speed      float64
	sigma      float64
	rho        float64
	beta       float64
	dt         float64

	// live view
	frameRate int
	theme     string
	mode      string
	showAxes  bool
	hideUI    bool
	autostart bool
	outDir    string
)

// main registers the commands and runs the live view when none is given.
// It exits with status 1 if the command returns an error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "lorenz",
		Short:         "lorenz attractor trail in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLive,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lorenz", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging (to <data>/lorenz.log in the live view)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return setupLogging(cmd)
	}
	addLiveFlags(rootCmd)

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "interactive 3d view",
		RunE:  runLive,
	}
	addLiveFlags(liveCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run headless for a number of frames and save the trail",
		RunE:  runHeadless,
	}
	addSimFlags(runCmd)
	runCmd.Flags().IntVar(&runFrames, "frames", 2000, "frames to simulate")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "print the summary without saving")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotPlane, "plane", "xz", "phase portrait plane")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write a run's trail as csv",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "write a run's metadata and trail as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "render a saved run to png",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	addImageFlags(snapshotCmd)
	snapshotCmd.Flags().Float64Var(&contrastBoost, "contrast", 0.2, "contrast boost (0 disables)")
	snapshotCmd.Flags().Float64Var(&scale, "scale", 3, "resolution multiplier")

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render a saved run to svg",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	addImageFlags(svgCmd)
	svgCmd.Flags().StringVar(&svgPlane, "plane", "", "flat projection (xy, xz, yz) instead of the camera")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list parameter presets",
		RunE:  listPresets,
	}

	palettesCmd := &cobra.Command{
		Use:   "palettes",
		Short: "list trail palettes",
		RunE:  listPalettes,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "write the default configuration",
		Args:  cobra.ExactArgs(1),
		RunE:  initConfig,
	})

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "lyapunov exponent and spectrum for the current parameters",
		RunE:  analyzeParams,
	}
	addSimFlags(analyzeCmd)
	analyzeCmd.Flags().Float64Var(&analyzeTime, "time", 100, "integration time")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep rho and report where the flow turns chaotic",
		RunE:  sweepRho,
	}
	addSimFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&rhoMin, "rho-min", 0, "first rho")
	sweepCmd.Flags().Float64Var(&rhoMax, "rho-max", 50, "last rho")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 26, "number of rho values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = all cpus)")
	sweepCmd.Flags().BoolVar(&diagram, "diagram", false, "print a bifurcation diagram of z maxima")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "play a yaml scenario headless",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "ignore save_as labels")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble",
		Short: "measure how perturbed initial points separate",
		RunE:  runEnsemble,
	}
	addSimFlags(ensembleCmd)
	ensembleCmd.Flags().IntVar(&trials, "trials", 50, "number of perturbed runs")
	ensembleCmd.Flags().Float64Var(&perturbation, "perturbation", 1e-6, "maximum offset per coordinate")
	ensembleCmd.Flags().Float64Var(&ensembleTime, "time", 30, "integration time")
	ensembleCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")

	rootCmd.AddCommand(liveCmd, runCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd,
		snapshotCmd, svgCmd, presetsCmd, palettesCmd, configCmd, analyzeCmd, sweepCmd,
		scenarioCmd, ensembleCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&preset, "preset", "", "parameter preset (classic, complex, stable)")
	f.StringVar(&palette, "palette", "", "trail palette")
	f.StringVar(&integrator, "integrator", "", "integrator (euler, rk4, rk45)")
	f.IntVar(&maxPoints, "max-points", 0, "trail length")
	f.Float64Var(&speed, "speed", 0, "steps per frame (0.5, 1, 2)")
	f.Float64Var(&sigma, "sigma", 0, "sigma")
	f.Float64Var(&rho, "rho", 0, "rho")
	f.Float64Var(&beta, "beta", 0, "beta")
	f.Float64Var(&dt, "dt", 0, "time step")
}

func addLiveFlags(cmd *cobra.Command) {
	addSimFlags(cmd)
	f := cmd.Flags()
	f.IntVar(&frameRate, "fps", 0, "frames per second")
	f.StringVar(&theme, "theme", "", "hud theme")
	f.StringVar(&mode, "mode", "", "line or dots")
	f.BoolVar(&showAxes, "axes", false, "show axes")
	f.BoolVar(&hideUI, "hide-ui", false, "hide the hud")
	f.BoolVar(&autostart, "autostart", false, "start running immediately")
	f.StringVar(&outDir, "out", ".", "directory for snapshots")
}

// loadConfig reads the config file (or defaults), applies the preset and
// then any explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}

	f := cmd.Flags()
	if f.Changed("preset") {
		if err := cfg.ApplyPreset(preset); err != nil {
			return nil, err
		}
	}
	edited := false
	for name, dst := range map[string]*float64{"sigma": &cfg.Sigma, "rho": &cfg.Rho, "beta": &cfg.Beta, "dt": &cfg.Dt} {
		if f.Changed(name) {
			v, _ := f.GetFloat64(name)
			*dst = v
			edited = true
		}
	}
	if edited {
		cfg.Preset = ""
	}
	if f.Changed("palette") {
		cfg.Palette = palette
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("max-points") {
		cfg.MaxPoints = maxPoints
	}
	if f.Changed("speed") {
		cfg.Speed = speed
	}
	if f.Changed("fps") {
		cfg.View.FPS = frameRate
	}
	if f.Changed("theme") {
		cfg.View.Theme = theme
	}
	if f.Changed("mode") {
		cfg.View.VisualMode = mode
	}
	if f.Changed("axes") {
		cfg.View.ShowAxes = showAxes
	}
	if f.Changed("hide-ui") {
		cfg.View.HideUI = hideUI
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupLogging installs a text handler when --verbose is set. The live view
// owns the terminal, so it logs to a file instead of stderr.
func setupLogging(cmd *cobra.Command) error {
	if !verbose {
		return nil
	}
	var w io.Writer = os.Stderr
	if cmd.Name() == "live" || cmd.Name() == "lorenz" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(filepath.Join(dataDir, "lorenz.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		w = f
	}
	dynamo.SetLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dynamo.Logger().Info("starting live view", "params", cfg.Params.String(), "max_points", cfg.MaxPoints)
	return viz.Run(cfg, outDir, autostart)
}
