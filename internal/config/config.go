package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/integrators"
	"github.com/san-kum/lorenz3d/internal/physics"
	"github.com/san-kum/lorenz3d/internal/trail"
	"gopkg.in/yaml.v3"
)

const (
	DefaultSpeed        = 1.0
	DefaultMaxPoints    = 10000
	DefaultHistoryLimit = 512
	DefaultFPS          = 60
	DefaultTheme        = "cyberpunk"
	DefaultPreset       = "classic"

	VisualModeLine = "line"
	VisualModeDots = "dots"
)

var (
	// MaxPointsOptions are the selectable trail lengths.
	MaxPointsOptions = []int{2500, 5000, 10000, 20000, 30000, 50000, 100000}
	// SpeedOptions are the selectable steps-per-frame multipliers.
	SpeedOptions = []float64{0.5, 1, 2}
)

type Config struct {
	physics.Params `yaml:",inline"`
	Preset         string      `yaml:"preset"`
	Integrator     string      `yaml:"integrator"`
	Speed          float64     `yaml:"speed"`
	MaxPoints      int         `yaml:"max_points"`
	Palette        string      `yaml:"palette"`
	InitialPoint   PointConfig `yaml:"initial_point"`
	HistoryLimit   int         `yaml:"history_limit"`
	View           ViewConfig  `yaml:"view"`
}

type PointConfig struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

type ViewConfig struct {
	FPS        int          `yaml:"fps"`
	Theme      string       `yaml:"theme"`
	VisualMode string       `yaml:"visual_mode"`
	ShowAxes   bool         `yaml:"show_axes"`
	HideUI     bool         `yaml:"hide_ui"`
	Camera     CameraConfig `yaml:"camera"`
}

type CameraConfig struct {
	Distance float64 `yaml:"distance"`
	Theta    float64 `yaml:"theta"`
	Phi      float64 `yaml:"phi"`
}

func DefaultConfig() *Config {
	return &Config{
		Params:       physics.ClassicParams(),
		Preset:       DefaultPreset,
		Integrator:   integrators.Default,
		Speed:        DefaultSpeed,
		MaxPoints:    DefaultMaxPoints,
		Palette:      trail.DefaultPalette,
		InitialPoint: PointConfig{X: physics.InitialPoint.X, Y: physics.InitialPoint.Y, Z: physics.InitialPoint.Z},
		HistoryLimit: DefaultHistoryLimit,
		View: ViewConfig{
			FPS:        DefaultFPS,
			Theme:      DefaultTheme,
			VisualMode: VisualModeLine,
			Camera:     DefaultCamera(),
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields that would otherwise be silently ignored at
// runtime. Coefficients outside the slider bounds are accepted.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, c.Dt)
	}
	if !ValidSpeed(c.Speed) {
		return fmt.Errorf("%w: %g (choose from %v)", dynamo.ErrInvalidSpeed, c.Speed, SpeedOptions)
	}
	if !ValidMaxPoints(c.MaxPoints) {
		return fmt.Errorf("%w: %d (choose from %v)", dynamo.ErrInvalidMaxPoints, c.MaxPoints, MaxPointsOptions)
	}
	if _, err := trail.Palette(c.Palette); err != nil {
		return err
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return err
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("%w: history_limit must not be negative", dynamo.ErrParameterBounds)
	}
	if c.View.FPS <= 0 {
		return fmt.Errorf("%w: fps must be positive, got %d", dynamo.ErrParameterBounds, c.View.FPS)
	}
	if c.View.VisualMode != VisualModeLine && c.View.VisualMode != VisualModeDots {
		return fmt.Errorf("%w: visual_mode must be %q or %q", dynamo.ErrParameterBounds, VisualModeLine, VisualModeDots)
	}
	return nil
}

func (c *Config) GetInitialPoint() physics.Point3D {
	return physics.Point3D{X: c.InitialPoint.X, Y: c.InitialPoint.Y, Z: c.InitialPoint.Z}
}

// ApplyPreset replaces the parameters with a named preset.
func (c *Config) ApplyPreset(name string) error {
	p, err := GetPreset(name)
	if err != nil {
		return err
	}
	c.Params = p
	c.Preset = name
	return nil
}

func ValidSpeed(v float64) bool  { return slices.Contains(SpeedOptions, v) }
func ValidMaxPoints(n int) bool { return slices.Contains(MaxPointsOptions, n) }
