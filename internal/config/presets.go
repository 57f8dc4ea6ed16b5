package config

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
)

var Presets = map[string]physics.Params{
	"classic": {Sigma: 10, Rho: 28, Beta: 8.0 / 3.0, Dt: 0.01},
	"complex": {Sigma: 10, Rho: 99.96, Beta: 8.0 / 3.0, Dt: 0.005},
	"stable":  {Sigma: 10, Rho: 14, Beta: 8.0 / 3.0, Dt: 0.01},
}

func GetPreset(name string) (physics.Params, error) {
	p, ok := Presets[name]
	if !ok {
		return physics.Params{}, fmt.Errorf("%w: %s (available: %v)", dynamo.ErrUnknownPreset, name, ListPresets())
	}
	return p, nil
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bound is the adjustable range of a parameter.
type Bound struct {
	Min, Max, Step float64
}

func (b Bound) Clamp(v float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, v))
}

var ParamBounds = map[string]Bound{
	"sigma": {Min: 0, Max: 20, Step: 0.1},
	"rho":   {Min: 0, Max: 50, Step: 0.1},
	"beta":  {Min: 0, Max: 5, Step: 0.01},
	"dt":    {Min: 0.001, Max: 0.05, Step: 0.001},
}

// ParamNames lists the tunable parameters in display order.
var ParamNames = []string{"sigma", "rho", "beta", "dt"}

// DefaultCamera is the starting orbit: 45 degrees around and above, 150 units out.
func DefaultCamera() CameraConfig {
	return CameraConfig{Distance: 150, Theta: math.Pi / 4, Phi: math.Pi / 4}
}
