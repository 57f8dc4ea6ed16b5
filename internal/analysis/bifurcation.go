package analysis

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/san-kum/lorenz3d/internal/physics"
	"golang.org/x/sync/errgroup"
)

// SweepPoint is the long-run behaviour at one value of rho.
type SweepPoint struct {
	Rho      float64
	Lyapunov float64
	ZMaxima  []float64 // distinct local maxima of z after the transient
}

type SweepConfig struct {
	Transient    float64 // time discarded before recording maxima
	Record       float64 // time over which maxima are recorded
	Duration     float64 // time used for the Lyapunov estimate
	Perturbation float64
	Workers      int // 0 means GOMAXPROCS
}

func DefaultSweepConfig() SweepConfig {
	return SweepConfig{Transient: 20, Record: 30, Duration: 50, Perturbation: 1e-8}
}

// Sweep varies rho across [rhoMin, rhoMax] in steps evenly spaced values,
// keeping the other parameters of base. Points are computed in parallel and
// returned in rho order. The first failure or ctx cancellation stops the
// sweep.
func Sweep(ctx context.Context, base physics.Params, rhoMin, rhoMax float64, steps int, cfg SweepConfig) ([]SweepPoint, error) {
	if steps < 1 {
		return nil, fmt.Errorf("analysis: sweep needs at least one step, got %d", steps)
	}
	if !(base.Dt > 0) {
		return nil, fmt.Errorf("analysis: sweep needs a positive dt, got %g", base.Dt)
	}
	stride := 0.0
	if steps > 1 {
		stride = (rhoMax - rhoMin) / float64(steps-1)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]SweepPoint, steps)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range steps {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			p := base
			p.Rho = rhoMin + float64(i)*stride
			results[i] = SweepPoint{
				Rho:      p.Rho,
				Lyapunov: Lyapunov(p, physics.InitialPoint, cfg.Duration, cfg.Perturbation),
				ZMaxima:  zMaxima(p, cfg.Transient, cfg.Record),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// zMaxima integrates from the initial point and records the local maxima of
// z, quantised to 1e-3 to merge repeats of a periodic orbit.
func zMaxima(p physics.Params, transient, record float64) []float64 {
	pt := physics.InitialPoint
	for t := 0.0; t < transient; t += p.Dt {
		pt = physics.Step(pt, p)
	}

	values := make([]float64, 0, 64)
	seen := make(map[int]bool)
	prev, cur := pt.Z, pt.Z
	for t := 0.0; t < record; t += p.Dt {
		pt = physics.Step(pt, p)
		if !pt.IsFinite() {
			break
		}
		next := pt.Z
		if cur > prev && cur >= next {
			key := int(cur * 1000)
			if !seen[key] {
				seen[key] = true
				values = append(values, cur)
			}
		}
		prev, cur = cur, next
	}
	return values
}

// BifurcationToASCII plots z maxima against rho.
func BifurcationToASCII(data []SweepPoint, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	var minVal, maxVal float64
	foundFirst := false
	for _, p := range data {
		for _, v := range p.ZMaxima {
			if !foundFirst {
				minVal, maxVal = v, v
				foundFirst = true
				continue
			}
			minVal, maxVal = min(minVal, v), max(maxVal, v)
		}
	}
	if !foundFirst {
		return ""
	}
	if maxVal == minVal {
		maxVal = minVal + 1
	}

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for i, p := range data {
		col := min(i*width/len(data), width-1)
		for _, v := range p.ZMaxima {
			row := height - 1 - int((v-minVal)/(maxVal-minVal)*float64(height-1))
			if row >= 0 && row < height {
				canvas[row][col] = '•'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteByte('\n')
	}
	return sb.String()
}
