package integrators

import (
	"math"

	"github.com/san-kum/lorenz3d/internal/dynamo"
)

// Dormand-Prince coefficients (RK45)
var (
	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// RK45 takes fixed Dormand-Prince steps of size dt. The embedded fourth
// order solution gives a local error estimate, which StepError exposes and
// which analysis code uses to suggest a step size.
type RK45 struct {
	safety   float64
	minScale float64
	maxScale float64

	k      [7]dynamo.State
	stage  dynamo.State
	errMax float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
	}
}

func (r *RK45) ensureScratch(n int) {
	if len(r.stage) != n {
		for i := range r.k {
			r.k[i] = make(dynamo.State, n)
		}
		r.stage = make(dynamo.State, n)
	}
}

// stageAt fills r.stage with x + dt*sum(w[j]*k[j]) and returns its derivative.
func (r *RK45) stageAt(dyn dynamo.System, x dynamo.State, dt float64, w ...float64) dynamo.State {
	for i := range x {
		acc := 0.0
		for j, wj := range w {
			acc += wj * r.k[j][i]
		}
		r.stage[i] = x[i] + dt*acc
	}
	return dyn.Derive(r.stage)
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, dt float64) dynamo.State {
	n := len(x)
	r.ensureScratch(n)

	copy(r.k[0], dyn.Derive(x))
	copy(r.k[1], r.stageAt(dyn, x, dt, b21))
	copy(r.k[2], r.stageAt(dyn, x, dt, b31, b32))
	copy(r.k[3], r.stageAt(dyn, x, dt, b41, b42, b43))
	copy(r.k[4], r.stageAt(dyn, x, dt, b51, b52, b53, b54))
	copy(r.k[5], r.stageAt(dyn, x, dt, b61, b62, b63, b64, b65))

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*r.k[0][i]+c3*r.k[2][i]+c4*r.k[3][i]+c5*r.k[4][i]+c6*r.k[5][i])
	}
	copy(r.k[6], dyn.Derive(xNew))

	r.errMax = 0
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*r.k[0][i] + dc3*r.k[2][i] + dc4*r.k[3][i] + dc5*r.k[4][i] + dc6*r.k[5][i] + dc7*r.k[6][i])
		scale := math.Abs(x[i]) + math.Abs(dt*r.k[0][i]) + 1e-10
		r.errMax = math.Max(r.errMax, math.Abs(errEst)/scale)
	}

	return xNew
}

// StepError is the relative local error of the last Step.
func (r *RK45) StepError() float64 { return r.errMax }

// SuggestDt returns the step size that would bring the last step's error to
// tol, limited to [minScale, maxScale] times dt.
func (r *RK45) SuggestDt(dt, tol float64) float64 {
	errRatio := r.errMax / tol
	switch {
	case errRatio > 1:
		return dt * math.Max(r.minScale, r.safety*math.Pow(errRatio, -0.25))
	case errRatio > 0:
		return dt * math.Min(r.maxScale, r.safety*math.Pow(errRatio, -0.2))
	default:
		return dt * r.maxScale
	}
}
