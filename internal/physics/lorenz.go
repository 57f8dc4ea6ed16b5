package physics

import (
	"fmt"

	"github.com/san-kum/lorenz3d/internal/dynamo"
)

// Point3D is a position in phase space.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// InitialPoint is where every trajectory starts after a reset.
var InitialPoint = Point3D{X: 0.1, Y: 0, Z: 0}

func (p Point3D) State() dynamo.State { return dynamo.State{p.X, p.Y, p.Z} }

func PointFromState(s dynamo.State) Point3D {
	if len(s) < 3 {
		return Point3D{}
	}
	return Point3D{s[0], s[1], s[2]}
}

// IsFinite reports whether no coordinate is NaN or Inf.
func (p Point3D) IsFinite() bool { return p.State().IsValid() }

// Params are the Lorenz coefficients together with the fixed step size.
// Zero or negative coefficients are allowed; they give non-chaotic dynamics.
type Params struct {
	Sigma float64 `yaml:"sigma" json:"sigma"`
	Rho   float64 `yaml:"rho" json:"rho"`
	Beta  float64 `yaml:"beta" json:"beta"`
	Dt    float64 `yaml:"dt" json:"dt"`
}

func ClassicParams() Params { return Params{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0, Dt: 0.01} }

func (p Params) String() string {
	return fmt.Sprintf("sigma=%.2f rho=%.2f beta=%.2f dt=%.3f", p.Sigma, p.Rho, p.Beta, p.Dt)
}

// Step advances p by one explicit Euler step. NaN and Inf are not guarded
// and propagate into later steps.
func Step(p Point3D, params Params) Point3D {
	dt := params.Dt
	return Point3D{
		X: p.X + params.Sigma*(p.Y-p.X)*dt,
		Y: p.Y + (p.X*(params.Rho-p.Z)-p.Y)*dt,
		Z: p.Z + (p.X*p.Y-params.Beta*p.Z)*dt,
	}
}

// Lorenz exposes the attractor as a dynamo.System so generic integrators and
// analysis routines can drive it.
type Lorenz struct{ sigma, rho, beta float64 }

var (
	_ dynamo.System       = (*Lorenz)(nil)
	_ dynamo.Configurable = (*Lorenz)(nil)
)

func NewLorenz() *Lorenz { return &Lorenz{10.0, 28.0, 8.0 / 3.0} }

func NewLorenzFromParams(p Params) *Lorenz { return &Lorenz{p.Sigma, p.Rho, p.Beta} }

func (l *Lorenz) StateDim() int { return 3 }

// Derive calculates the Lorenz attractor derivatives.
func (l *Lorenz) Derive(s dynamo.State) dynamo.State {
	return dynamo.State{l.sigma * (s[1] - s[0]), s[0]*(l.rho-s[2]) - s[1], s[0]*s[1] - l.beta*s[2]}
}

func (l *Lorenz) DefaultState() dynamo.State { return InitialPoint.State() }

func (l *Lorenz) GetParams() map[string]float64 {
	return map[string]float64{"sigma": l.sigma, "rho": l.rho, "beta": l.beta}
}

func (l *Lorenz) SetParam(n string, v float64) error {
	switch n {
	case "sigma":
		l.sigma = v
	case "rho":
		l.rho = v
	case "beta":
		l.beta = v
	default:
		return fmt.Errorf("%w: %s", dynamo.ErrUnknownParameter, n)
	}
	return nil
}
