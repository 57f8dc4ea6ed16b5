package storage

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/san-kum/lorenz3d/internal/physics"
)

// Float is a float64 that encodes NaN and ±Inf as JSON null, which decodes
// back to NaN. encoding/json rejects non-finite numbers, but a diverged
// trajectory is still a run worth keeping.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

type pointRecord struct {
	X Float `json:"x"`
	Y Float `json:"y"`
	Z Float `json:"z"`
}

func newPointRecord(p physics.Point3D) pointRecord {
	return pointRecord{Float(p.X), Float(p.Y), Float(p.Z)}
}

func (r pointRecord) point() physics.Point3D {
	return physics.Point3D{X: float64(r.X), Y: float64(r.Y), Z: float64(r.Z)}
}

type paramsRecord struct {
	Sigma Float `json:"sigma"`
	Rho   Float `json:"rho"`
	Beta  Float `json:"beta"`
	Dt    Float `json:"dt"`
}

// runRecord is the metadata.json layout of a RunMetadata.
type runRecord struct {
	ID         string           `json:"id"`
	Timestamp  time.Time        `json:"timestamp"`
	Params     paramsRecord     `json:"params"`
	Label      string           `json:"label,omitempty"`
	Preset     string           `json:"preset,omitempty"`
	Integrator string           `json:"integrator"`
	Palette    string           `json:"palette"`
	Speed      Float            `json:"speed"`
	MaxPoints  int              `json:"max_points"`
	Frames     int              `json:"frames"`
	Steps      int              `json:"steps"`
	Points     int              `json:"points"`
	Initial    pointRecord      `json:"initial"`
	Final      pointRecord      `json:"final"`
	Metrics    map[string]Float `json:"metrics,omitempty"`
}

func newRunRecord(m RunMetadata) runRecord {
	r := runRecord{
		ID:        m.ID,
		Timestamp: m.Timestamp,
		Params: paramsRecord{
			Sigma: Float(m.Params.Sigma),
			Rho:   Float(m.Params.Rho),
			Beta:  Float(m.Params.Beta),
			Dt:    Float(m.Params.Dt),
		},
		Label:      m.Label,
		Preset:     m.Preset,
		Integrator: m.Integrator,
		Palette:    m.Palette,
		Speed:      Float(m.Speed),
		MaxPoints:  m.MaxPoints,
		Frames:     m.Frames,
		Steps:      m.Steps,
		Points:     m.Points,
		Initial:    newPointRecord(m.Initial),
		Final:      newPointRecord(m.Final),
	}
	if len(m.Metrics) > 0 {
		r.Metrics = make(map[string]Float, len(m.Metrics))
		for k, v := range m.Metrics {
			r.Metrics[k] = Float(v)
		}
	}
	return r
}

func (r runRecord) metadata() RunMetadata {
	m := RunMetadata{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Params: physics.Params{
			Sigma: float64(r.Params.Sigma),
			Rho:   float64(r.Params.Rho),
			Beta:  float64(r.Params.Beta),
			Dt:    float64(r.Params.Dt),
		},
		Label:      r.Label,
		Preset:     r.Preset,
		Integrator: r.Integrator,
		Palette:    r.Palette,
		Speed:      float64(r.Speed),
		MaxPoints:  r.MaxPoints,
		Frames:     r.Frames,
		Steps:      r.Steps,
		Points:     r.Points,
		Initial:    r.Initial.point(),
		Final:      r.Final.point(),
	}
	if len(r.Metrics) > 0 {
		m.Metrics = make(map[string]float64, len(r.Metrics))
		for k, v := range r.Metrics {
			m.Metrics[k] = float64(v)
		}
	}
	return m
}
