package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
)

func trajectory(n int) []physics.Point3D {
	pts := make([]physics.Point3D, n)
	p := physics.InitialPoint
	for i := range pts {
		p = physics.Step(p, physics.ClassicParams())
		pts[i] = p
	}
	return pts
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	points := trajectory(50)
	meta := RunMetadata{
		Params:     physics.ClassicParams(),
		Preset:     "classic",
		Integrator: "euler",
		Palette:    "blue",
		Speed:      1,
		MaxPoints:  2500,
		Frames:     50,
		Steps:      50,
		Initial:    physics.InitialPoint,
		Metrics:    map[string]float64{"max_z": 12.5},
	}

	runID, err := st.Save(meta, points)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "lorenz_") {
		t.Errorf("unexpected run id %q", runID)
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if got.ID != runID || got.Params != meta.Params || got.Preset != "classic" {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if got.Points != 50 || got.Final != points[49] {
		t.Errorf("points=%d final=%+v", got.Points, got.Final)
	}
	if got.Metrics["max_z"] != 12.5 {
		t.Errorf("metrics: %v", got.Metrics)
	}

	loaded, err := st.LoadPoints(runID)
	if err != nil {
		t.Fatalf("load points failed: %v", err)
	}
	if len(loaded) != len(points) {
		t.Fatalf("expected %d points, got %d", len(points), len(loaded))
	}
	for i := range points {
		if loaded[i] != points[i] {
			t.Fatalf("point %d: got %+v, want %+v", i, loaded[i], points[i])
		}
	}
}

func TestStoreSaveSameSecond(t *testing.T) {
	st := New(t.TempDir())
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	a, err := st.Save(RunMetadata{Timestamp: ts}, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := st.Save(RunMetadata{Timestamp: ts}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Errorf("ids collide: %s", a)
	}
}

func TestStoreList(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Fatalf("empty store: %v %v", runs, err)
	}

	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)
	if _, err := st.Save(RunMetadata{Timestamp: older}, trajectory(3)); err != nil {
		t.Fatal(err)
	}
	if _, err := st.Save(RunMetadata{Timestamp: newer}, trajectory(3)); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if !runs[0].Timestamp.Equal(newer) {
		t.Errorf("runs not newest first: %v", runs[0].Timestamp)
	}
}

func TestStoreMissingRun(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, dynamo.ErrRunNotFound) {
		t.Errorf("Load: got %v", err)
	}
	if _, err := st.LoadPoints("nope"); !errors.Is(err, dynamo.ErrRunNotFound) {
		t.Errorf("LoadPoints: got %v", err)
	}
}

func TestCSVRoundTripNonFinite(t *testing.T) {
	pts := []physics.Point3D{{X: 1, Y: 2, Z: 3}, {X: math.NaN(), Y: math.Inf(1), Z: -0.5}}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, pts); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "index,x,y,z\n") {
		t.Errorf("header: %q", buf.String())
	}

	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0] != pts[0] || !math.IsNaN(got[1].X) || !math.IsInf(got[1].Y, 1) {
		t.Errorf("got %+v", got)
	}
}

func TestReadCSVRejectsGarbage(t *testing.T) {
	in := "index,x,y,z\n0,1,2,three\n"
	if _, err := ReadCSV(strings.NewReader(in)); err == nil {
		t.Error("expected parse error")
	}
}

func TestExportJSON(t *testing.T) {
	var buf bytes.Buffer
	meta := RunMetadata{ID: "lorenz_1", Params: physics.ClassicParams()}
	if err := ExportJSON(&buf, meta, trajectory(2)); err != nil {
		t.Fatal(err)
	}

	var out struct {
		ID     string         `json:"id"`
		Params physics.Params `json:"params"`
		Trail  [][3]float64   `json:"trail"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.ID != "lorenz_1" || out.Params.Rho != 28 || len(out.Trail) != 2 {
		t.Errorf("decoded: %+v", out)
	}
}

func divergedTrajectory(n int) []physics.Point3D {
	params := physics.ClassicParams()
	params.Dt = 0.5
	pts := make([]physics.Point3D, n)
	p := physics.InitialPoint
	for i := range pts {
		p = physics.Step(p, params)
		pts[i] = p
	}
	return pts
}

func TestStoreSaveDivergedRun(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)

	points := divergedTrajectory(200)
	if points[len(points)-1].IsFinite() {
		t.Fatal("expected the trajectory to diverge")
	}
	meta := RunMetadata{
		Params:  physics.Params{Sigma: 10, Rho: 28, Beta: 8.0 / 3.0, Dt: 0.5},
		Initial: physics.InitialPoint,
		Metrics: map[string]float64{"lyapunov": math.NaN(), "x_max": math.Inf(1), "x_min": -3},
	}

	runID, err := st.Save(meta, points)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != runID {
		t.Fatalf("expected the diverged run to be listed, got %+v", runs)
	}

	got, err := st.Load(runID)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(got.Final.X) || got.Initial != physics.InitialPoint {
		t.Errorf("initial=%+v final=%+v", got.Initial, got.Final)
	}
	if !math.IsNaN(got.Metrics["lyapunov"]) || !math.IsNaN(got.Metrics["x_max"]) || got.Metrics["x_min"] != -3 {
		t.Errorf("metrics: %v", got.Metrics)
	}

	loaded, err := st.LoadPoints(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != len(points) || loaded[len(loaded)-1].IsFinite() {
		t.Errorf("loaded %d points, last %+v", len(loaded), loaded[len(loaded)-1])
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected one run directory, got %d", len(entries))
	}
}

func TestFloatJSON(t *testing.T) {
	data, err := json.Marshal([]Float{1.5, Float(math.NaN()), Float(math.Inf(-1))})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[1.5,null,null]" {
		t.Errorf("encoded %s", data)
	}

	var back []Float
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatal(err)
	}
	if back[0] != 1.5 || !math.IsNaN(float64(back[1])) || !math.IsNaN(float64(back[2])) {
		t.Errorf("decoded %v", back)
	}
}

func TestExportJSONDiverged(t *testing.T) {
	var buf bytes.Buffer
	points := divergedTrajectory(200)
	if err := ExportJSON(&buf, RunMetadata{ID: "lorenz_2", Final: points[len(points)-1]}, points); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "null") {
		t.Error("non-finite coordinates should export as null")
	}
}
