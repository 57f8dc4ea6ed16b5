package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/lorenz3d/internal/dynamo"
	"github.com/san-kum/lorenz3d/internal/physics"
)

const (
	metadataFile = "metadata.json"
	pointsFile   = "points.csv"
)

// Store keeps saved runs as one directory per run under baseDir.
type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunMetadata describes a saved run. Non-finite values, such as the final
// point of a diverged trajectory, are stored as null and load back as NaN.
type RunMetadata struct {
	ID         string
	Timestamp  time.Time
	Params     physics.Params
	Label      string
	Preset     string
	Integrator string
	Palette    string
	Speed      float64
	MaxPoints  int
	Frames     int
	Steps      int
	Points     int
	Initial    physics.Point3D
	Final      physics.Point3D
	Metrics    map[string]float64
}

// Save writes metadata.json and points.csv for a new run and returns its id.
// Points must be oldest first.
func (s *Store) Save(meta RunMetadata, points []physics.Point3D) (runID string, err error) {
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	runID = fmt.Sprintf("lorenz_%d", meta.Timestamp.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for n := 2; ; n++ {
		if _, err := os.Stat(runDir); errors.Is(err, fs.ErrNotExist) {
			break
		}
		runID = fmt.Sprintf("lorenz_%d_%d", meta.Timestamp.Unix(), n)
		runDir = filepath.Join(s.baseDir, runID)
	}

	meta.ID = runID
	meta.Points = len(points)
	if len(points) > 0 {
		meta.Final = points[len(points)-1]
	}

	metaData, err := json.MarshalIndent(newRunRecord(meta), "", "  ")
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			os.RemoveAll(runDir)
			runID = ""
		}
	}()

	if err := os.WriteFile(filepath.Join(runDir, metadataFile), append(metaData, '\n'), 0644); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, pointsFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteCSV(csvFile, points); err != nil {
		return "", err
	}
	if err := csvFile.Sync(); err != nil {
		return "", err
	}

	dynamo.Logger().Info("run saved", "id", runID, "points", len(points), "dir", runDir)
	return runID, nil
}

// List returns every readable run, newest first. Directories without valid
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			dynamo.Logger().Debug("skipping run directory", "dir", entry.Name(), "err", err)
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrRunNotFound, runID)
		}
		return nil, err
	}

	var rec runRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("storage: run %s metadata: %w", runID, err)
	}
	meta := rec.metadata()
	return &meta, nil
}

// LoadPoints reads a run's trail, oldest first.
func (s *Store) LoadPoints(runID string) ([]physics.Point3D, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, pointsFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", dynamo.ErrRunNotFound, runID)
		}
		return nil, err
	}
	defer file.Close()

	points, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("storage: run %s points: %w", runID, err)
	}
	return points, nil
}

// WriteCSV writes points as index,x,y,z rows under a header.
func WriteCSV(w io.Writer, points []physics.Point3D) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "x", "y", "z"}); err != nil {
		return err
	}
	for i, p := range points {
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(p.X, 'g', -1, 64),
			strconv.FormatFloat(p.Y, 'g', -1, 64),
			strconv.FormatFloat(p.Z, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses the format written by WriteCSV.
func ReadCSV(r io.Reader) ([]physics.Point3D, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []physics.Point3D{}, nil
	}

	points := make([]physics.Point3D, 0, len(records)-1)
	for i, record := range records[1:] {
		var v [3]float64
		for j := range v {
			v[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i+1, err)
			}
		}
		points = append(points, physics.Point3D{X: v[0], Y: v[1], Z: v[2]})
	}
	return points, nil
}

// ExportData is the document ExportJSON writes: the metadata fields plus the
// trail as [x, y, z] triples, with non-finite coordinates as null.
type ExportData struct {
	runRecord
	Trail [][3]Float `json:"trail"`
}

// ExportJSON writes a run's metadata and trail as one indented document.
func ExportJSON(w io.Writer, meta RunMetadata, points []physics.Point3D) error {
	data := ExportData{
		runRecord: newRunRecord(meta),
		Trail:     make([][3]Float, len(points)),
	}
	for i, p := range points {
		data.Trail[i] = [3]Float{Float(p.X), Float(p.Y), Float(p.Z)}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
