package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/artgrow/internal/brush"
	"github.com/san-kum/artgrow/internal/geom"
	"github.com/san-kum/artgrow/internal/growth"
	"github.com/san-kum/artgrow/internal/scene"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var samplesHeader = []string{"segment", "index", "x", "y", "z", "qx", "qy", "qz", "qw", "pressure"}

var ErrMalformedSamples = errors.New("storage: malformed samples file")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Grammar   string             `json:"grammar"`
	Timestamp time.Time          `json:"timestamp"`
	Seed      int64              `json:"seed"`
	FPS       int                `json:"fps"`
	Duration  float64            `json:"duration"`
	Symbols   int                `json:"symbols"`
	Segments  int                `json:"segments"`
	Samples   int                `json:"samples"`
	Brush     brush.Brush        `json:"brush"`
	Metrics   map[string]float64 `json:"metrics"`
}

// Run is everything recorded about one headless growth session.
type Run struct {
	Grammar  string
	Seed     int64
	FPS      int
	Duration float64
	Symbols  int
	Brush    brush.Brush
	Metrics  map[string]float64
	Segments []scene.Segment
}

// MetricsFromStats flattens interpreter statistics for metadata.json.
func MetricsFromStats(st *growth.Stats) map[string]float64 {
	return map[string]float64{
		"ticks":     float64(st.Ticks),
		"elapsed":   st.Elapsed,
		"consumed":  float64(st.Consumed),
		"segments":  float64(st.Segments),
		"retired":   float64(st.Retired),
		"failed":    float64(st.Failed),
		"peak_live": float64(st.PeakLive),
		"rate":      st.Rate(),
	}
}

// Save writes run to a fresh run directory. Hidden segments, i.e. undone
// ones, are not part of the painting and are left out.
func (s *Store) Save(run Run) (string, error) {
	run.Segments = visible(run.Segments)

	runID, runDir, err := s.mkRunDir(run.Grammar)
	if err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Grammar:   run.Grammar,
		Timestamp: time.Now(),
		Seed:      run.Seed,
		FPS:       run.FPS,
		Duration:  run.Duration,
		Symbols:   run.Symbols,
		Segments:  len(run.Segments),
		Brush:     run.Brush,
		Metrics:   run.Metrics,
	}
	for _, seg := range run.Segments {
		meta.Samples += len(seg.Samples)
	}

	metaFile, err := os.Create(filepath.Join(runDir, metadataFile))
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvFile, err := os.Create(filepath.Join(runDir, samplesFile))
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	if err := WriteSamples(csvFile, run.Segments); err != nil {
		return "", err
	}
	return runID, nil
}

func visible(segs []scene.Segment) []scene.Segment {
	out := make([]scene.Segment, 0, len(segs))
	for _, seg := range segs {
		if seg.Visible {
			out = append(out, seg)
		}
	}
	return out
}

// mkRunDir creates a fresh run directory named after the grammar and the
// current time.
func (s *Store) mkRunDir(grammar string) (string, string, error) {
	if err := s.Init(); err != nil {
		return "", "", err
	}
	base := fmt.Sprintf("%s_%d", grammar, time.Now().Unix())
	for n := 0; ; n++ {
		runID := base
		if n > 0 {
			runID = fmt.Sprintf("%s_%d", base, n)
		}
		dir := s.Dir(runID)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return runID, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
	}
}

// WriteSamples writes one CSV row per sample, segments in order.
func WriteSamples(out io.Writer, segments []scene.Segment) error {
	w := csv.NewWriter(out)
	if err := w.Write(samplesHeader); err != nil {
		return err
	}

	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, seg := range segments {
		id := strconv.Itoa(int(seg.ID))
		for i, smp := range seg.Samples {
			p, q := smp.Position, smp.Orientation
			row := []string{id, strconv.Itoa(i), f(p.X), f(p.Y), f(p.Z), f(q.X), f(q.Y), f(q.Z), f(q.W), f(smp.Pressure)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}

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
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads samples.csv back into closed, visible segments. Every
// segment carries the run's brush.
func (s *Store) LoadSamples(runID string) ([]scene.Segment, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filepath.Join(s.Dir(runID), samplesFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	segs, err := ReadSamples(file)
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	for i := range segs {
		segs[i].Brush = meta.Brush
	}
	return segs, nil
}

// ReadSamples parses the CSV written by WriteSamples.
func ReadSamples(in io.Reader) ([]scene.Segment, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = len(samplesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSamples, err)
	}
	if len(records) < 2 {
		return []scene.Segment{}, nil
	}

	var segs []scene.Segment
	for n, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d column %s: %v", ErrMalformedSamples, n+2, samplesHeader[j], err)
			}
			vals[j] = v
		}

		id := growth.SegmentID(vals[0])
		if len(segs) == 0 || segs[len(segs)-1].ID != id {
			segs = append(segs, scene.Segment{ID: id, Closed: true, Visible: true})
		}
		seg := &segs[len(segs)-1]
		seg.Samples = append(seg.Samples, scene.Sample{
			Position:    geom.V3(vals[2], vals[3], vals[4]),
			Orientation: geom.Quat{X: vals[5], Y: vals[6], Z: vals[7], W: vals[8]},
			Pressure:    vals[9],
		})
	}
	return segs, nil
}

// LoadScene rebuilds a scene from a saved run.
func (s *Store) LoadScene(runID string) (*scene.Scene, error) {
	segs, err := s.LoadSamples(runID)
	if err != nil {
		return nil, err
	}
	sc := scene.New()
	for _, seg := range segs {
		id, err := sc.OpenSegment(seg.Brush)
		if err != nil {
			return nil, err
		}
		for _, smp := range seg.Samples {
			if err := sc.AppendSample(id, smp.Position, smp.Orientation, smp.Pressure); err != nil {
				return nil, err
			}
		}
		if _, err := sc.CloseSegment(id); err != nil {
			return nil, err
		}
	}
	return sc, nil
}
