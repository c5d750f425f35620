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

	"github.com/san-kum/fibersag/internal/config"
	"github.com/san-kum/fibersag/internal/dynamo"
)

const (
	metadataFile  = "metadata.json"
	positionsFile = "positions.csv"
	heightsFile   = "heights.csv"
)

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
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Fiber        config.FiberConfig `json:"fiber"`
	Run          config.RunConfig   `json:"run"`
	Dt           float64            `json:"dt"`
	Nodes        int                `json:"nodes"`
	Steps        int                `json:"steps"`
	Time         float64            `json:"time"`
	Converged    bool               `json:"converged"`
	Reason       dynamo.StopReason  `json:"reason"`
	LowestHeight float64            `json:"lowest_height"`
	StdDev       float64            `json:"stddev"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes a run directory holding the metadata, the final node
// positions and the sampled height history.
func (s *Store) Save(name string, cfg *config.Config, result *dynamo.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	runID, err := s.makeRunDir(name, now)
	if err != nil {
		return "", err
	}
	runDir := s.Dir(runID)

	meta := RunMetadata{
		ID:           runID,
		Name:         name,
		Timestamp:    now,
		Fiber:        cfg.Fiber,
		Run:          cfg.Run,
		Dt:           cfg.Params().Dt,
		Nodes:        len(result.Final.Positions),
		Steps:        result.Steps,
		Time:         result.Time,
		Converged:    result.Converged,
		Reason:       result.Reason,
		LowestHeight: result.LowestHeight,
		StdDev:       result.StdDev,
		Metrics:      result.Metrics,
	}

	if err := writeFile(filepath.Join(runDir, metadataFile), func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, positionsFile), func(w io.Writer) error {
		return WritePositions(w, result.Final.Positions)
	}); err != nil {
		return "", err
	}

	if err := writeFile(filepath.Join(runDir, heightsFile), func(w io.Writer) error {
		return WriteHeights(w, result.Heights)
	}); err != nil {
		return "", err
	}

	return runID, nil
}

// makeRunDir creates <name>_<unix>, adding a suffix when several runs are
// saved within the same second.
func (s *Store) makeRunDir(name string, now time.Time) (string, error) {
	base := fmt.Sprintf("%s_%d", name, now.Unix())
	runID := base
	for i := 1; ; i++ {
		err := os.Mkdir(s.Dir(runID), 0755)
		if err == nil {
			return runID, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d", base, i)
	}
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// List returns the saved runs, oldest first. Directories without readable
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
			continue
		}

		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})

	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}

	return &meta, nil
}

func (s *Store) LoadPositions(runID string) ([]dynamo.Vector2D, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), positionsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPositions(f)
}

func (s *Store) LoadHeights(runID string) ([]dynamo.Sample, error) {
	f, err := os.Open(filepath.Join(s.Dir(runID), heightsFile))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadHeights(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WritePositions writes one "x,y" line per node with no header.
func WritePositions(w io.Writer, positions []dynamo.Vector2D) error {
	cw := csv.NewWriter(w)
	for _, p := range positions {
		if err := cw.Write([]string{formatFloat(p.X), formatFloat(p.Y)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadPositions(r io.Reader) ([]dynamo.Vector2D, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}

	out := make([]dynamo.Vector2D, 0, len(records))
	for i, rec := range records {
		x, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		y, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		out = append(out, dynamo.Vec(x, y))
	}
	return out, nil
}

// WriteHeights writes the sampled heights as step,time,height with a header.
func WriteHeights(w io.Writer, samples []dynamo.Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"step", "time", "height"}); err != nil {
		return err
	}
	for _, s := range samples {
		row := []string{strconv.Itoa(s.Step), formatFloat(s.Time), formatFloat(s.Height)}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func ReadHeights(r io.Reader) ([]dynamo.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3

	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []dynamo.Sample{}, nil
	}

	out := make([]dynamo.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		step, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		h, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out = append(out, dynamo.Sample{Step: step, Time: t, Height: h})
	}
	return out, nil
}
