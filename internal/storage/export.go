package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/fibersag/internal/dynamo"
)

type ExportData struct {
	RunMetadata
	Heights   []dynamo.Sample   `json:"heights"`
	Positions []dynamo.Vector2D `json:"positions"`
}

// ExportJSON writes a run's metadata, height history and final shape as a
// single indented JSON document.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	heights, err := s.LoadHeights(runID)
	if err != nil {
		return err
	}
	positions, err := s.LoadPositions(runID)
	if err != nil {
		return err
	}

	data := ExportData{
		RunMetadata: *meta,
		Heights:     heights,
		Positions:   positions,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
