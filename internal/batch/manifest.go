package batch

import (
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
)

// Manifest records one batch run: what was converted, from which
// schema, and how each file fared.
type Manifest struct {
	RunID     string    `json:"run_id"`
	Version   string    `json:"source_version"`
	Started   time.Time `json:"started"`
	Elapsed   string    `json:"elapsed"`
	Total     int       `json:"total"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Results   []Result  `json:"results"`
}

// NewManifest tallies results into a manifest with a fresh run id.
func NewManifest(version string, started time.Time, results []Result) Manifest {
	m := Manifest{
		RunID:   uuid.NewString(),
		Version: version,
		Started: started.UTC(),
		Elapsed: time.Since(started).Round(time.Millisecond).String(),
		Total:   len(results),
		Results: results,
	}
	for _, r := range results {
		if r.Success {
			m.Succeeded++
		} else {
			m.Failed++
		}
	}
	return m
}

// WriteManifest writes manifest.json to the output directory.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
