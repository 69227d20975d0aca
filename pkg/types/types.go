package types

import (
	"fmt"
	"os"
	"time"
)

// MarkerKind classifies a point marker placed on the annotation canvas.
type MarkerKind string

const (
	// Success marks a successful action (rendered green, "O").
	Success MarkerKind = "success"
	// Failure marks a failed action (rendered red, "X").
	Failure MarkerKind = "failure"
)

// Marker is a typed point annotation in canvas pixel space.
type Marker struct {
	X    float64    `json:"x"`
	Y    float64    `json:"y"`
	Kind MarkerKind `json:"kind"`
	ID   string     `json:"id"`
}

// MarkerStats is derived from a marker set; it is recomputed on demand
// and never stored alongside the markers.
type MarkerStats struct {
	Successes int     `json:"successes"`
	Failures  int     `json:"failures"`
	Rate      float64 `json:"rate"` // successes / total, 0 when empty
}

// RatePercent renders the success rate as a percentage with one
// decimal place, e.g. "66.7%".
func (s MarkerStats) RatePercent() string {
	return fmt.Sprintf("%.1f%%", s.Rate*100)
}

// Upload is a candidate image file as handed to the pipeline.
type Upload struct {
	Name string `json:"name"`
	MIME string `json:"mime"`
	Data []byte `json:"-"`
}

// Size returns the payload size in bytes.
func (u Upload) Size() int64 {
	return int64(len(u.Data))
}

// Phase is one discrete stage of the analysis progress state machine.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseUploading Phase = "uploading"
	PhaseAnalyzing Phase = "analyzing"
	PhaseComplete  Phase = "complete"
	PhaseError     Phase = "error"
)

// Progress is the observable state of an in-flight analysis. Percent is
// non-decreasing within a single run.
type Progress struct {
	Percent int    `json:"percent"`
	Phase   Phase  `json:"phase"`
	Message string `json:"message,omitempty"`
}

// Analysis is the record assembled from a successful remote call.
//
// ImagePath points at a temporary copy of the analyzed image owned by
// this record; Release must be called when the record is discarded.
type Analysis struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ImagePath    string    `json:"image_path"`
	FileName     string    `json:"file_name"`
	AnalysisText string    `json:"analysis_text"`
	Confidence   float64   `json:"confidence"` // in [0,1]
	Tags         []string  `json:"tags"`
}

// Release frees the image artifact backing this record. Safe to call
// more than once; a missing file is not an error.
func (a *Analysis) Release() error {
	if a.ImagePath == "" {
		return nil
	}
	path := a.ImagePath
	a.ImagePath = ""
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
