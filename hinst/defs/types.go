package defs

import (
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/stats"
)

// Detections counts how many readings each detector flagged.
type Detections struct {
	Variance int `json:"variance"`
	Spike    int `json:"spike"`
	Jitter   int `json:"jitter"`
	Drift    int `json:"drift"`
	Flatline int `json:"flatline"`
	Gap      int `json:"gap"`
}

type Metrics struct {
	Range   stats.RangeAnalysis
	GMI     float64
	Summary stats.SummaryStatistics
}

// Report compares metrics over every reading with metrics over the
// readings that survive the instability mask.
type Report struct {
	Mask            glucose.Mask
	Detections      Detections
	Flagged         int
	FlaggedFraction float64
	Unmasked        Metrics
	Masked          Metrics
	// SessionDays is nil when the device is unknown.
	SessionDays *float64
}
