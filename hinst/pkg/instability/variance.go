package instability

import (
	"math"
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	"github.com/montanaflynn/stats"
)

const adaptivePercentile = 95

type VarianceOptions struct {
	Window time.Duration `yaml:"window"`
	// Threshold is the variance above which a reading is flagged. When nil
	// it is the 95th percentile of all window variances in the series.
	Threshold *float64 `yaml:"threshold,omitempty"`
}

func DefaultVarianceOptions() VarianceOptions {
	return VarianceOptions{Window: 30 * time.Minute}
}

// Variance flags reading i when the population variance of the trailing
// window ending at i exceeds the threshold. Missing readings are skipped
// inside a window; a window with no finite readings is never flagged.
func Variance(s glucose.Series, interval time.Duration, opts VarianceOptions) (glucose.Mask, error) {
	if err := checkInterval(interval); err != nil {
		return nil, err
	}
	if err := checkDurations(opts.Window); err != nil {
		return nil, err
	}

	n := len(s)
	k := samples(opts.Window, interval, 1)
	out := make(glucose.Mask, n)
	if n < k {
		return out, nil
	}

	vars := windowVariances(s, k)

	var threshold float64
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	} else {
		defined := make([]float64, 0, n)
		for _, v := range vars {
			if !math.IsNaN(v) {
				defined = append(defined, v)
			}
		}
		if len(defined) == 0 {
			return out, nil
		}
		threshold = percentile(defined, adaptivePercentile)
	}

	for i, v := range vars {
		if !math.IsNaN(v) && v > threshold {
			out[i] = true
		}
	}
	return out, nil
}

// windowVariances returns the variance of the trailing k readings at every
// index, NaN where there is not enough history or no finite reading.
func windowVariances(s glucose.Series, k int) []float64 {
	vars := make([]float64, len(s))
	finite := make([]float64, 0, k)
	for i := range vars {
		vars[i] = math.NaN()
		if i < k-1 {
			continue
		}

		finite = finite[:0]
		for _, v := range s[i-k+1 : i+1] {
			if !glucose.Missing(v) {
				finite = append(finite, v)
			}
		}
		if len(finite) == 0 {
			continue
		}
		if v, err := stats.PopulationVariance(finite); err == nil {
			vars[i] = v
		}
	}
	return vars
}
