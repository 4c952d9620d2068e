package instability

import (
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
)

type FlatlineOptions struct {
	Window time.Duration `yaml:"window"`
}

func DefaultFlatlineOptions() FlatlineOptions {
	return FlatlineOptions{Window: 30 * time.Minute}
}

// Flatline flags every reading of a trailing window whose readings are all
// finite and exactly equal, and every missing reading.
func Flatline(s glucose.Series, interval time.Duration, opts FlatlineOptions) (glucose.Mask, error) {
	if err := checkInterval(interval); err != nil {
		return nil, err
	}
	if err := checkDurations(opts.Window); err != nil {
		return nil, err
	}

	n := len(s)
	k := samples(opts.Window, interval, 2)
	out := make(glucose.Mask, n)

	for i := k - 1; i < n; i++ {
		w := s[i-k+1 : i+1]
		if allFinite(w) && constant(w) {
			fill(out, i-k+1, i+1)
		}
	}

	// Dropout.
	for i, v := range s {
		if glucose.Missing(v) {
			out[i] = true
		}
	}
	return out, nil
}

func constant(w []float64) bool {
	lo, hi := w[0], w[0]
	for _, v := range w[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo == hi
}
