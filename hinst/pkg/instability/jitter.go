package instability

import (
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
)

type JitterOptions struct {
	Window time.Duration `yaml:"window"`
	// MinReversals is the number of direction changes within a window
	// needed to flag it.
	MinReversals int `yaml:"minReversals"`
}

func DefaultJitterOptions() JitterOptions {
	return JitterOptions{Window: 30 * time.Minute, MinReversals: 2}
}

// Jitter flags every reading of a trailing window whose consecutive
// differences change sign at least MinReversals times. Windows containing a
// missing reading are skipped. A zero difference never counts as a reversal.
func Jitter(s glucose.Series, interval time.Duration, opts JitterOptions) (glucose.Mask, error) {
	if err := checkInterval(interval); err != nil {
		return nil, err
	}
	if err := checkDurations(opts.Window); err != nil {
		return nil, err
	}

	n := len(s)
	k := samples(opts.Window, interval, 3)
	out := make(glucose.Mask, n)

	for i := k - 1; i < n; i++ {
		w := s[i-k+1 : i+1]
		if !allFinite(w) {
			continue
		}
		if reversals(w) >= opts.MinReversals {
			fill(out, i-k+1, i+1)
		}
	}
	return out, nil
}

func reversals(w []float64) int {
	count := 0
	for j := 2; j < len(w); j++ {
		prev, cur := w[j-1]-w[j-2], w[j]-w[j-1]
		if cur*prev < 0 {
			count++
		}
	}
	return count
}
