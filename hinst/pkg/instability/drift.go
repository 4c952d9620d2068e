package instability

import (
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
)

type DriftOptions struct {
	// Duration is the length of a monotonic stretch that counts as drift.
	Duration time.Duration `yaml:"duration"`
	// LowThreshold is the reading in mg/dL below which a value is low.
	LowThreshold float64 `yaml:"lowThreshold"`
	// LowDuration is how long readings must stay low before they are flagged.
	LowDuration time.Duration `yaml:"lowDuration"`
}

func DefaultDriftOptions() DriftOptions {
	return DriftOptions{
		Duration:     24 * time.Hour,
		LowThreshold: 70,
		LowDuration:  8 * time.Hour,
	}
}

// Drift flags two patterns: every window of Duration whose readings are all
// finite and move in one direction (flat steps allowed), and every run of
// finite readings below LowThreshold that lasts longer than LowDuration.
func Drift(s glucose.Series, interval time.Duration, opts DriftOptions) (glucose.Mask, error) {
	if err := checkInterval(interval); err != nil {
		return nil, err
	}
	if err := checkDurations(opts.Duration, opts.LowDuration); err != nil {
		return nil, err
	}

	out := make(glucose.Mask, len(s))
	monotonicWindows(s, samples(opts.Duration, interval, 2), out)

	kLow := samples(opts.LowDuration, interval, 2)
	low := func(i int) bool {
		return !glucose.Missing(s[i]) && s[i] < opts.LowThreshold
	}
	eachRun(len(s), low, func(start, end int) {
		if end-start > kLow {
			fill(out, start, end)
		}
	})

	return out, nil
}

// monotonicWindows marks every trailing window of k readings that is
// all-finite and non-strictly monotonic. It gives the same result as
// re-scanning each window but runs in O(n): prefix counts answer "any
// missing / any rise / any fall in range" in constant time, and covered
// ranges are accumulated in a difference array.
func monotonicWindows(s glucose.Series, k int, out glucose.Mask) {
	n := len(s)
	if n < k {
		return
	}

	// missing[i], rises[i], falls[i] count occurrences strictly before i.
	// rises and falls are indexed by difference j = s[j+1]-s[j].
	missing := make([]int, n+1)
	rises := make([]int, n)
	falls := make([]int, n)
	for i, v := range s {
		missing[i+1] = missing[i]
		if glucose.Missing(v) {
			missing[i+1]++
		}
		if i+1 < n {
			rises[i+1], falls[i+1] = rises[i], falls[i]
			switch d := s[i+1] - v; {
			case d > 0:
				rises[i+1]++
			case d < 0:
				falls[i+1]++
			}
		}
	}

	cover := make([]int, n+1)
	for end := k; end <= n; end++ {
		start := end - k
		if missing[end]-missing[start] > 0 {
			continue
		}
		// differences inside the window are start .. end-2.
		up := rises[end-1] - rises[start]
		down := falls[end-1] - falls[start]
		if up == 0 || down == 0 {
			cover[start]++
			cover[end]--
		}
	}

	active := 0
	for i := 0; i < n; i++ {
		active += cover[i]
		if active > 0 {
			out[i] = true
		}
	}
}
