package instability

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
)

var (
	ErrInterval = errors.New("sampling interval must be positive")
	ErrDuration = errors.New("window duration must not be negative")
)

// samples converts a duration into a window length in readings, rounding to
// the nearest whole reading and never going below floor.
func samples(d, interval time.Duration, floor int) int {
	k := int(math.Round(float64(d) / float64(interval)))
	if k < floor {
		return floor
	}
	return k
}

func checkInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("%w: got %s", ErrInterval, interval)
	}
	return nil
}

func checkDurations(ds ...time.Duration) error {
	for _, d := range ds {
		if d < 0 {
			return fmt.Errorf("%w: got %s", ErrDuration, d)
		}
	}
	return nil
}

// fill sets mask[start:end] to true.
func fill(mask glucose.Mask, start, end int) {
	for i := start; i < end; i++ {
		mask[i] = true
	}
}

func allFinite(w []float64) bool {
	for _, v := range w {
		if glucose.Missing(v) {
			return false
		}
	}
	return true
}

// eachRun calls fn with the bounds [start, end) of every maximal run of
// positions where cond holds.
func eachRun(n int, cond func(i int) bool, fn func(start, end int)) {
	start := -1
	for i := 0; i <= n; i++ {
		if i < n && cond(i) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			fn(start, i)
			start = -1
		}
	}
}
