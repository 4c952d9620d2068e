// Package instability flags CGM readings that are unreliable: high local
// variance, single-step spikes, jitter, drift, flatlines, dropouts and long
// gaps. Every detector returns a mask the same length as its input where
// true means the reading should be excluded from analysis.
package instability

import (
	"context"
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	"golang.org/x/sync/errgroup"
)

const DefaultInterval = 5 * time.Minute

// Params configures every detector run by Detect.
type Params struct {
	Interval time.Duration   `yaml:"interval"`
	Variance VarianceOptions `yaml:"variance"`
	Spike    SpikeOptions    `yaml:"spike"`
	Jitter   JitterOptions   `yaml:"jitter"`
	Drift    DriftOptions    `yaml:"drift"`
	Flatline FlatlineOptions `yaml:"flatline"`
	Gap      GapOptions      `yaml:"gap"`
}

func DefaultParams() Params {
	return Params{
		Interval: DefaultInterval,
		Variance: DefaultVarianceOptions(),
		Spike:    DefaultSpikeOptions(),
		Jitter:   DefaultJitterOptions(),
		Drift:    DefaultDriftOptions(),
		Flatline: DefaultFlatlineOptions(),
		Gap:      DefaultGapOptions(),
	}
}

// Detections holds the aligned output of each detector.
type Detections struct {
	Variance glucose.Mask
	Spike    glucose.Mask
	Jitter   glucose.Mask
	Drift    glucose.Mask
	Flatline glucose.Mask
	Gap      glucose.Mask
}

func (d Detections) masks() []glucose.Mask {
	return []glucose.Mask{d.Variance, d.Spike, d.Jitter, d.Drift, d.Flatline, d.Gap}
}

// Combine returns the elementwise OR of all detector masks. The result is
// as long as the longest mask; shorter masks contribute nothing past their
// end.
func (d Detections) Combine() glucose.Mask {
	n := 0
	for _, m := range d.masks() {
		if len(m) > n {
			n = len(m)
		}
	}

	out := make(glucose.Mask, n)
	for _, m := range d.masks() {
		for i, b := range m {
			if b {
				out[i] = true
			}
		}
	}
	return out
}

// Detect runs all six detectors concurrently and aligns each result to the
// length of s.
func Detect(ctx context.Context, s glucose.Series, p Params) (Detections, error) {
	if err := ctx.Err(); err != nil {
		return Detections{}, err
	}

	var d Detections
	g, gctx := errgroup.WithContext(ctx)

	run := func(dst *glucose.Mask, detect func() (glucose.Mask, error)) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			m, err := detect()
			if err != nil {
				return err
			}
			*dst = Align(m, len(s))
			return nil
		})
	}

	run(&d.Variance, func() (glucose.Mask, error) { return Variance(s, p.Interval, p.Variance) })
	run(&d.Spike, func() (glucose.Mask, error) { return Spike(s, p.Interval, p.Spike) })
	run(&d.Jitter, func() (glucose.Mask, error) { return Jitter(s, p.Interval, p.Jitter) })
	run(&d.Drift, func() (glucose.Mask, error) { return Drift(s, p.Interval, p.Drift) })
	run(&d.Flatline, func() (glucose.Mask, error) { return Flatline(s, p.Interval, p.Flatline) })
	run(&d.Gap, func() (glucose.Mask, error) { return LongGap(s, p.Interval, p.Gap) })

	if err := g.Wait(); err != nil {
		return Detections{}, err
	}
	// a deadline that passed while the detectors ran still fails the call.
	if err := ctx.Err(); err != nil {
		return Detections{}, err
	}
	return d, nil
}

// Mask is the combined instability mask of s: true wherever any detector
// flags.
func Mask(ctx context.Context, s glucose.Series, p Params) (glucose.Mask, error) {
	d, err := Detect(ctx, s, p)
	if err != nil {
		return nil, err
	}
	return d.Combine(), nil
}

// Align returns a copy of m resized to n. A shorter mask is extended by
// repeating its last element, a longer one is truncated. An empty mask
// extends with false.
func Align(m glucose.Mask, n int) glucose.Mask {
	out := make(glucose.Mask, n)
	copied := copy(out, m)
	if copied == 0 || copied == n {
		return out
	}
	last := m[len(m)-1]
	for i := copied; i < n; i++ {
		out[i] = last
	}
	return out
}
