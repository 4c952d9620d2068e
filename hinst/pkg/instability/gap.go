package instability

import (
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
)

type GapOptions struct {
	// MinGap is the shortest run of missing readings that is flagged.
	MinGap time.Duration `yaml:"minGap"`
	// LeadIn is how much data before a long gap is also flagged.
	LeadIn time.Duration `yaml:"leadIn"`
}

func DefaultGapOptions() GapOptions {
	return GapOptions{MinGap: 30 * time.Minute, LeadIn: time.Hour}
}

// LongGap flags every run of missing readings lasting at least MinGap,
// together with the LeadIn worth of readings before it. Shorter runs are
// left alone.
func LongGap(s glucose.Series, interval time.Duration, opts GapOptions) (glucose.Mask, error) {
	if err := checkInterval(interval); err != nil {
		return nil, err
	}
	if err := checkDurations(opts.MinGap, opts.LeadIn); err != nil {
		return nil, err
	}

	kGap := samples(opts.MinGap, interval, 1)
	kPrior := samples(opts.LeadIn, interval, 0)
	out := make(glucose.Mask, len(s))

	missing := func(i int) bool { return glucose.Missing(s[i]) }
	eachRun(len(s), missing, func(start, end int) {
		if end-start < kGap {
			return
		}
		from := start - kPrior
		if from < 0 {
			from = 0
		}
		fill(out, from, end)
	})
	return out, nil
}
