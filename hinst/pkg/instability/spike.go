package instability

import (
	"math"
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
)

type SpikeOptions struct {
	// Threshold is the largest allowed change in mg/dL between two
	// consecutive readings.
	Threshold float64 `yaml:"threshold"`
}

func DefaultSpikeOptions() SpikeOptions {
	return SpikeOptions{Threshold: 20}
}

// Spike flags reading i when it differs from reading i-1 by more than the
// threshold. The first reading is compared against itself and is never
// flagged.
func Spike(s glucose.Series, interval time.Duration, opts SpikeOptions) (glucose.Mask, error) {
	if err := checkInterval(interval); err != nil {
		return nil, err
	}

	out := make(glucose.Mask, len(s))
	for i := 1; i < len(s); i++ {
		if math.Abs(s[i]-s[i-1]) > opts.Threshold {
			out[i] = true
		}
	}
	return out, nil
}
