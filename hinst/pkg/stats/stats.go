package stats

import (
	"errors"
	"fmt"
	"math"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	"github.com/montanaflynn/stats"
)

// Default target range in mg/dL.
const (
	DefaultLow  = 70
	DefaultHigh = 180
)

var ErrLengthMismatch = errors.New("mask length must match series length")

// usable returns which readings are not excluded by mask. A nil mask
// excludes nothing.
func usable(s glucose.Series, mask glucose.Mask) ([]bool, error) {
	use := make([]bool, len(s))
	if mask == nil {
		for i := range use {
			use[i] = true
		}
		return use, nil
	}
	if len(mask) != len(s) {
		return nil, fmt.Errorf("%w: mask %d, series %d", ErrLengthMismatch, len(mask), len(s))
	}
	for i, m := range mask {
		use[i] = !m
	}
	return use, nil
}

// fraction counts the usable readings matching pred and divides by the
// number of usable readings.
func fraction(s glucose.Series, use []bool, pred func(v float64) bool) float64 {
	total, hits := 0, 0
	for i, v := range s {
		if !use[i] {
			continue
		}
		total++
		if pred(v) {
			hits++
		}
	}
	if total == 0 {
		return math.NaN()
	}
	return float64(hits) / float64(total)
}

// validValues returns the usable, finite readings.
func validValues(s glucose.Series, use []bool) []float64 {
	vals := make([]float64, 0, len(s))
	for i, v := range s {
		if use[i] && !glucose.Missing(v) {
			vals = append(vals, v)
		}
	}
	return vals
}

// TIR is the fraction of usable readings within [low, high]. It is NaN when
// no usable reading is finite.
func TIR(s glucose.Series, mask glucose.Mask, low, high float64) (float64, error) {
	use, err := usable(s, mask)
	if err != nil {
		return math.NaN(), err
	}
	if len(validValues(s, use)) == 0 {
		return math.NaN(), nil
	}
	return fraction(s, use, func(v float64) bool { return v >= low && v <= high }), nil
}

// TBR is the fraction of usable readings below low. Missing readings count
// as usable but never as below.
func TBR(s glucose.Series, mask glucose.Mask, low float64) (float64, error) {
	use, err := usable(s, mask)
	if err != nil {
		return math.NaN(), err
	}
	return fraction(s, use, func(v float64) bool { return v < low }), nil
}

// TAR is the fraction of usable readings above high.
func TAR(s glucose.Series, mask glucose.Mask, high float64) (float64, error) {
	use, err := usable(s, mask)
	if err != nil {
		return math.NaN(), err
	}
	return fraction(s, use, func(v float64) bool { return v > high }), nil
}

type RangeAnalysis struct {
	BelowRange float64
	InRange    float64
	AboveRange float64
}

func TimeSpentInRange(s glucose.Series, mask glucose.Mask, low, high float64) (RangeAnalysis, error) {
	in, err := TIR(s, mask, low, high)
	if err != nil {
		return RangeAnalysis{}, err
	}
	below, _ := TBR(s, mask, low)
	above, _ := TAR(s, mask, high)
	return RangeAnalysis{BelowRange: below, InRange: in, AboveRange: above}, nil
}

// GMI estimates A1C (%) from mean glucose: 3.31 + 0.02392 * mean.
func GMI(s glucose.Series, mask glucose.Mask) (float64, error) {
	use, err := usable(s, mask)
	if err != nil {
		return math.NaN(), err
	}
	mean, err := stats.Mean(validValues(s, use))
	if err != nil {
		return math.NaN(), nil
	}
	return 3.31 + 0.02392*mean, nil
}

type SummaryStatistics struct {
	Average   float64
	Deviation float64
	Variation float64
	Median    float64
	Min       float64
	Max       float64
}

func emptySummary() SummaryStatistics {
	nan := math.NaN()
	return SummaryStatistics{nan, nan, nan, nan, nan, nan}
}

// GlucoseSummary describes the usable, finite readings. Deviation is the
// sample standard deviation and Variation is Deviation/Average.
func GlucoseSummary(s glucose.Series, mask glucose.Mask) (SummaryStatistics, error) {
	use, err := usable(s, mask)
	if err != nil {
		return emptySummary(), err
	}
	vals := validValues(s, use)
	if len(vals) == 0 {
		return emptySummary(), nil
	}

	avg, _ := stats.Mean(vals)
	dev, _ := stats.StandardDeviationSample(vals)
	med, _ := stats.Median(vals)
	lo, _ := stats.Min(vals)
	hi, _ := stats.Max(vals)

	cv := math.NaN()
	if avg != 0 {
		cv = dev / avg
	}
	return SummaryStatistics{
		Average:   avg,
		Deviation: dev,
		Variation: cv,
		Median:    med,
		Min:       lo,
		Max:       hi,
	}, nil
}
