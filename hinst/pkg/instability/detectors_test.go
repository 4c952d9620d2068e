package instability

import (
	"math"
	"testing"
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const interval = 5 * time.Minute

var nan = math.NaN()

type DetectorsTestSuite struct {
	suite.Suite
}

func TestDetectorsTestSuite(t *testing.T) {
	suite.Run(t, new(DetectorsTestSuite))
}

func repeat(v float64, n int) glucose.Series {
	s := make(glucose.Series, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func flags(n int, ranges ...[2]int) glucose.Mask {
	m := make(glucose.Mask, n)
	for _, r := range ranges {
		fill(m, r[0], r[1])
	}
	return m
}

func (suite *DetectorsTestSuite) TestSpike() {
	m, err := Spike(glucose.Series{100, 100, 130}, interval, SpikeOptions{Threshold: 20})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), glucose.Mask{false, false, true}, m)

	m, err = Spike(glucose.Series{100, nan, 150, 129}, interval, DefaultSpikeOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), glucose.Mask{false, false, false, true}, m)

	m, err = Spike(glucose.Series{100, 120}, interval, DefaultSpikeOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), glucose.Mask{false, false}, m, "change equal to threshold is not a spike")

	m, err = Spike(nil, interval, DefaultSpikeOptions())
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), m, 0)
}

func (suite *DetectorsTestSuite) TestVarianceThreshold() {
	s := append(repeat(100, 7), 200)
	threshold := 1000.0

	m, err := Variance(s, interval, VarianceOptions{Window: 30 * time.Minute, Threshold: &threshold})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(8, [2]int{7, 8}), m)
}

func (suite *DetectorsTestSuite) TestVarianceAdaptive() {
	// window variances are 0, 0 and ~1388.9; the 95th percentile is ~1250.
	s := append(repeat(100, 7), 200)

	m, err := Variance(s, interval, DefaultVarianceOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(8, [2]int{7, 8}), m)
}

func (suite *DetectorsTestSuite) TestVarianceSkipsMissing() {
	s := glucose.Series{100, nan, 100, 100, nan, 100, 100, 100}
	threshold := 0.0

	m, err := Variance(s, interval, VarianceOptions{Window: 30 * time.Minute, Threshold: &threshold})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 8), m)
}

func (suite *DetectorsTestSuite) TestVarianceDegenerate() {
	m, err := Variance(repeat(nan, 10), interval, DefaultVarianceOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 10), m, "no computable variance flags nothing")

	m, err = Variance(glucose.Series{100, 300, 100}, interval, DefaultVarianceOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 3), m, "shorter than one window")
}

func (suite *DetectorsTestSuite) TestJitter() {
	m, err := Jitter(glucose.Series{100, 105, 100, 105, 100, 105}, interval, DefaultJitterOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(6, [2]int{0, 6}), m)

	m, err = Jitter(glucose.Series{100, 101, 102, 103, 104, 105}, interval, DefaultJitterOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 6), m)

	m, err = Jitter(glucose.Series{100, 105, 100, nan, 100, 105}, interval, DefaultJitterOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 6), m)
}

func (suite *DetectorsTestSuite) TestJitterZeroDifferences() {
	m, err := Jitter(glucose.Series{100, 100, 100, 105, 105, 105}, interval, DefaultJitterOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 6), m)

	opts := JitterOptions{Window: 15 * time.Minute, MinReversals: 1}
	m, err = Jitter(glucose.Series{100, 110, 100, 100}, interval, opts)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), glucose.Mask{true, true, true, false}, m)
}

func (suite *DetectorsTestSuite) TestSustainedLow() {
	m, err := Drift(repeat(50, 97), interval, DefaultDriftOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(97, [2]int{0, 97}), m)

	m, err = Drift(repeat(50, 96), interval, DefaultDriftOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 96), m)

	s := append(repeat(120, 3), repeat(50, 97)...)
	s = append(s, 120, 120)
	m, err = Drift(s, interval, DefaultDriftOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(102, [2]int{3, 100}), m)
}

func (suite *DetectorsTestSuite) TestMonotonicDrift() {
	opts := DefaultDriftOptions()
	opts.Duration = time.Hour

	s := make(glucose.Series, 0, 16)
	for i := 0; i < 12; i++ {
		s = append(s, 100+float64(i))
	}
	s = append(s, 105, 110, 105, 110)

	m, err := Drift(s, interval, opts)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(16, [2]int{0, 12}), m)

	m, err = Drift(repeat(100, 12), interval, opts)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(12, [2]int{0, 12}), m, "flat readings are monotonic")

	s[5] = nan
	m, err = Drift(s[:12], interval, opts)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 12), m)
}

func (suite *DetectorsTestSuite) TestMonotonicDriftMatchesRescan() {
	opts := DriftOptions{Duration: 20 * time.Minute, LowThreshold: 0, LowDuration: time.Hour}
	s := glucose.Series{100, 101, 101, 102, 103, 99, 98, 98, 97, nan, 96, 95, 94, 93, 95, 96, 96, 97}
	k := samples(opts.Duration, interval, 2)

	want := make(glucose.Mask, len(s))
	for i := k - 1; i < len(s); i++ {
		w := s[i-k+1 : i+1]
		if !allFinite(w) {
			continue
		}
		up, down := true, true
		for j := 1; j < len(w); j++ {
			up = up && w[j]-w[j-1] >= 0
			down = down && w[j]-w[j-1] <= 0
		}
		if up || down {
			fill(want, i-k+1, i+1)
		}
	}

	m, err := Drift(s, interval, opts)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), want, m)
}

func (suite *DetectorsTestSuite) TestFlatline() {
	m, err := Flatline(repeat(100, 6), interval, DefaultFlatlineOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(6, [2]int{0, 6}), m)

	m, err = Flatline(repeat(100, 5), interval, DefaultFlatlineOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 5), m)

	s := append(repeat(100, 5), 100.5, 100.5)
	m, err = Flatline(s, interval, DefaultFlatlineOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 7), m, "no tolerance on equality")
}

func (suite *DetectorsTestSuite) TestDropout() {
	m, err := Flatline(glucose.Series{100, 101, nan, 103}, interval, DefaultFlatlineOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), glucose.Mask{false, false, true, false}, m)

	m, err = Flatline(glucose.Series{100, 100, 100, nan, 100, 100, 100}, interval, DefaultFlatlineOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(7, [2]int{3, 4}), m, "missing readings break a flatline")
}

func (suite *DetectorsTestSuite) TestLongGap() {
	s := repeat(100, 30)
	blank := func(s glucose.Series, start, end int) {
		for i := start; i < end; i++ {
			s[i] = nan
		}
	}
	blank(s, 15, 25)

	m, err := LongGap(s, interval, DefaultGapOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(30, [2]int{3, 25}), m)

	s = repeat(100, 30)
	blank(s, 5, 15)
	m, err = LongGap(s, interval, DefaultGapOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(30, [2]int{0, 15}), m, "lead-in is clipped at the start")

	s = repeat(100, 30)
	blank(s, 15, 20)
	m, err = LongGap(s, interval, DefaultGapOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), make(glucose.Mask, 30), m, "five missing readings is not a long gap")

	s = repeat(100, 30)
	blank(s, 24, 30)
	m, err = LongGap(s, interval, DefaultGapOptions())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), flags(30, [2]int{12, 30}), m, "gap at the end of the series")
}

func (suite *DetectorsTestSuite) TestInvalidInterval() {
	_, err := Spike(glucose.Series{100}, 0, DefaultSpikeOptions())
	assert.ErrorIs(suite.T(), err, ErrInterval)

	_, err = Variance(glucose.Series{100}, -time.Minute, DefaultVarianceOptions())
	assert.ErrorIs(suite.T(), err, ErrInterval)

	_, err = LongGap(glucose.Series{100}, interval, GapOptions{MinGap: time.Minute, LeadIn: -time.Hour})
	assert.ErrorIs(suite.T(), err, ErrDuration)
}
