package hinst

import (
	"context"
	"fmt"
	"math"

	"github.com/angelo-monroy/hidden-instability/hinst/defs"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/instability"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/session"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/stats"
	"go.uber.org/zap"
)

type Analyzer struct {
	Logger        *zap.Logger
	GlucoseConfig defs.GlucoseConfig
	Params        instability.Params
}

func NewAnalyzer(config defs.Config) *Analyzer {
	return &Analyzer{
		Logger:        config.Logger,
		GlucoseConfig: config.Glucose,
		Params:        config.Detectors,
	}
}

func (an *Analyzer) Detect(ctx context.Context, s glucose.Series) (instability.Detections, error) {
	d, err := instability.Detect(ctx, s, an.Params)
	if err != nil {
		return instability.Detections{}, fmt.Errorf("unable to run detectors: %w", err)
	}
	return d, nil
}

func (an *Analyzer) Mask(ctx context.Context, s glucose.Series) (glucose.Mask, error) {
	d, err := an.Detect(ctx, s)
	if err != nil {
		return nil, err
	}
	return d.Combine(), nil
}

// Analyze builds the instability mask for s and computes metrics both over
// every reading and with the flagged readings excluded.
func (an *Analyzer) Analyze(ctx context.Context, s glucose.Series, deviceID string) (*defs.Report, error) {
	d, err := an.Detect(ctx, s)
	if err != nil {
		return nil, err
	}
	mask := d.Combine()

	unmasked, err := an.metrics(s, nil)
	if err != nil {
		return nil, err
	}
	masked, err := an.metrics(s, mask)
	if err != nil {
		return nil, err
	}

	flagged := mask.Count()
	report := &defs.Report{
		Mask: mask,
		Detections: defs.Detections{
			Variance: d.Variance.Count(),
			Spike:    d.Spike.Count(),
			Jitter:   d.Jitter.Count(),
			Drift:    d.Drift.Count(),
			Flatline: d.Flatline.Count(),
			Gap:      d.Gap.Count(),
		},
		Flagged:         flagged,
		FlaggedFraction: math.NaN(),
		Unmasked:        unmasked,
		Masked:          masked,
	}
	if len(s) > 0 {
		report.FlaggedFraction = float64(flagged) / float64(len(s))
	}
	if days, ok := session.MaxSessionDays(deviceID); ok {
		report.SessionDays = &days
	}

	an.Logger.Debug("analyzed series",
		zap.Int("readings", len(s)),
		zap.Int("flagged", flagged),
		zap.Any("detections", report.Detections),
		zap.String("device", deviceID),
	)

	return report, nil
}

func (an *Analyzer) metrics(s glucose.Series, mask glucose.Mask) (defs.Metrics, error) {
	ra, err := stats.TimeSpentInRange(s, mask, an.GlucoseConfig.Low, an.GlucoseConfig.High)
	if err != nil {
		return defs.Metrics{}, err
	}
	gmi, err := stats.GMI(s, mask)
	if err != nil {
		return defs.Metrics{}, err
	}
	summary, err := stats.GlucoseSummary(s, mask)
	if err != nil {
		return defs.Metrics{}, err
	}
	return defs.Metrics{Range: ra, GMI: gmi, Summary: summary}, nil
}
