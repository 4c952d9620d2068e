package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/angelo-monroy/hidden-instability/hinst/defs"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/glucose"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/instability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	requestTimeout = 2 * time.Second
	maxBodyBytes   = 4 << 20
)

type analyzer interface {
	Mask(ctx context.Context, s glucose.Series) (glucose.Mask, error)
	Detect(ctx context.Context, s glucose.Series) (instability.Detections, error)
	Analyze(ctx context.Context, s glucose.Series, deviceID string) (*defs.Report, error)
}

type HttpServer struct {
	Analyzer analyzer
	Logger   *zap.Logger
	Router   *gin.Engine

	metrics *serverMetrics
}

// SeriesRequest is the body accepted by every analysis route.
type SeriesRequest struct {
	Series   glucose.Series `json:"series" binding:"required"`
	DeviceID string         `json:"deviceId,omitempty"`
}

type MaskResponse struct {
	Mask    glucose.Mask `json:"mask"`
	Flagged int          `json:"flagged"`
}

type DetectionsResponse struct {
	Variance glucose.Mask `json:"variance"`
	Spike    glucose.Mask `json:"spike"`
	Jitter   glucose.Mask `json:"jitter"`
	Drift    glucose.Mask `json:"drift"`
	Flatline glucose.Mask `json:"flatline"`
	Gap      glucose.Mask `json:"gap"`
	Combined glucose.Mask `json:"combined"`
}

// Float is a metric that encodes NaN as null.
type Float struct {
	Value *float64
}

func newFloat(v float64) Float {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Float{}
	}
	return Float{Value: &v}
}

func (f Float) MarshalJSON() ([]byte, error) {
	if f.Value == nil {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, *f.Value, 'g', -1, 64), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	s, err := glucose.ParseSeries(append(append([]byte("["), b...), ']'))
	if err != nil {
		return err
	}
	if len(s) != 1 {
		return glucose.ErrShape
	}
	*f = newFloat(s[0])
	return nil
}

// Float64 returns the value, or NaN when it is undefined.
func (f Float) Float64() float64 {
	if f.Value == nil {
		return math.NaN()
	}
	return *f.Value
}

type MetricsResponse struct {
	TIR    Float `json:"tir"`
	TBR    Float `json:"tbr"`
	TAR    Float `json:"tar"`
	GMI    Float `json:"gmi"`
	Mean   Float `json:"mean"`
	SD     Float `json:"sd"`
	CV     Float `json:"cv"`
	Median Float `json:"median"`
	Min    Float `json:"min"`
	Max    Float `json:"max"`
}

type ReportResponse struct {
	Mask            glucose.Mask    `json:"mask"`
	Detections      defs.Detections `json:"detections"`
	Flagged         int             `json:"flagged"`
	FlaggedFraction Float           `json:"flaggedFraction"`
	Unmasked        MetricsResponse `json:"unmasked"`
	Masked          MetricsResponse `json:"masked"`
	SessionDays     *float64        `json:"sessionDays"`
}

func New(an analyzer, logger *zap.Logger) *HttpServer {
	return NewWithRegistry(an, logger, prometheus.NewRegistry())
}

func NewWithRegistry(an analyzer, logger *zap.Logger, reg *prometheus.Registry) *HttpServer {
	gin.SetMode(gin.ReleaseMode)
	hs := &HttpServer{
		Analyzer: an,
		Logger:   logger,
		Router:   gin.New(),
		metrics:  newServerMetrics(reg),
	}
	hs.routes(reg)
	return hs
}

func (s *HttpServer) Run(addr string) error {
	s.Logger.Info("serving http", zap.String("address", addr))
	return s.Router.Run(addr)
}

func (s *HttpServer) routes(reg *prometheus.Registry) {
	r := s.Router
	r.Use(gin.Recovery(), s.metrics.middleware)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	v1 := r.Group("/v1")
	v1.POST("/mask", s.handleMask)
	v1.POST("/detections", s.handleDetections)
	v1.POST("/report", s.handleReport)
}

func (s *HttpServer) bind(c *gin.Context) (*SeriesRequest, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	var req SeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.Logger.Debug("rejecting request", zap.String("route", c.FullPath()), zap.Error(err))
		c.String(http.StatusBadRequest, "expected {\"series\": [number|null, ...]}: %v", err)
		return nil, false
	}
	return &req, true
}

func (s *HttpServer) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}
	s.Logger.Debug("analysis failed", zap.String("route", c.FullPath()), zap.Error(err))
	c.String(status, "something went wrong analyzing series: %v", err)
}

func (s *HttpServer) handleMask(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	mask, err := s.Analyzer.Mask(ctx, req.Series)
	if err != nil {
		s.fail(c, err)
		return
	}
	flagged := mask.Count()
	s.metrics.observe(start, len(req.Series), flagged)

	c.JSON(http.StatusOK, MaskResponse{Mask: mask, Flagged: flagged})
}

func (s *HttpServer) handleDetections(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	d, err := s.Analyzer.Detect(ctx, req.Series)
	if err != nil {
		s.fail(c, err)
		return
	}
	combined := d.Combine()
	s.metrics.observe(start, len(req.Series), combined.Count())

	c.JSON(http.StatusOK, DetectionsResponse{
		Variance: d.Variance,
		Spike:    d.Spike,
		Jitter:   d.Jitter,
		Drift:    d.Drift,
		Flatline: d.Flatline,
		Gap:      d.Gap,
		Combined: combined,
	})
}

func (s *HttpServer) handleReport(c *gin.Context) {
	req, ok := s.bind(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), requestTimeout)
	defer cancel()

	start := time.Now()
	report, err := s.Analyzer.Analyze(ctx, req.Series, req.DeviceID)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.metrics.observe(start, len(req.Series), report.Flagged)

	c.JSON(http.StatusOK, ReportResponse{
		Mask:            report.Mask,
		Detections:      report.Detections,
		Flagged:         report.Flagged,
		FlaggedFraction: newFloat(report.FlaggedFraction),
		Unmasked:        toMetricsResponse(report.Unmasked),
		Masked:          toMetricsResponse(report.Masked),
		SessionDays:     report.SessionDays,
	})
}

func toMetricsResponse(m defs.Metrics) MetricsResponse {
	return MetricsResponse{
		TIR:    newFloat(m.Range.InRange),
		TBR:    newFloat(m.Range.BelowRange),
		TAR:    newFloat(m.Range.AboveRange),
		GMI:    newFloat(m.GMI),
		Mean:   newFloat(m.Summary.Average),
		SD:     newFloat(m.Summary.Deviation),
		CV:     newFloat(m.Summary.Variation),
		Median: newFloat(m.Summary.Median),
		Min:    newFloat(m.Summary.Min),
		Max:    newFloat(m.Summary.Max),
	}
}
