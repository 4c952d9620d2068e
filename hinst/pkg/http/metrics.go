package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type serverMetrics struct {
	requests *prometheus.CounterVec
	duration prometheus.Histogram
	readings *prometheus.CounterVec
}

func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	m := &serverMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hinst",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hinst",
			Name:      "analysis_duration_seconds",
			Help:      "Time spent running the detectors on one series.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		readings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hinst",
			Name:      "readings_total",
			Help:      "Readings analyzed, split by whether they were flagged unstable.",
		}, []string{"flagged"}),
	}
	reg.MustRegister(m.requests, m.duration, m.readings)
	return m
}

func (m *serverMetrics) middleware(c *gin.Context) {
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
}

func (m *serverMetrics) observe(start time.Time, total, flagged int) {
	m.duration.Observe(time.Since(start).Seconds())
	m.readings.WithLabelValues("true").Add(float64(flagged))
	m.readings.WithLabelValues("false").Add(float64(total - flagged))
}
