package hinst

import (
	"fmt"

	"github.com/angelo-monroy/hidden-instability/hinst/defs"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/http"
	"go.uber.org/zap"
)

type Server struct {
	Analyzer *Analyzer
	HTTP     *http.HttpServer

	Logger  *zap.Logger
	address string
}

func New(config defs.Config) (*Server, error) {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Glucose.Low > config.Glucose.High {
		return nil, fmt.Errorf("glucose range is empty: low %.1f > high %.1f", config.Glucose.Low, config.Glucose.High)
	}

	config.Logger.Debug("starting server",
		zap.Duration("interval", config.Detectors.Interval),
		zap.Float64("low", config.Glucose.Low),
		zap.Float64("high", config.Glucose.High),
	)

	an := NewAnalyzer(config)
	return &Server{
		Analyzer: an,
		HTTP:     http.New(an, config.Logger),
		Logger:   config.Logger,
		address:  config.HTTP.Address,
	}, nil
}

func (s *Server) Run() error {
	return s.HTTP.Run(s.address)
}
