package defs

import (
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/instability"
	"github.com/angelo-monroy/hidden-instability/hinst/pkg/stats"
	"go.uber.org/zap"
)

const DefaultAddress = ":4242"

type Config struct {
	Glucose   GlucoseConfig      `yaml:"glucose"`
	Detectors instability.Params `yaml:"detectors"`
	HTTP      HTTPConfig         `yaml:"http"`
	Logger    *zap.Logger        `yaml:"-"`
}

// GlucoseConfig is the target range in mg/dL.
type GlucoseConfig struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

// DefaultConfig is the starting point a config file is unmarshalled over.
func DefaultConfig() Config {
	return Config{
		Glucose:   GlucoseConfig{Low: stats.DefaultLow, High: stats.DefaultHigh},
		Detectors: instability.DefaultParams(),
		HTTP:      HTTPConfig{Address: DefaultAddress},
	}
}
