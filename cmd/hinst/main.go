package main

import (
	"flag"
	"os"

	"github.com/angelo-monroy/hidden-instability/hinst"
	"github.com/angelo-monroy/hidden-instability/hinst/defs"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "f", "config.yaml", "config file")
	flag.Parse()
}

func main() {
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	config := defs.DefaultConfig()

	file, err := os.ReadFile(configFile)
	switch {
	case os.IsNotExist(err):
		logger.Info("config file not found, using defaults", zap.String("file", configFile))
	case err != nil:
		panic(err)
	default:
		if err = yaml.Unmarshal(file, &config); err != nil {
			panic(err)
		}
	}
	config.Logger = logger

	logger.Debug("loaded config", zap.String("file", configFile), zap.Any("config", config))

	s, err := hinst.New(config)
	if err != nil {
		logger.Fatal("unable to create server", zap.Error(err))
	}

	if err := s.Run(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
