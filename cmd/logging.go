package cmd

import (
	"fmt"

	"github.com/oz-union-fe-12-team1/oz-union-be-12-team1-sub000/config"

	"github.com/sirupsen/logrus"
)

func configureLogging(cfg *config.Config) error {
	switch cfg.LogFormat {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", cfg.LogFormat)
	}
	return nil
}
