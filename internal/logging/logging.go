// Package logging builds the process logger from LogConfig.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"gstfiling/internal/config"
)

// New returns a logrus logger configured for the given level and format.
// Format "json" emits one JSON object per line; anything else uses the text
// formatter.
func New(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// LogError logs err with the component and operation it came from.
func LogError(logger logrus.FieldLogger, module, funcName string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
