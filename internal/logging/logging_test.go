package logging_test

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"gstfiling/internal/config"
	"gstfiling/internal/logging"
)

func TestNew_LevelAndFormat(t *testing.T) {
	l := logging.New(config.LogConfig{Level: "debug", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.JSONFormatter)
	assert.True(t, ok)
}

func TestNew_BadLevelFallsBackToInfo(t *testing.T) {
	l := logging.New(config.LogConfig{Level: "loud", Format: "console"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestLogError_Fields(t *testing.T) {
	logger, hook := test.NewNullLogger()

	logging.LogError(logger, "importer", "Run", map[string]string{"company": "A"}, errors.New("boom"))

	entry := hook.LastEntry()
	if assert.NotNil(t, entry) {
		assert.Equal(t, logrus.ErrorLevel, entry.Level)
		assert.Equal(t, "boom", entry.Message)
		assert.Equal(t, "importer", entry.Data["module"])
		assert.Equal(t, "Run", entry.Data["funcName"])
	}
}
