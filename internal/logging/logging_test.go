package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNewPicksFormatterByEnv(t *testing.T) {
	dev := New("referral-bot", "development", "")
	assert.IsType(t, &logrus.TextFormatter{}, dev.Formatter)
	assert.Equal(t, logrus.DebugLevel, dev.GetLevel())

	prod := New("referral-bot", "production", "")
	assert.IsType(t, &logrus.JSONFormatter{}, prod.Formatter)
	assert.Equal(t, logrus.InfoLevel, prod.GetLevel())
}

func TestNewHonoursExplicitLevel(t *testing.T) {
	assert.Equal(t, logrus.WarnLevel, New("referral-bot", "production", "warn").GetLevel())
	assert.Equal(t, logrus.InfoLevel, New("referral-bot", "production", "loud").GetLevel())
}
