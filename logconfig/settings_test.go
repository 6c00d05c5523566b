package logconfig

import (
	"testing"

	myLogger "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestConfigFromLevel(t *testing.T) {
	defer ConfigInfoLogger()

	assert.NoError(t, ConfigFromLevel("debug"))
	assert.Equal(t, myLogger.DebugLevel, myLogger.GetLevel())

	assert.NoError(t, ConfigFromLevel("production"))
	assert.Equal(t, myLogger.InfoLevel, myLogger.GetLevel())
	assert.IsType(t, &myLogger.JSONFormatter{}, myLogger.StandardLogger().Formatter)

	assert.NoError(t, ConfigFromLevel("warn"))
	assert.Equal(t, myLogger.WarnLevel, myLogger.GetLevel())

	assert.NoError(t, ConfigFromLevel(""))
	assert.Equal(t, myLogger.InfoLevel, myLogger.GetLevel())

	assert.Error(t, ConfigFromLevel("loud"))
}
