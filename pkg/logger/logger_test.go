package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInit_WritesRotatedFile(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	path := filepath.Join(t.TempDir(), "weather.log")
	cfg := DefaultConfig()
	cfg.Format = "json"
	cfg.File = path

	logger, err := Init(cfg)
	require.NoError(t, err)

	zap.S().Infow("reading stored", "sensorId", "1")
	require.NoError(t, logger.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"reading stored"`)
	assert.Contains(t, string(data), `"sensorId":"1"`)
}

func TestInit_LevelFilters(t *testing.T) {
	defer zap.ReplaceGlobals(zap.NewNop())

	logger, err := Init(Config{Level: "warn", Format: "console"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))
}

func TestInit_RejectsBadConfig(t *testing.T) {
	_, err := Init(Config{Level: "loud"})
	assert.Error(t, err)

	_, err = Init(Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}
