package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/asteroid-belt/relcore/pkg/config"
)

func TestNewNilConfigIsNoop(t *testing.T) {
	logger, cleanup, err := New(nil)
	require.NoError(t, err)
	defer cleanup()

	logger.Info("dropped")
}

func TestNewWritesToFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "relcore.log")
	cfg := &config.LoggingConfig{
		Version: config.LoggingVersion,
		Outputs: map[string]config.OutputConfig{
			"logfile": {Type: config.OutputFile, Path: path},
		},
		Emitters: map[string]config.EmitterConfig{
			"all": {OutputName: "logfile", Level: config.LevelInfo},
		},
	}

	logger, cleanup, err := New(cfg)
	require.NoError(t, err)

	logger.Info("release assembled", zap.String("collection", "community.general"))
	require.NoError(t, logger.Sync())
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "release assembled")
	assert.Contains(t, string(data), "community.general")
}

func TestNewLevelGatesMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relcore.log")
	cfg := &config.LoggingConfig{
		Version: config.LoggingVersion,
		Outputs: map[string]config.OutputConfig{
			"logfile": {Type: config.OutputFile, Path: path},
		},
		Emitters: map[string]config.EmitterConfig{
			"problems": {OutputName: "logfile", Level: config.LevelWarning},
		},
	}

	logger, cleanup, err := New(cfg)
	require.NoError(t, err)

	logger.Info("below threshold")
	logger.Warn("at threshold")
	require.NoError(t, logger.Sync())
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "below threshold")
	assert.Contains(t, string(data), "at threshold")
}

func TestNewDisabledEmitterIsSkipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relcore.log")
	cfg := &config.LoggingConfig{
		Version: config.LoggingVersion,
		Outputs: map[string]config.OutputConfig{
			"logfile": {Type: config.OutputFile, Path: path},
		},
		Emitters: map[string]config.EmitterConfig{
			"all": {OutputName: "logfile", Level: config.LevelDisabled},
		},
	}

	logger, cleanup, err := New(cfg)
	require.NoError(t, err)
	defer cleanup()

	logger.Error("never written")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestZapLevelMapping(t *testing.T) {
	assert.Equal(t, zapcore.FatalLevel, zapLevel(config.LevelCritical))
	assert.Equal(t, zapcore.ErrorLevel, zapLevel(config.LevelError))
	assert.Equal(t, zapcore.WarnLevel, zapLevel(config.LevelWarning))
	assert.Equal(t, zapcore.InfoLevel, zapLevel(config.LevelNotice))
	assert.Equal(t, zapcore.InfoLevel, zapLevel(config.LevelInfo))
	assert.Equal(t, zapcore.DebugLevel, zapLevel(config.LevelDebug))
}
