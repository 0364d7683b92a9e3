package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	prod, err := New("production", "")
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))

	dev, err := New("development", "")
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	quiet, err := New("production", "warn")
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))

	_, err = New("production", "loud")
	assert.ErrorContains(t, err, "log level")
}

func TestInitInstallsGlobal(t *testing.T) {
	set(nil)
	Sync()

	logger, err := Init("development", "warn")
	require.NoError(t, err)
	defer set(nil)
	mu.RLock()
	assert.Same(t, logger, global)
	mu.RUnlock()
	Sync()

	_, err = Init("production", "loud")
	assert.Error(t, err)
}
