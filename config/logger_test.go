package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerConsole(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger, err := NewLogger("debug", "console")
	require.NoError(t, err)
	assert.Same(t, logger, zap.L())
}

func TestNewLoggerJSON(t *testing.T) {
	t.Cleanup(func() { zap.ReplaceGlobals(zap.NewNop()) })

	logger, err := NewLogger("info", "json")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}

func TestNewLoggerInvalidLevel(t *testing.T) {
	_, err := NewLogger("loud", "json")
	assert.Error(t, err)
}
