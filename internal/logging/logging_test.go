package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	t.Parallel()

	quiet, err := New(false)
	require.NoError(t, err)
	assert.False(t, quiet.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, quiet.Core().Enabled(zapcore.WarnLevel))

	verbose, err := New(true)
	require.NoError(t, err)
	assert.True(t, verbose.Core().Enabled(zapcore.DebugLevel))
}

func TestAdapter(t *testing.T) {
	t.Parallel()

	core, observed := observer.New(zapcore.DebugLevel)
	adapter := NewAdapter(zap.New(core))

	adapter.Debug("HTTP Request", map[string]interface{}{"method": "GET", "bytes": 0})
	adapter.Info("info", nil)
	adapter.Warn("warn", map[string]interface{}{"err": errors.New("boom")})
	adapter.Error("error", map[string]interface{}{"headers": map[string]string{"Accept": "application/json"}})

	entries := observed.All()
	require.Len(t, entries, 4)

	assert.Equal(t, "HTTP Request", entries[0].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "GET", entries[0].ContextMap()["method"])
	assert.EqualValues(t, 0, entries[0].ContextMap()["bytes"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["err"])

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestNewAdapter_Nil(t *testing.T) {
	t.Parallel()

	adapter := NewAdapter(nil)
	assert.NotPanics(t, func() {
		adapter.Info("discarded", map[string]interface{}{"k": "v"})
	})
	assert.NotNil(t, adapter.Zap())
}
