package logging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"heapstore/pkg/primitives"
)

func TestInit_FileOutput(t *testing.T) {
	require.NoError(t, Close())
	t.Cleanup(func() { _ = Close() })

	path := filepath.Join(t.TempDir(), "logs", "heapstore.log")
	require.NoError(t, Init(Config{Level: LevelDebug, OutputPath: path, Format: "json"}))
	assert.Error(t, Init(Config{}), "second Init must fail")

	pid := primitives.NewPageID(3, 9)
	WithLock(primitives.NewTransactionID(), pid).Warn("lock wait timed out", zap.String("mode", "EXCLUSIVE"))
	WithError(errors.New("boom")).Error("flush failed")
	Debug("debug line")

	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `"msg":"lock wait timed out"`)
	assert.Contains(t, out, `"page_no":9`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, "debug line")
}

func TestInit_LevelFilters(t *testing.T) {
	require.NoError(t, Close())
	t.Cleanup(func() { _ = Close() })

	path := filepath.Join(t.TempDir(), "warn.log")
	require.NoError(t, Init(Config{Level: LevelWarn, OutputPath: path, Format: "json"}))

	Info("hidden")
	Warn("shown")
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestGetLogger_LazyDefault(t *testing.T) {
	require.NoError(t, Close())
	t.Cleanup(func() { _ = Close() })

	assert.NotNil(t, GetLogger())
	assert.NoError(t, Close())
	assert.NoError(t, Close(), "close is idempotent")
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("debug")
	require.NoError(t, err)
	assert.Equal(t, LevelDebug, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
