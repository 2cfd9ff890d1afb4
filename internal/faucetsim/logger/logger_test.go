package logger

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit_WritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faucetsim.log")
	_, err := Init(Config{Path: path, Level: "debug"})
	require.NoError(t, err)
	t.Cleanup(func() { Replace(zap.NewNop()) })

	Named("ledger").Debugw("tx mined", "block", 1)
	Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := strings.TrimSpace(string(raw))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "ledger", entry["logger"])
	assert.Equal(t, "tx mined", entry["msg"])
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, float64(1), entry["block"])
}

func TestInit_LevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warn.log")
	_, err := Init(Config{Path: path, Level: "warn"})
	require.NoError(t, err)
	t.Cleanup(func() { Replace(zap.NewNop()) })

	Sugar().Info("hidden")
	Sugar().Warn("shown")
	Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hidden")
	assert.Contains(t, string(raw), "shown")
}

func TestInit_BadConfig(t *testing.T) {
	_, err := Init(Config{Level: "loud"})
	assert.Error(t, err)
	_, err = Init(Config{Format: "xml"})
	assert.Error(t, err)
}

func TestReplace_Observer(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(zap.NewNop()) })

	Named("harness").Infow("step passed", "step", "deploy")
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "harness", entry.LoggerName)
	assert.Equal(t, "deploy", entry.ContextMap()["step"])
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)

	level, err = ParseLevel(" DEBUG ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.DebugLevel, level)
}

func TestReplace_RedirectsStdLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	Replace(zap.New(core))
	t.Cleanup(func() { Replace(zap.NewNop()) })

	log.Print("replayed wal")

	entries := logs.FilterMessage("replayed wal").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
}
