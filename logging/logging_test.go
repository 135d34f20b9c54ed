package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestFilePluginWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scraper.log")

	plugin, closer := NewFilePlugin(path, zapcore.InfoLevel)
	logger := NewLogger([]Plugin{plugin})
	logger.Info("page skipped", zap.Int("page", 3), zap.String("kind", "not_found"))
	logger.Debug("filtered out")
	require.NoError(t, logger.Sync())
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "INFO", entry["level"])
	require.Equal(t, "page skipped", entry["msg"])
	require.Equal(t, float64(3), entry["page"])
	require.Equal(t, "not_found", entry["kind"])
}

func TestNewWithoutLogFile(t *testing.T) {
	logger, closer := New(true, "")
	require.NotNil(t, logger)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	require.NoError(t, closer.Close())
}
