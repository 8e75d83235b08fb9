package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func fileOnly(t *testing.T, level string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cad.log")
	require.NoError(t, InitWithFileConfig(level, FileConfig{Path: path, MaxSizeMB: 10, MaxBackups: 1}, false))
	t.Cleanup(Nop)
	return path
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	Sync()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func TestRotationKeepsBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cad.log")
	// 1MB is the smallest size lumberjack rotates at.
	cfg := FileConfig{Path: path, MaxSizeMB: 1, MaxBackups: 2, MaxAgeDays: 1}
	require.NoError(t, InitWithFileConfig("debug", cfg, false))
	t.Cleanup(Nop)

	payload := strings.Repeat("x", 200)
	for i := 0; i < 15000; i++ {
		Sugar.Debugf("surface %d evaluated: %s", i, payload)
	}
	Sync()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var rotated int
	for _, e := range entries {
		if e.Name() != "cad.log" && strings.HasPrefix(e.Name(), "cad-") {
			rotated++
		}
	}
	assert.FileExists(t, path)
	assert.GreaterOrEqual(t, rotated, 1)
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		want  []string
		drop  []string
	}{
		{"error", []string{"ERROR"}, []string{"WARN", "INFO", "DEBUG"}},
		{"warn", []string{"ERROR", "WARN"}, []string{"INFO", "DEBUG"}},
		{"", []string{"WARN", "INFO"}, []string{"DEBUG"}},
		{"debug", []string{"WARN", "INFO", "DEBUG"}, nil},
	}
	for _, tt := range tests {
		t.Run("level "+tt.level, func(t *testing.T) {
			path := fileOnly(t, tt.level)
			Debug("cache miss")
			Info("asset loaded")
			Warn("skipping malformed record")
			Error("pack overflow")

			out := readLog(t, path)
			for _, l := range tt.want {
				assert.Contains(t, out, l)
			}
			for _, l := range tt.drop {
				assert.NotContains(t, out, l)
			}
		})
	}
}

func TestNamedChildren(t *testing.T) {
	Nop()
	early := Named("worker")
	path := fileOnly(t, "info")

	Named("layout").Info("layout pass complete", zap.Int("surfaces", 3))
	early.Info("taken before init")

	out := readLog(t, path)
	assert.Contains(t, out, "layout")
	assert.Contains(t, out, "layout pass complete")
	assert.Contains(t, out, `{"surfaces": 3}`)
	assert.NotContains(t, out, "taken before init", "children keep the logger current when they were named")
}

func TestNopDiscards(t *testing.T) {
	fileOnly(t, "debug")
	Nop()
	assert.False(t, Log.Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, Named("eval").Core().Enabled(zapcore.ErrorLevel))
	assert.False(t, Sugar.Desugar().Core().Enabled(zapcore.ErrorLevel))
}

func TestConsoleWritesStderrOnly(t *testing.T) {
	stdoutR, stdoutW, err := os.Pipe()
	require.NoError(t, err)
	stderrR, stderrW, err := os.Pipe()
	require.NoError(t, err)

	stdout, stderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = stdoutW, stderrW
	err = InitWithFileConfig("info", FileConfig{}, true)
	os.Stdout, os.Stderr = stdout, stderr
	require.NoError(t, err)
	t.Cleanup(Nop)

	Named("cadtool").Info("wrote atlas")
	Sync()
	require.NoError(t, stdoutW.Close())
	require.NoError(t, stderrW.Close())

	got, err := io.ReadAll(stderrR)
	require.NoError(t, err)
	assert.Contains(t, string(got), "wrote atlas")
	assert.Contains(t, string(got), "cadtool")

	got, err = io.ReadAll(stdoutR)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInitUsesDefaultRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cad.log")
	require.NoError(t, Init("warn", path))
	t.Cleanup(Nop)

	Warn("detail clamped")
	assert.Contains(t, readLog(t, path), "detail clamped")

	cfg := DefaultFileConfig(path)
	assert.Equal(t, FileConfig{Path: path, MaxSizeMB: 50, MaxBackups: 3, MaxAgeDays: 7, Compress: true}, cfg)
}
