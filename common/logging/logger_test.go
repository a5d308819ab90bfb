package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/t2bot/media-converter/common/config"
)

func resetLogger(t *testing.T) {
	std := logrus.StandardLogger()
	level, formatter, out := std.GetLevel(), std.Formatter, std.Out
	t.Cleanup(func() {
		std.ReplaceHooks(make(logrus.LevelHooks))
		logrus.SetLevel(level)
		logrus.SetFormatter(formatter)
		logrus.SetOutput(out)
	})
}

func decodeLines(t *testing.T, b []byte) []map[string]interface{} {
	lines := make([]map[string]interface{}, 0)
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		line := make(map[string]interface{})
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line), scanner.Text())
		lines = append(lines, line)
	}
	return lines
}

func TestPoolLoggerWritesDebugLines(t *testing.T) {
	resetLogger(t)
	buf := &bytes.Buffer{}
	require.NoError(t, Setup(Options{Directory: "-", Json: true, Level: "debug", Output: buf}))

	(&PoolLogger{Queue: "conversions"}).Printf("worker %d exited", 3)

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Equal(t, "conversions", lines[0]["queue"])
	assert.Equal(t, "worker 3 exited", lines[0]["msg"])
	assert.True(t, strings.HasSuffix(lines[0]["time"].(string), " Z"), "timestamps are UTC")
}

func TestPoolLoggerQuietAtInfo(t *testing.T) {
	resetLogger(t)
	buf := &bytes.Buffer{}
	require.NoError(t, Setup(Options{Json: true, Output: buf}))

	(&PoolLogger{Queue: "conversions"}).Printf("worker exited")
	assert.Empty(t, buf.String())
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	resetLogger(t)
	assert.Error(t, Setup(Options{Level: "chatty", Output: &bytes.Buffer{}}))
}

func TestSetupWritesJsonFiles(t *testing.T) {
	resetLogger(t)
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Setup(Options{Directory: dir, Colors: true, Output: &bytes.Buffer{}}))

	logrus.WithField("batchId", "b1").Info("batch finished")

	b, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	lines := decodeLines(t, b)
	require.Len(t, lines, 1)
	assert.Equal(t, "b1", lines[0]["batchId"])
	assert.Equal(t, "batch finished", lines[0]["msg"])
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.GeneralConfig{LogDirectory: "logs", JsonLogs: true, LogLevel: "warn"})
	assert.Equal(t, "logs", opts.Directory)
	assert.True(t, opts.Json)
	assert.False(t, opts.Colors)
	assert.Equal(t, "warn", opts.Level)
	assert.Nil(t, opts.Output)
}
