package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestBuild_JSONLevel(t *testing.T) {
	var buf bytes.Buffer
	l, done := Build(Options{Level: "warn", JSON: true, Out: &buf})
	l.Info("hidden")
	l.Warn("shown", zap.String("area", "hero-images"))
	done()

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	require.Equal(t, "shown", entry["msg"])
	require.Equal(t, "hero-images", entry["area"])
	require.Contains(t, entry, "ts")
}

func TestBuild_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, done := Build(Options{Level: "loud", JSON: true, Out: &buf})
	l.Debug("hidden")
	l.Info("shown")
	done()
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}

func TestBuild_RotateFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	var buf bytes.Buffer
	l, done := Build(Options{Level: "info", JSON: true, Out: &buf, Rotate: FileRotate{Enable: true, Filename: file}})
	l.Info("to file")
	done()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(data), "to file")
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, done := Build(Options{Level: "info", JSON: true, Out: &buf})
	w := ToWriter(l, zapcore.ErrorLevel)
	_, err := w.Write([]byte("gin error\n"))
	require.NoError(t, err)
	done()
	require.Contains(t, buf.String(), `"msg":"gin error"`)
	require.Contains(t, buf.String(), `"level":"error"`)
}
