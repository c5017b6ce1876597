package logging

import (
	"bytes"
	"encoding/json"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitProducesAWorkingJSONLogger(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.log"

	log, err := Init(Config{Level: "debug", Format: "json", Output: path})
	require.NoError(t, err)

	log.Info("hello", "k", "v")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	require.Equal(t, "hello", entry["msg"])
	require.Equal(t, "v", entry["k"])
}

func TestInitTextIsTheDefaultFormat(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.log"

	log, err := Init(Config{Level: "info", Output: path})
	require.NoError(t, err)
	log.Info("plain text")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "msg=\"plain text\"")
}

func TestInitRejectsAnUnwritablePath(t *testing.T) {
	_, err := Init(Config{Output: "/nonexistent-dir/does-not-exist/out.log"})
	require.Error(t, err)
}

func TestSetLevelFiltersRecordsAcrossLoggers(t *testing.T) {
	var buf bytes.Buffer
	SetLevel("warn")
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	log := slog.New(handler)

	log.Info("should be filtered")
	log.Warn("should appear")

	out := buf.String()
	require.NotContains(t, out, "should be filtered")
	require.Contains(t, out, "should appear")

	SetLevel("bogus") // unrecognized levels fall back to info
	buf.Reset()
	log.Info("info is back")
	require.Contains(t, buf.String(), "info is back")
}

func TestContextHelpersInjectSessionAndCellFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	ctx := WithContext(context.Background(), NewLogContext("sess-1").WithCell("A1"))
	InfoCtx(ctx, log, "set applied", "result", "ok")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "sess-1", entry["session_id"])
	require.Equal(t, "A1", entry["cell"])
	require.Equal(t, "ok", entry["result"])
}

func TestContextHelpersToleratePlainContext(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	require.NotPanics(t, func() {
		DebugCtx(context.Background(), log, "no log context set")
	})
	require.NotPanics(t, func() {
		WarnCtx(nil, log, "nil context too") //nolint:staticcheck // exercising FromContext's nil guard
	})

	out := buf.String()
	require.Contains(t, out, "no log context set")
	require.Contains(t, out, "nil context too")
	require.False(t, strings.Contains(out, "session_id"))
}

func TestLogContextWithCellLeavesOriginalUnchanged(t *testing.T) {
	base := NewLogContext("sess-1")
	withCell := base.WithCell("B2")

	require.Equal(t, "", base.Cell)
	require.Equal(t, "B2", withCell.Cell)
	require.Equal(t, "sess-1", withCell.SessionID)
}

func TestWithCellOnNilLogContext(t *testing.T) {
	var lc *LogContext
	withCell := lc.WithCell("C3")
	require.Equal(t, "C3", withCell.Cell)
	require.Equal(t, "", withCell.SessionID)
}

func TestFromContextWithNoLogContextSet(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	require.Nil(t, FromContext(nil)) //nolint:staticcheck
}
