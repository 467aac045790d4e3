package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level LogLevel) (*MeshLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	cfg.Output = buf
	return NewLogger(cfg), buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		m := map[string]any{}
		require.NoError(t, json.Unmarshal(line, &m))
		out = append(out, m)
	}
	return out
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, LogLevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LogLevelInfo, lvl)

	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestMeshLogger_LevelFilteringAndAttrs(t *testing.T) {
	l, buf := newBufferLogger(LogLevelWarn)
	l = l.WithComponent("router").WithRun("run-1").WithContext("tenant", "acme")

	l.Info("dropped")
	l.Warn("kept", "recipient", "ghost")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])
	assert.Equal(t, "router", lines[0]["component"])
	assert.Equal(t, "run-1", lines[0]["run_id"])
	assert.Equal(t, "acme", lines[0]["tenant"])
	assert.Equal(t, "ghost", lines[0]["recipient"])
}

func TestMeshLogger_WithDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	_ = l.WithContext("k", "v")
	l.Info("plain")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	_, ok := lines[0]["k"]
	assert.False(t, ok)
}

func TestMeshLogger_LogExternalCall(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	l.LogExternalCall("rag", "research", 10*time.Millisecond, nil)
	l.LogExternalCall("insight", "tags", time.Millisecond, errors.New("boom"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "External call completed", lines[0]["msg"])
	assert.Equal(t, true, lines[0]["success"])
	assert.Equal(t, "External call failed", lines[1]["msg"])
	assert.Equal(t, "boom", lines[1]["error"])
}

func TestOrNoOp(t *testing.T) {
	assert.IsType(t, NoOpLogger{}, OrNoOp(nil))
	l, _ := newBufferLogger(LogLevelInfo)
	assert.Equal(t, Logger(l), OrNoOp(l))
}

type recordingLogger struct {
	entries [][]any
}

func (r *recordingLogger) record(msg string, args []any) {
	r.entries = append(r.entries, append([]any{msg}, args...))
}

func (r *recordingLogger) Debug(msg string, args ...any) { r.record(msg, args) }
func (r *recordingLogger) Info(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.record(msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.record(msg, args) }

func TestForRun(t *testing.T) {
	t.Run("mesh logger", func(t *testing.T) {
		l, buf := newBufferLogger(LogLevelInfo)
		ForRun(l, "run-7").Info("hello", "k", "v")

		lines := decodeLines(t, buf)
		require.Len(t, lines, 1)
		assert.Equal(t, "run-7", lines[0]["run_id"])
		assert.Equal(t, "v", lines[0]["k"])
	})

	t.Run("foreign logger", func(t *testing.T) {
		rec := &recordingLogger{}
		ForRun(rec, "run-7").Warn("hello", "k", "v")
		assert.Equal(t, [][]any{{"hello", "run_id", "run-7", "k", "v"}}, rec.entries)
	})

	t.Run("nil and noop", func(t *testing.T) {
		assert.Equal(t, Logger(NoOpLogger{}), ForRun(nil, "run-7"))
		assert.Equal(t, Logger(NoOpLogger{}), ForRun(NoOpLogger{}, "run-7"))
	})
}

func TestLogRoute(t *testing.T) {
	l, buf := newBufferLogger(LogLevelDebug)
	LogRoute(l, "planner", "researcher", "task", true)
	LogRoute(l, "planner", "ghost", "task", false)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Message routed", lines[0]["msg"])
	assert.Equal(t, "DEBUG", lines[0]["level"])
	assert.Equal(t, "researcher", lines[0]["recipient"])
	assert.Equal(t, true, lines[0]["delivered"])
	assert.Equal(t, false, lines[1]["delivered"])
}

func TestLogWorkflow(t *testing.T) {
	l, buf := newBufferLogger(LogLevelInfo)
	LogWorkflow(l, 12, time.Second, nil)
	LogWorkflow(l, 101, time.Second, errors.New("delivery limit exceeded"))

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "Workflow completed", lines[0]["msg"])
	assert.Equal(t, float64(12), lines[0]["deliveries"])
	assert.Equal(t, true, lines[0]["success"])
	assert.Equal(t, "Workflow failed", lines[1]["msg"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "delivery limit exceeded", lines[1]["error"])
}
