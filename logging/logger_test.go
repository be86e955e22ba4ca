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

func newBufferedLogger(level LogLevel) (*BusLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: level, Format: "json", Output: &buf})
	return l, &buf
}

func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.NotEmpty(t, lines)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &entry))
	return entry
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	assert.Zero(t, buf.Len())

	l.Warn("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestWithComponentAndContext(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	l.WithComponent("bus").WithContext("sender", "cli").Info("hello %s", "world")

	entry := lastEntry(t, buf)
	assert.Equal(t, "hello world", entry["msg"])
	assert.Equal(t, "bus", entry["component"])
	assert.Equal(t, "cli", entry["sender"])
}

func TestWithCorrelationDoesNotMutateParent(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelInfo)

	child := l.WithCorrelation("abc-123")
	child.Info("correlated")
	entry := lastEntry(t, buf)
	assert.Equal(t, "abc-123", entry["correlation_id"])

	buf.Reset()
	l.Info("plain")
	entry = lastEntry(t, buf)
	_, ok := entry["correlation_id"]
	assert.False(t, ok, "parent logger stays uncorrelated")
}

func TestLogDispatch(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelDebug)

	l.LogDispatch("echo", "process", 5*time.Millisecond, nil)
	entry := lastEntry(t, buf)
	assert.Equal(t, "message dispatched", entry["msg"])
	assert.Equal(t, "echo", entry["receiver"])
	assert.Equal(t, "process", entry["message_type"])

	buf.Reset()
	l.LogDispatch("missing", "process", 0, errors.New("agent not found"))
	entry = lastEntry(t, buf)
	assert.Equal(t, "message dispatch failed", entry["msg"])
	assert.Equal(t, "agent not found", entry["error"])
}

func TestLogAgentCall(t *testing.T) {
	l, buf := newBufferedLogger(LogLevelDebug)

	l.LogAgentCall("text", 2*time.Millisecond, true, nil)
	entry := lastEntry(t, buf)
	assert.Equal(t, "agent call completed", entry["msg"])
	assert.Equal(t, "text", entry["agent"])
	assert.Equal(t, true, entry["success"])

	buf.Reset()
	l.LogAgentCall("text", 0, false, errors.New("boom"))
	entry = lastEntry(t, buf)
	assert.Equal(t, "agent call failed", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
}
