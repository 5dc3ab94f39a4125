package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	Init("warn", "text")
	var buf bytes.Buffer
	SetOutput(&buf)

	Info("hidden %d", 1)
	Debug("hidden %d", 2)
	Warn("shown %d", 3)
	Error("shown %d", 4)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 3")
	assert.Contains(t, out, "shown 4")
}

func TestJSONFields(t *testing.T) {
	Init("debug", "json")
	var buf bytes.Buffer
	SetOutput(&buf)

	WithFields(Fields{"message_index": 7}).Warn("rejected record")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "rejected record", entry["msg"])
	assert.Equal(t, "warning", entry["level"])
	assert.Equal(t, float64(7), entry["message_index"])
}
