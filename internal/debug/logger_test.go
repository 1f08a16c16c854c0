package debug

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_QuietByDefault(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Output: &buf})
	defer Init(Options{})

	Debug("hidden")
	Info("hidden too")
	Warn("shown", "dimension", "year")

	assert.False(t, Enabled())
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "dimension=year")
}

func TestInit_VerboseJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{Verbose: true, Format: "JSON", Output: &buf})
	defer Init(Options{})

	With("request_id", "abc").Debug("query executed", "rows", 3)

	assert.True(t, Enabled())

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "query executed", entry["msg"])
	assert.Equal(t, "abc", entry["request_id"])
	assert.Equal(t, 3.0, entry["rows"])
}
