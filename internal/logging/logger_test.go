package logging_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"chatrelay/backend/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, logging.ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, logging.ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, logging.ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, logging.ParseLevel("verbose"))
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.NewWithWriter(logging.Config{Level: "info", Format: "json"}, &buf)

	log.Debug("hidden")
	log.Info("client registered", "conn_id", "abc")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "client registered", record["msg"])
	assert.Equal(t, "abc", record["conn_id"])
}
