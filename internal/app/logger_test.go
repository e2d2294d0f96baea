package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, &Config{AppEnv: "production", LogFormat: "json"})
	logger.Debug("hidden")
	logger.Info("order placed", "order_id", "ord-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "order placed", entry["msg"])
	assert.Equal(t, "production", entry["env"])
	assert.Equal(t, "ord-1", entry["order_id"])
}

func TestNewLoggerTextDebugOutsideProduction(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, &Config{AppEnv: "development"}).Debug("cache miss")
	assert.Contains(t, buf.String(), "msg=\"cache miss\"")
}
