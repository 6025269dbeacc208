package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Domenick1991/pitchbooking/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	log.WithField("component", "reminder").Debug("tick")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reminder", entry["component"])
	assert.Equal(t, "tick", entry["msg"])
}

func TestNew_UnknownLevel(t *testing.T) {
	log := newWithOutput(config.LogConfig{Level: "loud"}, &bytes.Buffer{})
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
