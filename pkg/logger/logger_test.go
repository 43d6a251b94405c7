package logger

import (
	"fmt"
	"path/filepath"
	"testing"

	"wpexport/pkg/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "debug"})

	require.NoError(t, err)
	assert.NotNil(t, log)
	assert.NotNil(t, log.GetZerolog())
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(&config.LoggingConfig{Level: "chatty"})
	assert.Error(t, err)
}

func TestNewWithFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "wpexport.log")
	log, err := New(&config.LoggingConfig{Level: "info", File: path})

	require.NoError(t, err)
	log.Info("written to file")

	assert.FileExists(t, path)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"disabled", zerolog.Disabled},
	}

	for _, tt := range tests {
		level, err := parseLogLevel(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, level, tt.input)
	}

	_, err := parseLogLevel("nope")
	assert.Error(t, err)
}

func TestWithFieldsChaining(t *testing.T) {
	log, err := New(&config.LoggingConfig{Level: "info"})
	require.NoError(t, err)

	bound := log.WithField("job_id", "j1").WithFields(map[string]interface{}{"file": "a.csv"})
	assert.NotNil(t, bound)

	// WithError on nil keeps the logger usable
	assert.NotNil(t, bound.WithError(nil))
	assert.NotNil(t, bound.WithError(fmt.Errorf("boom")))
}

func TestTestLoggerCapturesMessages(t *testing.T) {
	log := NewTestLogger()

	log.Info("plain message")
	log.WarnWithFields("with fields", map[string]interface{}{"key": "value"})
	log.WithField("bound", true).Error("bound message")

	messages := log.Messages()
	require.Len(t, messages, 3)

	assert.Equal(t, "INFO", messages[0].Level)
	assert.Equal(t, "plain message", messages[0].Message)

	assert.Equal(t, "WARN", messages[1].Level)
	assert.Equal(t, "value", messages[1].Fields["key"])

	assert.Equal(t, "ERROR", messages[2].Level)
	assert.Equal(t, true, messages[2].Fields["bound"])

	assert.True(t, log.HasMessage("plain"))
	assert.False(t, log.HasMessage("absent"))

	log.Reset()
	assert.Empty(t, log.Messages())
}

func TestGetLoggerFallback(t *testing.T) {
	globalLogger = nil
	log := GetLogger()
	assert.NotNil(t, log)
}
