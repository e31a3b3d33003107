package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warning", zapcore.WarnLevel},
		{" error ", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"verbose", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLevel(tt.input))
		})
	}
}

func TestLogger_WithHelpers(t *testing.T) {
	log, err := New("debug")
	require.NoError(t, err)

	assert.NotNil(t, log.WithField("post_uuid", "abc"))
	assert.NotNil(t, log.WithFields(map[string]interface{}{"a": 1, "b": "two"}))
	assert.NotNil(t, log.WithError(errors.New("boom")))
	assert.NotNil(t, log.Named("realtime"))
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNewNop(t *testing.T) {
	log := NewNop()
	require.NotNil(t, log)
	log.WithField("k", "v").Info("discarded")
}
