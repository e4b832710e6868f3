package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"botrelay/internal/config"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"warn", zerolog.WarnLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			logger, closer, err := New(config.LoggingConfig{Level: tt.level, Format: "json", OutputPath: "stdout"})
			require.NoError(t, err)
			defer closer.Close()
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}

func TestNew_FileOutputIsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "relay.log")

	logger, closer, err := New(config.LoggingConfig{Level: "info", Format: "json", OutputPath: path})
	require.NoError(t, err)

	logger.Info().Str("message_id", "m1").Msg("delivered")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var line map[string]any
	require.NoError(t, json.Unmarshal(data, &line))
	assert.Equal(t, "m1", line["message_id"])
	assert.Equal(t, "botrelay", line["service"])
	assert.Equal(t, "delivered", line["message"])
}

func TestNew_BadPath(t *testing.T) {
	_, _, err := New(config.LoggingConfig{OutputPath: filepath.Join(t.TempDir(), "missing", "relay.log")})
	assert.Error(t, err)
}
