package app

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLogLevelToZero(t *testing.T) {
	cases := map[Level]zerolog.Level{
		TRACE:     zerolog.TraceLevel,
		DEBUG:     zerolog.DebugLevel,
		"debug":   zerolog.DebugLevel,
		INFO:      zerolog.InfoLevel,
		WARN:      zerolog.WarnLevel,
		ERROR:     zerolog.ErrorLevel,
		PANIC:     zerolog.PanicLevel,
		"":        zerolog.InfoLevel,
		"VERBOSE": zerolog.InfoLevel,
	}

	for level, expected := range cases {
		level, expected := level, expected
		t.Run(string(level), func(t *testing.T) {
			require.Equal(t, expected, logLevelToZero(level))
		})
	}
}

func TestNewZeroLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := newZeroLogger(buf, WARN)

	logger.Info().Msg("dropped")
	require.Zero(t, buf.Len())

	logger.Warn().Str("operation", "save_interaction").Msg("kept")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, serviceName, entry["service"])
	require.Equal(t, "save_interaction", entry["operation"])
	require.Equal(t, "warn", entry["level"])
}
