package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, zerolog.DebugLevel, ParseLevel(" Debug "))
	require.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	require.Equal(t, zerolog.Disabled, ParseLevel("off"))
	require.Equal(t, zerolog.InfoLevel, ParseLevel("loud"))

	_, ok := LookupLevel("loud")
	require.False(t, ok)
	l, ok := LookupLevel("")
	require.True(t, ok)
	require.Equal(t, zerolog.InfoLevel, l)
	l, ok = LookupLevel("ERROR")
	require.True(t, ok)
	require.Equal(t, zerolog.ErrorLevel, l)
}

func TestEnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLevel, "error")

	var out bytes.Buffer
	logger := initLogger(&out, "meshcfgctl", "debug")
	require.Equal(t, zerolog.ErrorLevel, logger.GetLevel())

	logger.Info().Msg("hidden")
	require.Empty(t, out.String())

	logger.Error().Msg("shown")
	require.Contains(t, out.String(), "shown")
	require.Contains(t, out.String(), "meshcfgctl")
}
