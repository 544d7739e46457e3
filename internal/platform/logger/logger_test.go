package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	l := Setup(Config{Level: "warn", Output: &buf})
	assert.Equal(t, zerolog.WarnLevel, l.GetLevel())

	Get().Info().Msg("dropped")
	assert.Zero(t, buf.Len(), "info should be filtered at warn level")

	Get().Warn().Str("isbn", "123").Msg("kept")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "123", entry["isbn"])
	assert.Equal(t, "booksapi", entry["service"])
}

func TestSetupUnknownLevelDefaultsToInfo(t *testing.T) {
	l := Setup(Config{Level: "loud", Output: &bytes.Buffer{}})
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
