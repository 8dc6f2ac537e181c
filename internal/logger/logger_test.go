package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesJSONAtLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "warn", Out: &buf}))
	defer Close()

	log.Info().Msg("hidden")
	log.Warn().Str("file", "a.pdf").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var ev map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &ev))
	assert.Equal(t, "warn", ev["level"])
	assert.Equal(t, "a.pdf", ev["file"])
	assert.Equal(t, "shown", ev["message"])
}

func TestInitBadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Level: "loud", Out: &buf}))
	Get().Debug().Msg("debug")
	Get().Info().Msg("info")
	assert.NotContains(t, buf.String(), `"debug"`)
	assert.Contains(t, buf.String(), `"info"`)
}

func TestInitCreatesLogDir(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "pdfsplit.log")
	require.NoError(t, Init(Options{Level: "info", File: file, MaxSizeMB: 1, Out: &buf}))
	log.Info().Msg("to file")
	assert.DirExists(t, filepath.Dir(file))
	assert.FileExists(t, file)
}

func TestInitAddsFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Init(Options{Out: &buf, Fields: map[string]string{"command": "split", "version": "dev"}}))
	log.Info().Msg("hello")

	var ev map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &ev))
	assert.Equal(t, "split", ev["command"])
	assert.Equal(t, "dev", ev["version"])
}
