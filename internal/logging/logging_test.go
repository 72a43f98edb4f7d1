package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_WritesToFile(t *testing.T) {
	orig := log.Logger
	defer func() { log.Logger = orig }()

	path := filepath.Join(t.TempDir(), "relay.log")
	Init(zerolog.InfoLevel, path)

	log.Info().Str("topic", "esp32lr20/state").Msg("hello")
	log.Debug().Msg("filtered")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"topic":"esp32lr20/state"`)
	assert.NotContains(t, string(data), "filtered")
}

func TestInit_BadPathPanics(t *testing.T) {
	orig := log.Logger
	defer func() { log.Logger = orig }()

	assert.Panics(t, func() {
		Init(zerolog.InfoLevel, filepath.Join(t.TempDir(), "missing", "dir", "relay.log"))
	})
}
