package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/relay-controller/internal/model"
	"github.com/thatsimonsguy/relay-controller/internal/nvstore"
)

func TestFile_LoadMissingIsEmpty(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "nvram.bin"))

	data, err := f.Load()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestFile_PersistReplacesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nvram.bin")
	f := New(path)

	require.NoError(t, f.Persist([]byte{1, 2, 3}))
	require.NoError(t, f.Persist([]byte{4, 5}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 5}, data)

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temp image should be renamed away")
}

func TestFile_ConfigStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nvram.bin")

	first := nvstore.New(nvstore.NewRegion(New(path)), 32)
	rec := model.Record{Relay1: model.Off, Relay2: model.On}
	require.NoError(t, first.Save(&rec))

	// a fresh store over the same file stands in for a power cycle
	second := nvstore.New(nvstore.NewRegion(New(path)), 32)
	loaded, err := second.Load()
	require.NoError(t, err)
	assert.Equal(t, model.Record{Valid: 1, Relay1: model.Off, Relay2: model.On}, loaded)
}

func TestFile_UpdatedAt(t *testing.T) {
	f := New(filepath.Join(t.TempDir(), "nvram.bin"))

	ts, err := f.UpdatedAt()
	require.NoError(t, err)
	assert.True(t, ts.IsZero(), "no image yet")

	require.NoError(t, f.Persist([]byte{1, 0, 0}))
	ts, err = f.UpdatedAt()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}
