package nvstore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/relay-controller/internal/model"
)

type failingBacking struct {
	MemoryBacking
	persistErr error
}

func (f *failingBacking) Persist(data []byte) error {
	if f.persistErr != nil {
		return f.persistErr
	}
	return f.MemoryBacking.Persist(data)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	pairs := []struct {
		name   string
		relay1 model.Level
		relay2 model.Level
	}{
		{"off/off", model.Off, model.Off},
		{"off/on", model.Off, model.On},
		{"on/off", model.On, model.Off},
		{"on/on", model.On, model.On},
	}

	for _, tt := range pairs {
		t.Run(tt.name, func(t *testing.T) {
			s := New(NewRegion(NewMemoryBacking(nil)), 64)

			rec := model.Record{Relay1: tt.relay1, Relay2: tt.relay2}
			require.NoError(t, s.Save(&rec))
			assert.Equal(t, model.ValidMarker, rec.Valid, "save marks the caller's record valid")

			loaded, err := s.Load()
			require.NoError(t, err)
			assert.Equal(t, rec, loaded)
		})
	}
}

func TestSave_WritesPackedLayout(t *testing.T) {
	backing := NewMemoryBacking(nil)
	s := New(NewRegion(backing), 16)

	rec := model.Record{Relay1: model.On, Relay2: model.Off}
	require.NoError(t, s.Save(&rec))

	stored := backing.Bytes()
	require.Len(t, stored, 16)
	assert.Equal(t, []byte{1, 1, 0}, stored[:3])
}

func TestLoad_NoValidation(t *testing.T) {
	s := New(NewRegion(NewMemoryBacking([]byte{0xFF, 7, 1})), 16)

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint8(0xFF), rec.Valid)
	assert.Equal(t, model.Level(7), rec.Relay1)
	assert.False(t, rec.Relay1.IsOn())
	assert.True(t, rec.Relay2.IsOn())
	assert.False(t, rec.IsValid())
}

func TestLoad_UninitializedBackingReadsZero(t *testing.T) {
	s := New(NewRegion(NewMemoryBacking(nil)), 16)

	rec, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, model.Record{}, rec)
}

func TestErase_ZeroesRecord(t *testing.T) {
	backing := NewMemoryBacking([]byte{9, 1, 1, 42})
	s := New(NewRegion(backing), 8)

	rec, err := s.Erase()
	require.NoError(t, err)
	assert.Equal(t, model.Record{}, rec)

	stored := backing.Bytes()
	assert.Equal(t, []byte{0, 0, 0, 42}, stored[:4], "only the record span is cleared")

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, uint8(0), loaded.Valid)
	assert.Equal(t, model.Off, loaded.Relay1)
	assert.Equal(t, model.Off, loaded.Relay2)
}

func TestSave_CommitFailureSurfaces(t *testing.T) {
	backing := &failingBacking{persistErr: errors.New("flash worn out")}
	s := New(NewRegion(backing), 8)

	rec := model.Record{Relay1: model.On}
	err := s.Save(&rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flash worn out")

	// region must be released even after a failed commit
	backing.persistErr = nil
	require.NoError(t, s.Save(&rec))
}

func TestRegion_Bounds(t *testing.T) {
	r := NewRegion(NewMemoryBacking(nil))

	_, err := r.Read(0, 1)
	assert.ErrorIs(t, err, ErrNotOpen)

	require.NoError(t, r.Open(4))
	assert.ErrorIs(t, r.Open(4), ErrAlreadyOpen)

	_, err = r.Read(2, 3)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, r.Write(3, []byte{1, 2}), ErrOutOfRange)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrNotOpen)
}

func TestRegion_CloseDiscardsUncommitted(t *testing.T) {
	backing := NewMemoryBacking(nil)
	r := NewRegion(backing)

	require.NoError(t, r.Open(4))
	require.NoError(t, r.Write(0, []byte{5, 6}))
	require.NoError(t, r.Close())

	require.NoError(t, r.Open(4))
	got, err := r.Read(0, 2)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0}, got)
	require.NoError(t, r.Close())
	assert.Empty(t, backing.Bytes())
}

func TestNew_SmallRegionFallsBackToDefault(t *testing.T) {
	s := New(NewRegion(NewMemoryBacking(nil)), 1)
	assert.Equal(t, DefaultRegionSize, s.regionSize)
}
