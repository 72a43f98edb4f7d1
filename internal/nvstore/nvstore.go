// Package nvstore persists the relay configuration record in a non-volatile
// byte region. The record is always read and written whole, at offset 0.
package nvstore

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/relay-controller/internal/model"
)

const recordOffset = 0

// DefaultRegionSize is the EEPROM emulation window of the ESP32 relay board.
const DefaultRegionSize = 4095

type ConfigStore struct {
	mu         sync.Mutex
	region     Region
	regionSize int
}

func New(region Region, regionSize int) *ConfigStore {
	if regionSize < model.RecordSize {
		regionSize = DefaultRegionSize
	}
	return &ConfigStore{region: region, regionSize: regionSize}
}

// Load reads the record as stored. It does not check the validity marker.
func (s *ConfigStore) Load() (model.Record, error) {
	var rec model.Record
	err := s.withRegion(func(r Region) error {
		raw, err := r.Read(recordOffset, model.RecordSize)
		if err != nil {
			return err
		}
		rec = decodeRecord(raw)
		return nil
	})
	if err != nil {
		return model.Record{}, fmt.Errorf("load config record: %w", err)
	}
	return rec, nil
}

// Save marks rec valid and writes it in full, then commits.
func (s *ConfigStore) Save(rec *model.Record) error {
	rec.Valid = model.ValidMarker
	data := encodeRecord(*rec)

	err := s.withRegion(func(r Region) error {
		if err := r.Write(recordOffset, data); err != nil {
			return err
		}
		return r.Commit()
	})
	if err != nil {
		return fmt.Errorf("save config record: %w", err)
	}

	log.Debug().
		Str("relay1", rec.Relay1.String()).
		Str("relay2", rec.Relay2.String()).
		Msg("Config record saved")
	return nil
}

// Erase zeroes the record span and commits. The returned zero record is what
// the caller should hold in memory afterwards.
func (s *ConfigStore) Erase() (model.Record, error) {
	err := s.withRegion(func(r Region) error {
		if err := r.Write(recordOffset, make([]byte, model.RecordSize)); err != nil {
			return err
		}
		return r.Commit()
	})
	if err != nil {
		return model.Record{}, fmt.Errorf("erase config record: %w", err)
	}

	log.Info().Msg("Config record erased")
	return model.Record{}, nil
}

// withRegion brackets fn with Open/Close under the store lock so that no two
// callers hold the region at the same time.
func (s *ConfigStore) withRegion(fn func(Region) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.region.Open(s.regionSize); err != nil {
		return err
	}

	fnErr := fn(s.region)
	closeErr := s.region.Close()
	if fnErr != nil {
		return fnErr
	}
	return closeErr
}

func encodeRecord(rec model.Record) []byte {
	return []byte{rec.Valid, byte(rec.Relay1), byte(rec.Relay2)}
}

func decodeRecord(raw []byte) model.Record {
	return model.Record{
		Valid:  raw[0],
		Relay1: model.Level(raw[1]),
		Relay2: model.Level(raw[2]),
	}
}
