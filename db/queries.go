package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetRegion returns the stored region bytes, or nil if nothing was committed yet.
func GetRegion(db *sql.DB) ([]byte, error) {
	var data []byte
	err := db.QueryRow(`SELECT data FROM nvram WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get region: %w", err)
	}
	return data, nil
}

// GetRegionUpdatedAt returns when the region was last committed, or the zero
// time if it never was.
func GetRegionUpdatedAt(db *sql.DB) (time.Time, error) {
	var ts string
	err := db.QueryRow(`SELECT updated_at FROM nvram WHERE id = 1`).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get region timestamp: %w", err)
	}
	return time.Parse(time.RFC3339, ts)
}
