package db

import (
	"database/sql"
	"fmt"
	"time"
)

// StartTransaction starts a new database transaction.
func StartTransaction(db *sql.DB) (*sql.Tx, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	return tx, nil
}

// CommitTransaction commits the given transaction.
func CommitTransaction(tx *sql.Tx) error {
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RollbackTransaction rolls back the given transaction.
func RollbackTransaction(tx *sql.Tx) {
	tx.Rollback()
}

func PutRegionWithTx(tx *sql.Tx, data []byte) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO nvram (id, data, updated_at) VALUES (1, ?, ?)`,
		data, time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to write region: %w", err)
	}
	return nil
}
