package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS nvram (
	id         INTEGER PRIMARY KEY CHECK(id=1),
	data       BLOB NOT NULL,
	updated_at TEXT NOT NULL
);
`

// Open opens (and creates if needed) the SQLite file that holds the region.
func Open(dbPath string) (*sql.DB, error) {
	dbConn, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer, and keeps ":memory:" databases on a single connection
	dbConn.SetMaxOpenConns(1)

	if err := ApplyMigrations(dbConn); err != nil {
		dbConn.Close()
		return nil, err
	}
	return dbConn, nil
}

func ApplyMigrations(dbConn *sql.DB) error {
	if _, err := dbConn.Exec(schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// NVRAM is an nvstore backing kept as a single blob row.
type NVRAM struct {
	db *sql.DB
}

func NewNVRAM(dbConn *sql.DB) *NVRAM {
	return &NVRAM{db: dbConn}
}

func (n *NVRAM) Load() ([]byte, error) {
	return GetRegion(n.db)
}

// Persist replaces the stored blob inside one transaction.
func (n *NVRAM) Persist(data []byte) error {
	tx, err := StartTransaction(n.db)
	if err != nil {
		return err
	}
	if err := PutRegionWithTx(tx, data); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}
