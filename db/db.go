package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS readings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT NOT NULL,
	moisture_percent INTEGER NOT NULL,
	air_temp REAL NOT NULL,
	air_humidity REAL NOT NULL,
	water_temp REAL NOT NULL,
	alarm_active BOOLEAN NOT NULL DEFAULT FALSE,
	watering_active BOOLEAN NOT NULL DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_readings_recorded_at ON readings(recorded_at);

CREATE TABLE IF NOT EXISTS watering_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	occurred_at TEXT NOT NULL,
	state TEXT NOT NULL,
	reason TEXT NOT NULL
);
`

// Open opens (or creates) the history database at path and applies the schema.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; the control loop is the only one anyway.
	conn.SetMaxOpenConns(1)
	if err := ApplySchema(conn); err != nil {
		conn.Close()
		return nil, err
	}
	log.Info().Str("path", path).Msg("History database ready")
	return conn, nil
}

func ApplySchema(conn *sql.DB) error {
	tx, err := StartTransaction(conn)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(schema); err != nil {
		RollbackTransaction(tx)
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return CommitTransaction(tx)
}
