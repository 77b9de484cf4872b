package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thatsimonsguy/plant-controller/internal/model"
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

func InsertReading(db *sql.DB, at time.Time, env model.EnvironmentState) error {
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	if err := InsertReadingWithTx(tx, at, env); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func InsertReadingWithTx(tx *sql.Tx, at time.Time, env model.EnvironmentState) error {
	_, err := tx.Exec(`INSERT INTO readings (recorded_at, moisture_percent, air_temp, air_humidity, water_temp, alarm_active, watering_active) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		at.UTC().Format(time.RFC3339), env.MoisturePercent, env.AirTemp, env.AirHumidity, env.WaterTemperature, env.AlarmActive, env.WateringActive)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func InsertWateringEvent(db *sql.DB, at time.Time, state model.WateringState, reason string) error {
	tx, err := StartTransaction(db)
	if err != nil {
		return err
	}
	if err := InsertWateringEventWithTx(tx, at, state, reason); err != nil {
		RollbackTransaction(tx)
		return err
	}
	return CommitTransaction(tx)
}

func InsertWateringEventWithTx(tx *sql.Tx, at time.Time, state model.WateringState, reason string) error {
	_, err := tx.Exec(`INSERT INTO watering_events (occurred_at, state, reason) VALUES (?, ?, ?)`,
		at.UTC().Format(time.RFC3339), string(state), reason)
	if err != nil {
		return fmt.Errorf("insert watering event: %w", err)
	}
	return nil
}
