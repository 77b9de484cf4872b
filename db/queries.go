package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

type Reading struct {
	RecordedAt time.Time              `json:"recorded_at"`
	Env        model.EnvironmentState `json:"env"`
}

type WateringEvent struct {
	OccurredAt time.Time           `json:"occurred_at"`
	State      model.WateringState `json:"state"`
	Reason     string              `json:"reason"`
}

// GetRecentReadings returns up to limit readings, newest first.
func GetRecentReadings(db *sql.DB, limit int) ([]Reading, error) {
	rows, err := db.Query(`SELECT recorded_at, moisture_percent, air_temp, air_humidity, water_temp, alarm_active, watering_active FROM readings ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query readings: %w", err)
	}
	defer rows.Close()

	var readings []Reading
	for rows.Next() {
		var r Reading
		var at string
		err = rows.Scan(&at, &r.Env.MoisturePercent, &r.Env.AirTemp, &r.Env.AirHumidity, &r.Env.WaterTemperature, &r.Env.AlarmActive, &r.Env.WateringActive)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		r.RecordedAt, _ = time.Parse(time.RFC3339, at)
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// GetWateringEvents returns events that occurred at or after since, oldest first.
func GetWateringEvents(db *sql.DB, since time.Time) ([]WateringEvent, error) {
	rows, err := db.Query(`SELECT occurred_at, state, reason FROM watering_events WHERE occurred_at >= ? ORDER BY id ASC`, since.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("failed to query watering events: %w", err)
	}
	defer rows.Close()

	var events []WateringEvent
	for rows.Next() {
		var e WateringEvent
		var at, state string
		if err := rows.Scan(&at, &state, &e.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan watering event: %w", err)
		}
		e.OccurredAt, _ = time.Parse(time.RFC3339, at)
		e.State = model.WateringState(state)
		events = append(events, e)
	}
	return events, rows.Err()
}
