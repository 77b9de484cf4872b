package db

import (
	"database/sql"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

// History binds the database to the data logger and the watering state machine.
type History struct {
	conn *sql.DB
	now  func() time.Time
}

func NewHistory(conn *sql.DB) *History {
	return &History{conn: conn, now: time.Now}
}

func (h *History) InsertReading(at time.Time, env model.EnvironmentState) error {
	return InsertReading(h.conn, at, env)
}

func (h *History) RecordWatering(state model.WateringState, reason string) {
	if err := InsertWateringEvent(h.conn, h.now(), state, reason); err != nil {
		log.Warn().Err(err).Str("state", string(state)).Msg("Failed to record watering event")
	}
}
