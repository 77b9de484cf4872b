package datalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

const Header = "Timestamp,Moisture(%),AirTemp(C),Humidity(%),WaterTemp(C)"

var ErrStorageUnavailable = errors.New("storage unavailable")

// earliestValidClock is the cut-off below which the wall clock is treated as unset.
var earliestValidClock = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

// Mirror receives every row that reaches the CSV log.
type Mirror interface {
	InsertReading(t time.Time, env model.EnvironmentState) error
}

type Logger struct {
	dir    string
	now    func() time.Time
	mirror Mirror
}

// Open checks that dir exists and is writable.
func Open(dir string, now func() time.Time) (*Logger, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrStorageUnavailable, dir)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	if now == nil {
		now = time.Now
	}
	log.Info().Str("dir", dir).Msg("Data log ready")
	return &Logger{dir: dir, now: now}, nil
}

func (l *Logger) SetMirror(m Mirror) {
	l.mirror = m
}

func FileName(t time.Time) string {
	return t.Format("20060102") + ".csv"
}

func FormatRow(t time.Time, env model.EnvironmentState) string {
	return fmt.Sprintf("%s,%d,%.1f,%.1f,%.1f",
		t.Format("15:04:05"), env.MoisturePercent, env.AirTemp, env.AirHumidity, env.WaterTemperature)
}

// Log appends one row for the current wall-clock time. Rows are skipped while
// the clock is unset.
func (l *Logger) Log(env model.EnvironmentState) {
	t := l.now()
	if t.Before(earliestValidClock) {
		log.Warn().Time("clock", t).Msg("Wall clock invalid, skipping log row")
		return
	}
	if err := l.Append(t, env); err != nil {
		log.Error().Err(err).Msg("Failed to write data log")
		return
	}
	if l.mirror != nil {
		if err := l.mirror.InsertReading(t, env); err != nil {
			log.Warn().Err(err).Msg("Failed to mirror reading to history db")
		}
	}
}

// Append writes a row to the file for t's calendar date, creating it with a
// header if needed.
func (l *Logger) Append(t time.Time, env model.EnvironmentState) error {
	path := filepath.Join(l.dir, FileName(t))

	_, statErr := os.Stat(path)
	newFile := errors.Is(statErr, os.ErrNotExist)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	defer f.Close()

	if newFile {
		if _, err := fmt.Fprintln(f, Header); err != nil {
			return fmt.Errorf("write header to %s: %w", path, err)
		}
	}
	if _, err := fmt.Fprintln(f, FormatRow(t, env)); err != nil {
		return fmt.Errorf("write row to %s: %w", path, err)
	}
	log.Debug().Str("file", path).Msg("Data logged")
	return nil
}
