package sensors

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

// Driver wraps one physical sensor with its own cadence and failure policy.
type Driver interface {
	Name() string
	Update(now schedule.Millis, env *model.EnvironmentState) model.Outcome
	Status() model.SensorStatus
}

// Reporter receives one diagnostic per failure episode.
type Reporter interface {
	SensorFailed(sensor, reading string)
}

// Notifier interface for sending notifications
type Notifier interface {
	Send(title, message string) error
}

type LogReporter struct {
	notifier Notifier
}

// NewLogReporter logs failures and, when notifier is non-nil, pushes them.
func NewLogReporter(notifier Notifier) *LogReporter {
	return &LogReporter{notifier: notifier}
}

func (r *LogReporter) SensorFailed(sensor, reading string) {
	log.Warn().
		Str("sensor", sensor).
		Str("reading", reading).
		Msg("Failed to read sensor")

	if r.notifier == nil {
		return
	}
	if err := r.notifier.Send("Plant Sensor Failure", fmt.Sprintf("Failed to read %s %s", sensor, reading)); err != nil {
		log.Error().Err(err).Msg("Failed to send sensor failure notification")
	}
}

// errorLatch suppresses repeated diagnostics until a success clears it.
type errorLatch struct {
	reported bool
}

func (l *errorLatch) fail(r Reporter, sensor, reading string) {
	if l.reported {
		return
	}
	l.reported = true
	r.SensorFailed(sensor, reading)
}

func (l *errorLatch) clear(sensor, reading string) {
	if l.reported {
		log.Info().Str("sensor", sensor).Str("reading", reading).Msg("Sensor reading recovered")
	}
	l.reported = false
}

// health tracks the result of the last completed read.
type health struct {
	name    string
	failed  bool
	outcome model.Outcome
}

func (h *health) record(o model.Outcome) model.Outcome {
	if o == model.Unchanged {
		return o
	}
	h.outcome = o
	h.failed = o == model.FailedRead
	return o
}

func (h *health) status() model.SensorStatus {
	return model.SensorStatus{Name: h.name, Healthy: !h.failed, LastOutcome: h.outcome}
}

// AllNominal reports whether every driver's last completed read succeeded.
func AllNominal(drivers []Driver) bool {
	for _, d := range drivers {
		if !d.Status().Healthy {
			return false
		}
	}
	return true
}
