package actuation

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

// Output is a single on/off actuator. gpio.Output satisfies it.
type Output interface {
	Set(on bool)
}

const (
	ReasonManual      = "manual"
	ReasonMaxDuration = "max-duration"
	ReasonShutdown    = "shutdown"
)

// EventRecorder receives completed state transitions, e.g. the history db.
type EventRecorder interface {
	RecordWatering(state model.WateringState, reason string)
}

type Watering struct {
	relay Output
	led   Output

	state       model.WateringState
	startedAt   schedule.Millis
	maxDuration uint32
	recorder    EventRecorder
}

// NewWatering builds the state machine in Idle. led may be nil. A maxDuration
// of zero disables the safety stop.
func NewWatering(relay, led Output, maxDuration time.Duration) *Watering {
	return &Watering{
		relay:       relay,
		led:         led,
		state:       model.Idle,
		maxDuration: schedule.FromDuration(maxDuration),
	}
}

func (w *Watering) SetRecorder(r EventRecorder) {
	w.recorder = r
}

func (w *Watering) State() model.WateringState {
	return w.state
}

func (w *Watering) Active() bool {
	return w.state == model.Watering
}

// Start moves Idle to Watering and reports whether a transition happened.
func (w *Watering) Start(now schedule.Millis) bool {
	if w.state == model.Watering {
		return false
	}
	w.drive(true)
	w.state = model.Watering
	w.startedAt = now
	log.Info().Uint32("now_ms", uint32(now)).Msg("Watering started")
	w.record(ReasonManual)
	return true
}

// Stop moves Watering to Idle and reports whether a transition happened.
func (w *Watering) Stop(now schedule.Millis, reason string) bool {
	if w.state == model.Idle {
		return false
	}
	w.drive(false)
	w.state = model.Idle
	log.Info().
		Str("reason", reason).
		Uint32("duration_ms", now.Since(w.startedAt)).
		Msg("Watering stopped")
	w.record(reason)
	return true
}

// CheckSafety stops watering once it has run longer than the configured maximum.
func (w *Watering) CheckSafety(now schedule.Millis) bool {
	if w.maxDuration == 0 || w.state != model.Watering {
		return false
	}
	if now.Since(w.startedAt) < w.maxDuration {
		return false
	}
	log.Warn().Uint32("max_ms", w.maxDuration).Msg("Watering exceeded max duration")
	return w.Stop(now, ReasonMaxDuration)
}

func (w *Watering) drive(on bool) {
	w.relay.Set(on)
	if w.led != nil {
		w.led.Set(on)
	}
}

func (w *Watering) record(reason string) {
	if w.recorder != nil {
		w.recorder.RecordWatering(w.state, reason)
	}
}
