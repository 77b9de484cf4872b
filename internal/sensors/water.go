package sensors

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

// DisconnectedC is the value a probe reports when it is not on the bus.
const DisconnectedC = -127.0

// Probe is a conversion-based temperature sensor. RequestConversion must
// return immediately; ReadCelsius is only called after the conversion time.
type Probe interface {
	RequestConversion() error
	ReadCelsius() (float64, error)
}

// ConversionTime returns the DS18B20 worst-case conversion time for a resolution.
func ConversionTime(bits int) time.Duration {
	switch bits {
	case 9:
		return 94 * time.Millisecond
	case 10:
		return 188 * time.Millisecond
	case 11:
		return 375 * time.Millisecond
	default:
		return 750 * time.Millisecond
	}
}

type Water struct {
	probe       Probe
	gate        schedule.Gate
	conversion  uint32
	requested   bool
	requestedAt schedule.Millis
	latch       errorLatch
	rep         Reporter
	health      health
}

func NewWater(probe Probe, interval, conversion time.Duration, rep Reporter) *Water {
	return &Water{
		probe:      probe,
		gate:       schedule.NewGate(interval),
		conversion: schedule.FromDuration(conversion),
		rep:        rep,
		health:     health{name: "water"},
	}
}

func (w *Water) Name() string { return "water" }

// Update either starts a conversion (when due and idle) or collects its result
// once the conversion time has elapsed. It never waits.
func (w *Water) Update(now schedule.Millis, env *model.EnvironmentState) model.Outcome {
	if !w.requested {
		if !w.gate.TryFire(now) {
			return model.Unchanged
		}
		if err := w.probe.RequestConversion(); err != nil {
			log.Debug().Err(err).Str("sensor", w.Name()).Msg("Conversion request failed")
			w.latch.fail(w.rep, w.Name(), "temperature")
			return w.health.record(model.FailedRead)
		}
		w.requested = true
		w.requestedAt = now
		return model.Unchanged
	}

	if now.Since(w.requestedAt) < w.conversion {
		return model.Unchanged
	}
	w.requested = false

	celsius, err := w.probe.ReadCelsius()
	if err != nil || celsius <= DisconnectedC {
		if err != nil {
			log.Debug().Err(err).Str("sensor", w.Name()).Msg("Probe read failed")
		}
		w.latch.fail(w.rep, w.Name(), "temperature")
		return w.health.record(model.FailedRead)
	}

	env.WaterTemperature = celsius
	w.latch.clear(w.Name(), "temperature")
	return w.health.record(model.Updated)
}

func (w *Water) Status() model.SensorStatus { return w.health.status() }
