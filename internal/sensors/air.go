package sensors

import (
	"math"
	"time"

	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

// AirReader returns NaN for a reading that could not be taken.
type AirReader interface {
	ReadTemperature() float64
	ReadHumidity() float64
}

// MinAirInterval is the DHT11 minimum sampling period.
const MinAirInterval = 2 * time.Second

type Air struct {
	reader    AirReader
	gate      schedule.Gate
	tempLatch errorLatch
	humLatch  errorLatch
	rep       Reporter
	health    health
}

func NewAir(reader AirReader, interval time.Duration, rep Reporter) *Air {
	if interval < MinAirInterval {
		interval = MinAirInterval
	}
	return &Air{
		reader: reader,
		gate:   schedule.NewGate(interval),
		rep:    rep,
		health: health{name: "air"},
	}
}

func (a *Air) Name() string { return "air" }

// Update validates temperature and humidity independently; each good value is
// written even when the other one failed.
func (a *Air) Update(now schedule.Millis, env *model.EnvironmentState) model.Outcome {
	if !a.gate.TryFire(now) {
		return model.Unchanged
	}

	ok := true

	temp := a.reader.ReadTemperature()
	if !math.IsNaN(temp) {
		env.AirTemp = temp
		a.tempLatch.clear(a.Name(), "temperature")
	} else {
		ok = false
		a.tempLatch.fail(a.rep, a.Name(), "temperature")
	}

	hum := a.reader.ReadHumidity()
	if !math.IsNaN(hum) {
		env.AirHumidity = hum
		a.humLatch.clear(a.Name(), "humidity")
	} else {
		ok = false
		a.humLatch.fail(a.rep, a.Name(), "humidity")
	}

	if !ok {
		return a.health.record(model.FailedRead)
	}
	return a.health.record(model.Updated)
}

func (a *Air) Status() model.SensorStatus { return a.health.status() }
