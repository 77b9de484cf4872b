package sensors

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/mathx"
	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

type RawReader interface {
	ReadRaw() (int, error)
}

// Calibration holds the raw ADC bounds of a fully dry and fully wet probe.
type Calibration struct {
	Dry int `json:"dry" yaml:"dry"`
	Wet int `json:"wet" yaml:"wet"`
}

// Percent maps a raw sample onto [0,100]. Samples outside [Dry,Wet] clamp.
func Percent(raw int, cal Calibration) int {
	return mathx.Clamp(mathx.Map(raw, cal.Dry, cal.Wet, 0, 100), 0, 100)
}

type Moisture struct {
	reader RawReader
	cal    Calibration
	gate   schedule.Gate
	latch  errorLatch
	rep    Reporter
	health health
}

func NewMoisture(reader RawReader, cal Calibration, interval time.Duration, rep Reporter) *Moisture {
	return &Moisture{
		reader: reader,
		cal:    cal,
		gate:   schedule.NewGate(interval),
		rep:    rep,
		health: health{name: "moisture"},
	}
}

func (m *Moisture) Name() string { return "moisture" }

// Update samples the probe when due. A bus error keeps the previous value and
// is not counted against sensor health, the mapping itself cannot fail.
func (m *Moisture) Update(now schedule.Millis, env *model.EnvironmentState) model.Outcome {
	if !m.gate.TryFire(now) {
		return model.Unchanged
	}

	raw, err := m.reader.ReadRaw()
	if err != nil {
		log.Debug().Err(err).Str("sensor", m.Name()).Msg("ADC read error")
		m.latch.fail(m.rep, m.Name(), "adc")
		return model.Unchanged
	}
	m.latch.clear(m.Name(), "adc")

	env.MoisturePercent = Percent(raw, m.cal)
	return m.health.record(model.Updated)
}

func (m *Moisture) Status() model.SensorStatus { return m.health.status() }
