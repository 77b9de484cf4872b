package policy

import "github.com/thatsimonsguy/plant-controller/internal/model"

// Thresholds are fixed at startup. All comparisons are strict and carry no
// hysteresis band.
type Thresholds struct {
	AirTempMax     float64 `json:"air_temp_max" yaml:"air_temp_max"`
	AirHumidityMin float64 `json:"air_humidity_min" yaml:"air_humidity_min"`
	WaterTempLow   float64 `json:"water_temp_low" yaml:"water_temp_low"`
	WaterTempHigh  float64 `json:"water_temp_high" yaml:"water_temp_high"`
}

type Decision struct {
	AlarmActive bool
	// AutoWateringDesired is reserved for moisture-driven watering and is
	// never set; watering is started by manual command only.
	AutoWateringDesired bool
}

// Evaluate maps the latest readings onto an actuation decision. It has no
// side effects.
func Evaluate(env model.EnvironmentState, th Thresholds) Decision {
	alarm := env.AirTemp > th.AirTempMax ||
		env.AirHumidity < th.AirHumidityMin ||
		env.WaterTemperature < th.WaterTempLow ||
		env.WaterTemperature > th.WaterTempHigh

	return Decision{AlarmActive: alarm}
}

// Escalate raises the alarm when a sensor is not reporting, so a stale value
// cannot hide a fault.
func Escalate(d Decision, allNominal, enabled bool) Decision {
	if enabled && !allNominal {
		d.AlarmActive = true
	}
	return d
}
