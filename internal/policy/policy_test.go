package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

var defaults = Thresholds{AirTempMax: 35, AirHumidityMin: 40, WaterTempLow: 5, WaterTempHigh: 35}

func nominal() model.EnvironmentState {
	return model.EnvironmentState{MoisturePercent: 50, AirTemp: 24, AirHumidity: 55, WaterTemperature: 20}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.EnvironmentState)
		alarm  bool
	}{
		{"nominal", func(*model.EnvironmentState) {}, false},
		{"air too hot", func(e *model.EnvironmentState) { e.AirTemp = 35.1 }, true},
		{"air at max is not an alarm", func(e *model.EnvironmentState) { e.AirTemp = 35 }, false},
		{"air too dry", func(e *model.EnvironmentState) { e.AirHumidity = 39.9 }, true},
		{"humidity at min is not an alarm", func(e *model.EnvironmentState) { e.AirHumidity = 40 }, false},
		{"water too cold", func(e *model.EnvironmentState) { e.WaterTemperature = 4.9 }, true},
		{"water at low bound", func(e *model.EnvironmentState) { e.WaterTemperature = 5 }, false},
		{"water too warm", func(e *model.EnvironmentState) { e.WaterTemperature = 35.5 }, true},
		{"water at high bound", func(e *model.EnvironmentState) { e.WaterTemperature = 35 }, false},
		{"dry soil alone never alarms", func(e *model.EnvironmentState) { e.MoisturePercent = 0 }, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := nominal()
			tc.mutate(&env)
			d := Evaluate(env, defaults)
			assert.Equal(t, tc.alarm, d.AlarmActive)
			assert.False(t, d.AutoWateringDesired)
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	env := nominal()
	env.AirTemp = 36
	first := Evaluate(env, defaults)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Evaluate(env, defaults))
	}
}

func TestEscalate(t *testing.T) {
	quiet := Decision{}
	assert.True(t, Escalate(quiet, false, true).AlarmActive)
	assert.False(t, Escalate(quiet, false, false).AlarmActive)
	assert.False(t, Escalate(quiet, true, true).AlarmActive)
	assert.True(t, Escalate(Decision{AlarmActive: true}, true, true).AlarmActive)
}
