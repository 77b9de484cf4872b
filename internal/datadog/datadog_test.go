package datadog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

type gauge struct {
	name  string
	value float64
	tags  []string
}

type fakeStatsd struct {
	gauges []gauge
	closed bool
}

func (f *fakeStatsd) Gauge(name string, value float64, tags []string, rate float64) error {
	f.gauges = append(f.gauges, gauge{name, value, tags})
	return nil
}

func (f *fakeStatsd) Close() error {
	f.closed = true
	return nil
}

func TestEmitEnvironment(t *testing.T) {
	fake := &fakeStatsd{}
	dogstatsd = fake
	defer func() { dogstatsd = nil }()

	EmitEnvironment(model.EnvironmentState{MoisturePercent: 40, AirTemp: 22.5, AirHumidity: 55, WaterTemperature: 19, AlarmActive: true})

	got := map[string]float64{}
	for _, g := range fake.gauges {
		got[g.name] = g.value
	}
	assert.Equal(t, map[string]float64{
		"moisture_percent": 40,
		"air_temp":         22.5,
		"air_humidity":     55,
		"water_temp":       19,
		"alarm_active":     1,
		"watering_active":  0,
	}, got)
}

func TestEmitSensorHealth(t *testing.T) {
	fake := &fakeStatsd{}
	dogstatsd = fake
	defer func() { dogstatsd = nil }()

	EmitSensorHealth([]model.SensorStatus{{Name: "water", Healthy: false}})
	assert.Equal(t, []gauge{{"sensor_healthy", 0, []string{"sensor:water"}}}, fake.gauges)

	Close()
	assert.True(t, fake.closed)
}

func TestGaugeWithoutClientIsNoop(t *testing.T) {
	dogstatsd = nil
	Gauge("air_temp", 1)
}
