package sensors

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

type MockReporter struct {
	calls []string
}

func (m *MockReporter) SensorFailed(sensor, reading string) {
	m.calls = append(m.calls, sensor+"/"+reading)
}

type fakeADC struct {
	raw int
	err error
}

func (f *fakeADC) ReadRaw() (int, error) { return f.raw, f.err }

type fakeAir struct {
	temps []float64
	hums  []float64
}

func (f *fakeAir) ReadTemperature() float64 {
	v := f.temps[0]
	if len(f.temps) > 1 {
		f.temps = f.temps[1:]
	}
	return v
}

func (f *fakeAir) ReadHumidity() float64 {
	v := f.hums[0]
	if len(f.hums) > 1 {
		f.hums = f.hums[1:]
	}
	return v
}

type fakeProbe struct {
	readings []float64
	requests int
	reads    int
	err      error
}

func (f *fakeProbe) RequestConversion() error {
	f.requests++
	return nil
}

func (f *fakeProbe) ReadCelsius() (float64, error) {
	f.reads++
	if f.err != nil {
		return DisconnectedC, f.err
	}
	v := f.readings[0]
	if len(f.readings) > 1 {
		f.readings = f.readings[1:]
	}
	return v, nil
}

var nan = math.NaN()

func TestPercent_AlwaysWithinRange(t *testing.T) {
	cals := []Calibration{{Dry: 17500, Wet: 7800}, {Dry: 300, Wet: 700}, {Dry: 520, Wet: 260}}
	for _, cal := range cals {
		for raw := -40000; raw <= 40000; raw += 137 {
			p := Percent(raw, cal)
			assert.GreaterOrEqual(t, p, 0, "raw=%d cal=%+v", raw, cal)
			assert.LessOrEqual(t, p, 100, "raw=%d cal=%+v", raw, cal)
		}
		assert.Equal(t, 0, Percent(cal.Dry, cal))
		assert.Equal(t, 100, Percent(cal.Wet, cal))
	}
}

func TestMoisture_CadenceAndMapping(t *testing.T) {
	rep := &MockReporter{}
	adc := &fakeADC{raw: 12650}
	m := NewMoisture(adc, Calibration{Dry: 17500, Wet: 7800}, time.Second, rep)
	env := &model.EnvironmentState{}

	assert.Equal(t, model.Unchanged, m.Update(500, env))
	assert.Equal(t, model.Updated, m.Update(1000, env))
	assert.Equal(t, 50, env.MoisturePercent)

	adc.raw = 2000 // wetter than the wet bound
	assert.Equal(t, model.Updated, m.Update(2000, env))
	assert.Equal(t, 100, env.MoisturePercent)
}

func TestMoisture_BusErrorKeepsValue(t *testing.T) {
	rep := &MockReporter{}
	adc := &fakeADC{raw: 17500}
	m := NewMoisture(adc, Calibration{Dry: 17500, Wet: 7800}, time.Second, rep)
	env := &model.EnvironmentState{MoisturePercent: 64}

	adc.err = errors.New("i2c nack")
	assert.Equal(t, model.Unchanged, m.Update(1000, env))
	assert.Equal(t, model.Unchanged, m.Update(2000, env))
	assert.Equal(t, 64, env.MoisturePercent)
	assert.Equal(t, []string{"moisture/adc"}, rep.calls)
	assert.True(t, m.Status().Healthy)
}

func TestAir_EnforcesMinimumPeriod(t *testing.T) {
	a := NewAir(&fakeAir{temps: []float64{21}, hums: []float64{50}}, 100*time.Millisecond, &MockReporter{})
	env := &model.EnvironmentState{}
	assert.Equal(t, model.Unchanged, a.Update(1999, env))
	assert.Equal(t, model.Updated, a.Update(2000, env))
	assert.Equal(t, model.Unchanged, a.Update(3000, env))
}

func TestAir_DebouncesPersistentFailure(t *testing.T) {
	rep := &MockReporter{}
	reader := &fakeAir{
		temps: []float64{24.5, nan, nan, nan, nan, 25.0, nan},
		hums:  []float64{55, 55, 55, 55, 55, 56, 56},
	}
	a := NewAir(reader, 2*time.Second, rep)
	env := &model.EnvironmentState{}

	now := schedule.Millis(0)
	step := func() model.Outcome {
		now += 2000
		return a.Update(now, env)
	}

	require.Equal(t, model.Updated, step())
	assert.Equal(t, 24.5, env.AirTemp)

	for i := 0; i < 4; i++ {
		assert.Equal(t, model.FailedRead, step())
	}
	assert.Equal(t, []string{"air/temperature"}, rep.calls, "four failed polls emit one diagnostic")
	assert.Equal(t, 24.5, env.AirTemp, "failed reads keep the last good value")
	assert.Equal(t, 55.0, env.AirHumidity, "humidity still updates while temperature fails")
	assert.False(t, a.Status().Healthy)

	assert.Equal(t, model.Updated, step())
	assert.Equal(t, 25.0, env.AirTemp)
	assert.Equal(t, 56.0, env.AirHumidity)
	assert.True(t, a.Status().Healthy)

	assert.Equal(t, model.FailedRead, step())
	assert.Equal(t, []string{"air/temperature", "air/temperature"}, rep.calls, "a new episode is reported again")
}

func TestAir_IndependentLatches(t *testing.T) {
	rep := &MockReporter{}
	a := NewAir(&fakeAir{temps: []float64{nan}, hums: []float64{nan}}, 2*time.Second, rep)
	env := &model.EnvironmentState{AirTemp: 20, AirHumidity: 45}

	a.Update(2000, env)
	a.Update(4000, env)
	assert.ElementsMatch(t, []string{"air/temperature", "air/humidity"}, rep.calls)
	assert.Equal(t, 20.0, env.AirTemp)
	assert.Equal(t, 45.0, env.AirHumidity)
}

func TestWater_WaitsForConversion(t *testing.T) {
	probe := &fakeProbe{readings: []float64{18.5}}
	w := NewWater(probe, time.Second, 94*time.Millisecond, &MockReporter{})
	env := &model.EnvironmentState{}

	assert.Equal(t, model.Unchanged, w.Update(999, env))
	assert.Equal(t, 0, probe.requests)

	assert.Equal(t, model.Unchanged, w.Update(1000, env))
	assert.Equal(t, 1, probe.requests)

	assert.Equal(t, model.Unchanged, w.Update(1093, env))
	assert.Equal(t, 0, probe.reads, "result is not read before the conversion time")

	assert.Equal(t, model.Updated, w.Update(1094, env))
	assert.Equal(t, 1, probe.reads)
	assert.Equal(t, 18.5, env.WaterTemperature)

	// cadence is measured from the request
	assert.Equal(t, model.Unchanged, w.Update(1500, env))
	assert.Equal(t, 1, probe.requests)
	assert.Equal(t, model.Unchanged, w.Update(2094, env))
	assert.Equal(t, 2, probe.requests)
}

func TestWater_DisconnectedIsFailure(t *testing.T) {
	rep := &MockReporter{}
	probe := &fakeProbe{readings: []float64{21.0, DisconnectedC, DisconnectedC, DisconnectedC, 22.0, DisconnectedC}}
	w := NewWater(probe, time.Second, 94*time.Millisecond, rep)
	env := &model.EnvironmentState{}

	now := schedule.Millis(0)
	cycle := func() model.Outcome {
		now += 1000
		w.Update(now, env)
		return w.Update(now+100, env)
	}

	require.Equal(t, model.Updated, cycle())
	assert.Equal(t, 21.0, env.WaterTemperature)

	for i := 0; i < 3; i++ {
		assert.Equal(t, model.FailedRead, cycle())
		assert.Equal(t, 21.0, env.WaterTemperature, "sentinel never reaches the snapshot")
	}
	assert.Equal(t, []string{"water/temperature"}, rep.calls)
	assert.False(t, w.Status().Healthy)

	assert.Equal(t, model.Updated, cycle())
	assert.True(t, w.Status().Healthy)

	assert.Equal(t, model.FailedRead, cycle())
	assert.Len(t, rep.calls, 2)
}

func TestWater_ReadErrorIsFailure(t *testing.T) {
	rep := &MockReporter{}
	probe := &fakeProbe{err: errors.New("io")}
	w := NewWater(probe, time.Second, 94*time.Millisecond, rep)
	env := &model.EnvironmentState{WaterTemperature: 19}

	w.Update(1000, env)
	assert.Equal(t, model.FailedRead, w.Update(1100, env))
	assert.Equal(t, 19.0, env.WaterTemperature)
	assert.Len(t, rep.calls, 1)
}

func TestAllNominal(t *testing.T) {
	air := NewAir(&fakeAir{temps: []float64{nan}, hums: []float64{40}}, 2*time.Second, &MockReporter{})
	water := NewWater(&fakeProbe{readings: []float64{20}}, time.Second, 94*time.Millisecond, &MockReporter{})
	drivers := []Driver{air, water}

	assert.True(t, AllNominal(drivers), "no completed reads yet")
	air.Update(2000, &model.EnvironmentState{})
	assert.False(t, AllNominal(drivers))
}
