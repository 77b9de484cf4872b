package actuation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

type fakeOutput struct {
	on     bool
	writes int
}

func (f *fakeOutput) Set(on bool) {
	f.on = on
	f.writes++
}

type fakeRecorder struct {
	events []string
}

func (f *fakeRecorder) RecordWatering(state model.WateringState, reason string) {
	f.events = append(f.events, string(state)+":"+reason)
}

type fakeListener struct {
	edges []bool
}

func (f *fakeListener) AlarmChanged(active bool) {
	f.edges = append(f.edges, active)
}

func TestWatering_StartStop(t *testing.T) {
	relay, led := &fakeOutput{}, &fakeOutput{}
	rec := &fakeRecorder{}
	w := NewWatering(relay, led, 0)
	w.SetRecorder(rec)

	require.Equal(t, model.Idle, w.State())

	assert.True(t, w.Start(100))
	assert.True(t, relay.on)
	assert.True(t, led.on)
	assert.Equal(t, model.Watering, w.State())

	assert.False(t, w.Start(200), "start while watering is a no-op")
	assert.Equal(t, 1, relay.writes)

	assert.True(t, w.Stop(300, ReasonManual))
	assert.False(t, relay.on)
	assert.False(t, led.on)
	assert.False(t, w.Stop(400, ReasonManual), "stop while idle is a no-op")
	assert.Equal(t, 2, relay.writes)

	assert.Equal(t, []string{"watering:manual", "idle:manual"}, rec.events)
}

func TestWatering_NilLED(t *testing.T) {
	relay := &fakeOutput{}
	w := NewWatering(relay, nil, 0)
	assert.True(t, w.Start(0))
	assert.True(t, w.Stop(1, ReasonManual))
}

func TestWatering_MaxDuration(t *testing.T) {
	relay := &fakeOutput{}
	w := NewWatering(relay, nil, 30*time.Second)

	w.Start(1000)
	assert.False(t, w.CheckSafety(30999))
	assert.True(t, w.Active())
	assert.True(t, w.CheckSafety(31000))
	assert.False(t, w.Active())
	assert.False(t, relay.on)
}

func TestWatering_MaxDurationDisabled(t *testing.T) {
	w := NewWatering(&fakeOutput{}, nil, 0)
	w.Start(0)
	assert.False(t, w.CheckSafety(4_000_000_000))
	assert.True(t, w.Active())
}

func TestAlarmIndicator_WritesOnlyOnChange(t *testing.T) {
	out := &fakeOutput{}
	l := &fakeListener{}
	a := NewAlarmIndicator(out, l)

	assert.True(t, a.Apply(false), "first apply primes the output")
	assert.False(t, a.Apply(false))
	assert.True(t, a.Apply(true))
	assert.False(t, a.Apply(true))
	assert.True(t, a.Apply(false))

	assert.Equal(t, 3, out.writes)
	assert.Equal(t, []bool{true, false}, l.edges, "priming to inactive is not an edge")
}
