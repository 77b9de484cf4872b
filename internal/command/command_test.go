package command

import (
	"bytes"
	"errors"
	"testing"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"github.com/thatsimonsguy/plant-controller/internal/actuation"
	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/schedule"
)

type queueSource struct {
	pending []byte
	err     error
}

func (q *queueSource) TryReadByte() (byte, bool, error) {
	if q.err != nil {
		return 0, false, q.err
	}
	if len(q.pending) == 0 {
		return 0, false, nil
	}
	b := q.pending[0]
	q.pending = q.pending[1:]
	return b, true, nil
}

type fakeOutput struct{ on bool }

func (f *fakeOutput) Set(on bool) { f.on = on }

func TestDecode(t *testing.T) {
	assert.Equal(t, model.StartWatering, Decode('W'))
	assert.Equal(t, model.StartWatering, Decode('w'))
	assert.Equal(t, model.StopWatering, Decode('S'))
	assert.Equal(t, model.StopWatering, Decode('s'))
	assert.Equal(t, model.Unrecognized, Decode('x'))
	assert.Equal(t, model.Unrecognized, Decode('\n'))
}

func TestHandler_OneBytePerPoll(t *testing.T) {
	relay := &fakeOutput{}
	w := actuation.NewWatering(relay, nil, 0)
	src := &queueSource{pending: []byte("wS")}
	var echo bytes.Buffer
	h := NewHandler(src, &echo, w)

	cmd, ok := h.Poll(10)
	assert.True(t, ok)
	assert.Equal(t, model.StartWatering, cmd)
	assert.True(t, relay.on)
	assert.Equal(t, model.Watering, w.State())
	assert.Equal(t, 1, len(src.pending), "only one byte consumed per poll")

	cmd, ok = h.Poll(20)
	assert.True(t, ok)
	assert.Equal(t, model.StopWatering, cmd)
	assert.False(t, relay.on)

	_, ok = h.Poll(30)
	assert.False(t, ok)

	assert.Equal(t, "Manual watering...\r\nWatering complete\r\n", echo.String())
}

func TestHandler_UnknownCommandLeavesState(t *testing.T) {
	relay := &fakeOutput{}
	w := actuation.NewWatering(relay, nil, 0)
	var echo bytes.Buffer
	h := NewHandler(&queueSource{pending: []byte("x")}, &echo, w)

	cmd, ok := h.Poll(0)
	assert.True(t, ok)
	assert.Equal(t, model.Unrecognized, cmd)
	assert.Equal(t, model.Idle, w.State())
	assert.False(t, relay.on)
	assert.Equal(t, "Unknown command\r\n", echo.String())
}

func TestHandler_ReadError(t *testing.T) {
	w := actuation.NewWatering(&fakeOutput{}, nil, 0)
	var echo bytes.Buffer
	h := NewHandler(&queueSource{err: errors.New("port gone")}, &echo, w)

	_, ok := h.Poll(0)
	assert.False(t, ok)
	assert.Empty(t, echo.String())
}

func TestHandler_ReadErrorLoggedOncePerEpisode(t *testing.T) {
	var logs bytes.Buffer
	saved := log.Logger
	log.Logger = zerolog.New(&logs)
	defer func() { log.Logger = saved }()

	src := &queueSource{err: errors.New("port gone")}
	h := NewHandler(src, &bytes.Buffer{}, actuation.NewWatering(&fakeOutput{}, nil, 0))

	for now := 0; now < 500; now += 50 {
		h.Poll(schedule.Millis(now))
	}
	assert.Equal(t, 1, strings.Count(logs.String(), "Command channel read failed"))

	src.err = nil
	h.Poll(500)
	assert.Equal(t, 1, strings.Count(logs.String(), "Command channel recovered"))

	src.err = errors.New("port gone again")
	h.Poll(550)
	h.Poll(600)
	assert.Equal(t, 2, strings.Count(logs.String(), "Command channel read failed"), "a new episode is reported again")
}

func TestFormatStatus(t *testing.T) {
	ts := time.Date(2025, 3, 7, 14, 5, 9, 0, time.UTC)
	env := model.EnvironmentState{MoisturePercent: 42, AirTemp: 23.46, AirHumidity: 55.04, WaterTemperature: 19.96}

	want := "=== Plant Status ===\r\n" +
		"Date: 2025-03-07 | Timestamp: 14:05:09 | Moisture: 42% | Air Temp: 23.5°C | Air Humidity: 55.0% | Water Temp: 20.0°C\r\n" +
		"====================\r\n"
	assert.Equal(t, want, FormatStatus(ts, env))
}

func TestStatusReporter(t *testing.T) {
	var out bytes.Buffer
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	r := NewStatusReporter(&out, func() time.Time { return ts })
	r.Send(model.EnvironmentState{})
	assert.Contains(t, out.String(), "Date: 2025-01-01 | Timestamp: 00:00:00 | Moisture: 0%")
}
