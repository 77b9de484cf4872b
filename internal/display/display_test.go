package display

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

// fakeBus decodes the PCF8574 nibble stream back into HD44780 bytes.
type fakeBus struct {
	addr     uint16
	nibbles  []byte
	commands []byte
	data     []byte
	fail     bool
}

func (f *fakeBus) Tx(addr uint16, w, r []byte) error {
	if f.fail {
		return errors.New("nack")
	}
	f.addr = addr
	for _, b := range w {
		if b&bitEN == 0 {
			continue
		}
		f.nibbles = append(f.nibbles, b)
		if len(f.nibbles) == 2 {
			hi, lo := f.nibbles[0], f.nibbles[1]
			v := hi&0xF0 | lo>>4
			if hi&bitRS != 0 {
				f.data = append(f.data, v)
			} else {
				f.commands = append(f.commands, v)
			}
			f.nibbles = f.nibbles[:0]
		}
	}
	return nil
}

func (f *fakeBus) reset() {
	f.nibbles, f.commands, f.data = nil, nil, nil
}

func newTestLCD(t *testing.T) (*LCD, *fakeBus) {
	t.Helper()
	sleep = func(time.Duration) {}
	t.Cleanup(func() { sleep = time.Sleep })

	bus := &fakeBus{}
	// init sends four bare nibbles before byte-mode commands start
	lcd, err := NewLCD(bus, 0)
	require.NoError(t, err)
	bus.reset()
	return lcd, bus
}

func TestNewLCD_DefaultAddress(t *testing.T) {
	_, bus := newTestLCD(t)
	assert.Equal(t, uint16(DefaultAddress), bus.addr)
}

func TestNewLCD_BusError(t *testing.T) {
	sleep = func(time.Duration) {}
	defer func() { sleep = time.Sleep }()

	_, err := NewLCD(&fakeBus{fail: true}, 0x3f)
	assert.Error(t, err)
}

func TestNewScreen_UploadsDroplet(t *testing.T) {
	lcd, bus := newTestLCD(t)
	_, err := NewScreen(lcd)
	require.NoError(t, err)

	assert.Equal(t, []byte{cmdSetCGRAM}, bus.commands)
	assert.Equal(t, Droplet[:], bus.data)
}

func TestFrame(t *testing.T) {
	env := model.EnvironmentState{MoisturePercent: 42, WaterTemperature: 20.04, AirTemp: 23.46, AirHumidity: 55.2}
	f := Frame(env)
	assert.Equal(t, "M:42% W:20.0C   ", f[0])
	assert.Equal(t, "T:23.5C H:55%   ", f[1])

	env.WateringActive = true
	env.AlarmActive = true
	f = Frame(env)
	assert.Equal(t, "T:23.5C H:55%\x00! ", f[1])
}

func TestFrame_WidestValuesFit(t *testing.T) {
	env := model.EnvironmentState{MoisturePercent: 100, WaterTemperature: 25.5, AirTemp: 35.5, AirHumidity: 100,
		WateringActive: true, AlarmActive: true}
	f := Frame(env)
	assert.Equal(t, "M:100% W:25.5C  ", f[0])
	assert.Equal(t, "T:35.5C H:100%\x00!", f[1])
	assert.Len(t, f[0], Columns)
	assert.Len(t, f[1], Columns)
}

func TestScreen_SkipsUnchangedLines(t *testing.T) {
	lcd, bus := newTestLCD(t)
	s, err := NewScreen(lcd)
	require.NoError(t, err)
	bus.reset()

	env := model.EnvironmentState{MoisturePercent: 10, WaterTemperature: 18, AirTemp: 21, AirHumidity: 50}
	s.Refresh(env)
	assert.Equal(t, []byte{cmdSetDDRAM | 0x00, cmdSetDDRAM | 0x40}, bus.commands)
	assert.Equal(t, "M:10% W:18.0C   T:21.0C H:50%   ", string(bus.data))

	bus.reset()
	s.Refresh(env)
	assert.Empty(t, bus.commands)
	assert.Empty(t, bus.data)

	env.AlarmActive = true
	s.Refresh(env)
	assert.Equal(t, []byte{cmdSetDDRAM | 0x40}, bus.commands, "only the status line is rewritten")
}
