package gpio

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/pinctrl"
	"github.com/thatsimonsguy/plant-controller/system/shutdown"
)

var safeMode bool

func pinctrlWrite(pin int, high bool) error {
	drive := "dl"
	if high {
		drive = "dh"
	}
	return pinctrl.SetPin(pin, "op", "pn", drive)
}

var (
	writeLevel = pinctrlWrite
	readLevel  = pinctrl.ReadLevel
)

// MockGPIO replaces the pinctrl backend. Tests must call ResetGPIO afterwards.
func MockGPIO(set func(pin int, high bool), read func(pin int) bool) {
	writeLevel = func(pin int, high bool) error {
		set(pin, high)
		return nil
	}
	readLevel = func(pin int) (bool, error) {
		return read(pin), nil
	}
}

func ResetGPIO() {
	writeLevel = pinctrlWrite
	readLevel = pinctrl.ReadLevel
	safeMode = false
}

func SetSafeMode(enabled bool) {
	safeMode = enabled
}

var Activate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}
	if err := writeLevel(pin.Number, pin.ActiveHigh); err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to activate pin %d", pin.Number))
	}
}

var Deactivate = func(pin model.GPIOPin) {
	if safeMode {
		return
	}
	if err := writeLevel(pin.Number, !pin.ActiveHigh); err != nil {
		shutdown.ShutdownWithError(err, fmt.Sprintf("Failed to deactivate pin %d", pin.Number))
	}
}

var CurrentlyActive = func(pin model.GPIOPin) (bool, error) {
	level, err := readLevel(pin.Number)
	if err != nil {
		return false, err
	}
	return level == pin.ActiveHigh, nil
}

// Output is a named digital output such as the watering relay or an LED.
type Output struct {
	Name string
	Pin  model.GPIOPin
}

func (o Output) Set(on bool) {
	if on {
		Activate(o.Pin)
	} else {
		Deactivate(o.Pin)
	}
	log.Debug().Str("output", o.Name).Int("pin", o.Pin.Number).Bool("on", on).Msg("Output set")
}

// ValidateStartupPins refuses to start when any output is already active, which
// would mean the relay energised before the controller took ownership.
func ValidateStartupPins(outputs []Output) error {
	for _, o := range outputs {
		active, err := CurrentlyActive(o.Pin)
		if err != nil {
			return fmt.Errorf("failed to read pin level for %s (GPIO %d): %w", o.Name, o.Pin.Number, err)
		}
		if active {
			return fmt.Errorf("pin %d (%s) is active at startup", o.Pin.Number, o.Name)
		}
	}
	return nil
}
