package shutdown

import (
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
	"github.com/thatsimonsguy/plant-controller/internal/pinctrl"
)

var (
	mu       sync.Mutex
	pins     []model.GPIOPin
	safeMode bool
	exit     = os.Exit
	setPin   = pinctrl.SetPin
)

// Register records the output pins that must be released on shutdown.
func Register(safe bool, outputs ...model.GPIOPin) {
	mu.Lock()
	defer mu.Unlock()
	safeMode = safe
	pins = append(pins, outputs...)
}

// Release drives every registered output to its inactive level.
func Release() {
	mu.Lock()
	defer mu.Unlock()
	if safeMode {
		return
	}
	for _, pin := range pins {
		drive := "dh"
		if pin.ActiveHigh {
			drive = "dl"
		}
		if err := setPin(pin.Number, "op", "pn", drive); err != nil {
			log.Error().Err(err).Int("pin", pin.Number).Msg("Failed to release output pin")
		}
	}
	log.Info().Int("pins", len(pins)).Msg("Outputs released")
}

func Shutdown() {
	Release()
	exit(0)
}

func ShutdownWithError(err error, msg string) {
	log.Error().Err(err).Msg(msg)
	Release()
	exit(1)
}
