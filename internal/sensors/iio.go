package sensors

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

// IIOHumiture reads a DHT11 exposed by the kernel dht11 overlay as an IIO
// device. The driver returns EIO or ETIMEDOUT on a bad transfer.
type IIOHumiture struct {
	dir string
}

func NewIIOHumiture(dir string) *IIOHumiture {
	return &IIOHumiture{dir: dir}
}

func (h *IIOHumiture) ReadTemperature() float64 {
	return h.readMilli("in_temp_input")
}

func (h *IIOHumiture) ReadHumidity() float64 {
	return h.readMilli("in_humidityrelative_input")
}

func (h *IIOHumiture) readMilli(name string) float64 {
	data, err := os.ReadFile(filepath.Join(h.dir, name))
	if err != nil {
		log.Debug().Err(err).Str("attr", name).Msg("IIO read failed")
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		log.Debug().Err(err).Str("attr", name).Msg("IIO value malformed")
		return math.NaN()
	}
	return v / 1000.0
}
