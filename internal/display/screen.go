package display

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/thatsimonsguy/plant-controller/internal/model"
)

const dropletSlot = 0

var Droplet = [8]byte{
	0b00100,
	0b00100,
	0b01010,
	0b01010,
	0b10001,
	0b10001,
	0b01110,
	0b00000,
}

// Glyphs is the minimal surface Screen needs from the LCD.
type Glyphs interface {
	CreateChar(slot byte, pattern [8]byte) error
	SetCursor(col, row int) error
	Write(p []byte) (int, error)
}

type Screen struct {
	lcd  Glyphs
	last [Rows]string
}

func NewScreen(lcd Glyphs) (*Screen, error) {
	if err := lcd.CreateChar(dropletSlot, Droplet); err != nil {
		return nil, fmt.Errorf("upload droplet glyph: %w", err)
	}
	return &Screen{lcd: lcd}, nil
}

// Frame renders env as the two fixed-width LCD lines.
func Frame(env model.EnvironmentState) [Rows]string {
	top := fmt.Sprintf("M:%d%% W:%.1fC", env.MoisturePercent, env.WaterTemperature)
	bottom := fmt.Sprintf("T:%.1fC H:%.0f%%", env.AirTemp, env.AirHumidity)
	if env.WateringActive {
		bottom += string(rune(dropletSlot))
	}
	if env.AlarmActive {
		bottom += "!"
	}
	return [Rows]string{pad(top), pad(bottom)}
}

// Refresh rewrites only the lines that changed since the previous frame.
func (s *Screen) Refresh(env model.EnvironmentState) {
	frame := Frame(env)
	for row, line := range frame {
		if line == s.last[row] {
			continue
		}
		if err := s.lcd.SetCursor(0, row); err != nil {
			log.Warn().Err(err).Int("row", row).Msg("LCD write failed")
			return
		}
		if _, err := s.lcd.Write([]byte(line)); err != nil {
			log.Warn().Err(err).Int("row", row).Msg("LCD write failed")
			return
		}
		s.last[row] = line
	}
}

func pad(s string) string {
	if len(s) >= Columns {
		return s[:Columns]
	}
	return fmt.Sprintf("%-*s", Columns, s)
}
