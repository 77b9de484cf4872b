package display

import (
	"fmt"
	"time"

	"tinygo.org/x/drivers"
)

// PCF8574 backpack wiring: P0=RS, P1=RW, P2=EN, P3=backlight, P4..P7=D4..D7.
const (
	bitRS        = 0x01
	bitEN        = 0x04
	bitBacklight = 0x08

	cmdClear       = 0x01
	cmdEntryMode   = 0x06
	cmdDisplayOn   = 0x0C
	cmdFunction4x2 = 0x28
	cmdSetCGRAM    = 0x40
	cmdSetDDRAM    = 0x80

	DefaultAddress = 0x27
	Columns        = 16
	Rows           = 2
)

var rowOffsets = [Rows]byte{0x00, 0x40}

var sleep = time.Sleep

// LCD is a 16x2 HD44780 behind a PCF8574 I2C expander, driven in 4-bit mode.
type LCD struct {
	bus       drivers.I2C
	addr      uint16
	backlight byte
}

func NewLCD(bus drivers.I2C, addr uint16) (*LCD, error) {
	if addr == 0 {
		addr = DefaultAddress
	}
	l := &LCD{bus: bus, addr: addr, backlight: bitBacklight}

	sleep(50 * time.Millisecond)
	for _, n := range []byte{0x30, 0x30, 0x30, 0x20} {
		if err := l.nibble(n, 0); err != nil {
			return nil, fmt.Errorf("lcd init at 0x%02x: %w", addr, err)
		}
		sleep(5 * time.Millisecond)
	}
	for _, c := range []byte{cmdFunction4x2, cmdDisplayOn, cmdClear, cmdEntryMode} {
		if err := l.command(c); err != nil {
			return nil, fmt.Errorf("lcd init at 0x%02x: %w", addr, err)
		}
	}
	sleep(2 * time.Millisecond)
	return l, nil
}

// CreateChar uploads an 8-row glyph into CGRAM slot (0..7).
func (l *LCD) CreateChar(slot byte, pattern [8]byte) error {
	if err := l.command(cmdSetCGRAM | (slot&0x07)<<3); err != nil {
		return err
	}
	for _, row := range pattern {
		if err := l.data(row); err != nil {
			return err
		}
	}
	return nil
}

func (l *LCD) SetCursor(col, row int) error {
	if row < 0 || row >= Rows {
		row = 0
	}
	return l.command(cmdSetDDRAM | (byte(col) + rowOffsets[row]))
}

func (l *LCD) Write(p []byte) (int, error) {
	for i, b := range p {
		if err := l.data(b); err != nil {
			return i, err
		}
	}
	return len(p), nil
}

func (l *LCD) Clear() error {
	if err := l.command(cmdClear); err != nil {
		return err
	}
	sleep(2 * time.Millisecond)
	return nil
}

func (l *LCD) command(b byte) error {
	return l.send(b, 0)
}

func (l *LCD) data(b byte) error {
	return l.send(b, bitRS)
}

func (l *LCD) send(b, mode byte) error {
	if err := l.nibble(b&0xF0, mode); err != nil {
		return err
	}
	return l.nibble((b<<4)&0xF0, mode)
}

func (l *LCD) nibble(n, mode byte) error {
	v := n | mode | l.backlight
	return l.bus.Tx(l.addr, []byte{v | bitEN, v}, nil)
}
