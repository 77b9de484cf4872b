package command

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

const (
	DefaultBaudRate    = 9600
	DefaultReadTimeout = time.Millisecond
)

// SerialLink is the HC-05 UART. Reads use a one-byte buffer and a short
// timeout so each poll consumes at most one pending byte.
type SerialLink struct {
	port serial.Port
	buf  [1]byte
}

func OpenSerial(name string, baud int) (*SerialLink, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	port, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}
	if err := port.SetReadTimeout(DefaultReadTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}
	return &SerialLink{port: port}, nil
}

func (s *SerialLink) TryReadByte() (byte, bool, error) {
	n, err := s.port.Read(s.buf[:])
	if err != nil {
		return 0, false, err
	}
	if n == 0 {
		return 0, false, nil
	}
	return s.buf[0], true, nil
}

func (s *SerialLink) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialLink) Close() error {
	return s.port.Close()
}
