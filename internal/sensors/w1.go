package sensors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const W1Devices = "/sys/bus/w1/devices"

// W1Probe reads a DS18B20 through the Linux w1_therm sysfs interface. The
// conversion is started with a bulk trigger so the later read does not block.
type W1Probe struct {
	devicePath string
	bulkPath   string
}

func NewW1Probe(root, device string) *W1Probe {
	return &W1Probe{
		devicePath: filepath.Join(root, device),
		bulkPath:   filepath.Join(root, "w1_bus_master1", "therm_bulk_read"),
	}
}

// RequestConversion is a no-op when the bus has no therm_bulk_read; the
// w1_slave read then converts on its own.
func (p *W1Probe) RequestConversion() error {
	if err := os.WriteFile(p.bulkPath, []byte("trigger\n"), 0644); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("trigger conversion: %w", err)
	}
	return nil
}

// SetResolution writes the conversion resolution (9..12 bits).
func (p *W1Probe) SetResolution(bits int) error {
	if err := os.WriteFile(filepath.Join(p.devicePath, "resolution"), []byte(strconv.Itoa(bits)), 0644); err != nil {
		return fmt.Errorf("set resolution: %w", err)
	}
	return nil
}

// ReadCelsius returns DisconnectedC when the device is gone or the CRC fails.
func (p *W1Probe) ReadCelsius() (float64, error) {
	data, err := os.ReadFile(filepath.Join(p.devicePath, "temperature"))
	if err == nil {
		milli, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return DisconnectedC, fmt.Errorf("parse temperature: %w", err)
		}
		return float64(milli) / 1000.0, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return DisconnectedC, fmt.Errorf("read temperature: %w", err)
	}

	// older kernels only expose w1_slave
	data, err = os.ReadFile(filepath.Join(p.devicePath, "w1_slave"))
	if errors.Is(err, fs.ErrNotExist) {
		return DisconnectedC, nil
	}
	if err != nil {
		return DisconnectedC, fmt.Errorf("read w1_slave: %w", err)
	}
	return parseW1Slave(string(data))
}

func parseW1Slave(data string) (float64, error) {
	lines := strings.Split(data, "\n")
	if len(lines) < 2 || !strings.Contains(lines[1], "t=") {
		return DisconnectedC, fmt.Errorf("temperature data missing or malformed")
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return DisconnectedC, nil
	}

	parts := strings.Split(lines[1], "t=")
	if len(parts) != 2 {
		return DisconnectedC, fmt.Errorf("could not parse temperature line")
	}

	tempMilliC, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return DisconnectedC, fmt.Errorf("failed to convert temperature to int: %w", err)
	}
	return float64(tempMilliC) / 1000.0, nil
}

// DiscoverW1Device returns the first DS18B20 (family 28) under root.
func DiscoverW1Device(root string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(root, "28-*"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no DS18B20 found under %s", root)
	}
	return filepath.Base(matches[0]), nil
}
