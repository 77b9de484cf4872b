package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"
)

// ADS1115 samples one single-ended channel of an ADS1115 for the moisture probe.
type ADS1115 struct {
	pin ads1x15.PinADC
}

func NewADS1115(bus i2c.Bus, addr uint16, channel int) (*ADS1115, error) {
	opts := ads1x15.DefaultOpts
	if addr != 0 {
		opts.I2cAddress = addr
	}
	dev, err := ads1x15.NewADS1115(bus, &opts)
	if err != nil {
		return nil, fmt.Errorf("open ads1115: %w", err)
	}

	var ch ads1x15.Channel
	switch channel {
	case 0:
		ch = ads1x15.Channel0
	case 1:
		ch = ads1x15.Channel1
	case 2:
		ch = ads1x15.Channel2
	case 3:
		ch = ads1x15.Channel3
	default:
		return nil, fmt.Errorf("ads1115 channel %d out of range", channel)
	}

	pin, err := dev.PinForChannel(ch, 5*physic.Volt, 860*physic.Hertz, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("configure ads1115 channel %d: %w", channel, err)
	}
	return &ADS1115{pin: pin}, nil
}

func (a *ADS1115) ReadRaw() (int, error) {
	s, err := a.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("ads1115 read: %w", err)
	}
	return int(s.Raw), nil
}

func (a *ADS1115) Close() error {
	return a.pin.Halt()
}
