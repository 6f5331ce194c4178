package board

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/analog"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ads1x15"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/domain/sensor"
)

const (
	// joystickSupply is the voltage feeding the joystick potentiometers.
	joystickSupply = 5 * physic.Volt
	// adcSampleRate is the conversion rate asked from the ADS1115.
	adcSampleRate = 128 * physic.Hertz
	// adcChannels is the number of single-ended ADS1115 inputs.
	adcChannels = 4
)

var errInvalidChannel = errors.New("adc channel must be between 0 and 3")

// ADCDoor reads the two joystick axes from an ADS1115 and scales them to 0..4095.
type ADCDoor struct {
	dev *ads1x15.Dev
	x   analog.PinADC
	y   analog.PinADC
}

// NewADCDoor opens the ADS1115 on bus.
func NewADCDoor(bus i2c.Bus, cfg config.I2C) (*ADCDoor, error) {
	dev, err := ads1x15.NewADS1115(bus, &ads1x15.Opts{I2cAddress: cfg.ADCAddress})
	if err != nil {
		return nil, fmt.Errorf("open ads1115 at %#x: %w", cfg.ADCAddress, err)
	}

	x, err := channelPin(dev, cfg.AxisXChannel)
	if err != nil {
		return nil, errors.Join(err, dev.Halt())
	}

	y, err := channelPin(dev, cfg.AxisYChannel)
	if err != nil {
		return nil, errors.Join(err, x.Halt(), dev.Halt())
	}

	return &ADCDoor{dev: dev, x: x, y: y}, nil
}

func channelPin(dev *ads1x15.Dev, channel int) (analog.PinADC, error) {
	if channel < 0 || channel >= adcChannels {
		return nil, fmt.Errorf("channel %d: %w", channel, errInvalidChannel)
	}

	p, err := dev.PinForChannel(ads1x15.Channel0+ads1x15.Channel(channel), joystickSupply, adcSampleRate, ads1x15.SaveEnergy)
	if err != nil {
		return nil, fmt.Errorf("open adc channel %d: %w", channel, err)
	}

	return p, nil
}

// Sample reads both axes.
func (d *ADCDoor) Sample() (sensor.DoorPositionSample, error) {
	x, err := readScaled(d.x)
	if err != nil {
		return sensor.DoorPositionSample{}, fmt.Errorf("read x axis: %w", err)
	}

	y, err := readScaled(d.y)
	if err != nil {
		return sensor.DoorPositionSample{}, fmt.Errorf("read y axis: %w", err)
	}

	return sensor.DoorPositionSample{AxisX: x, AxisY: y}, nil
}

// Close halts the ADC.
func (d *ADCDoor) Close() error {
	return d.dev.Halt()
}

// readScaled maps the raw range of p onto the 12-bit scale of the door window.
func readScaled(p analog.PinADC) (uint16, error) {
	sample, err := p.Read()
	if err != nil {
		return 0, err
	}

	_, top := p.Range()

	return Scale(sample.Raw, top.Raw), nil
}

// Scale maps raw in [0, top] onto [0, sensor.MaxRawAxis], clamping out-of-range values.
func Scale(raw, top int32) uint16 {
	switch {
	case top <= 0 || raw <= 0:
		return 0
	case raw >= top:
		return sensor.MaxRawAxis
	}

	return uint16(int64(raw) * sensor.MaxRawAxis / int64(top)) //nolint:gosec // Bounded by MaxRawAxis.
}
