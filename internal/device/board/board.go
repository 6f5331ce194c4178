package board

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/device/button"
	"github.com/oshokin/smart-home/internal/device/buzzer"
	"github.com/oshokin/smart-home/internal/device/ranging"
	"github.com/oshokin/smart-home/internal/domain/sensor"
	"github.com/oshokin/smart-home/internal/logger"
)

// ErrPinNotFound is returned when a configured pin name is unknown to the host.
var ErrPinNotFound = errors.New("pin not found")

// Ranger measures a distance.
type Ranger interface {
	Name() string
	Measure(timeout time.Duration) (sensor.RangingResult, error)
}

// DoorSensor samples the door-position joystick.
type DoorSensor interface {
	Sample() (sensor.DoorPositionSample, error)
}

// LightSensor reports ambient darkness.
type LightSensor interface {
	Dark() bool
}

// Thermometer reads the board temperature.
type Thermometer interface {
	Celsius() (float64, error)
}

// Board groups every device of the house.
type Board struct {
	// Front is the proximity sensor driving the security light.
	Front Ranger
	// Zone is the alarm-zone sensor.
	Zone Ranger
	// Door is the door-position proxy.
	Door DoorSensor
	// Light is the light-dependent resistor.
	Light LightSensor
	// Outputs drives lights and LEDs.
	Outputs *Outputs
	// Buzzer is the alarm buzzer pin.
	Buzzer buzzer.Pin
	// Button is the arm/disarm push button pin.
	Button button.Pin
	// Thermometer reads the CPU temperature.
	Thermometer Thermometer
	// Bus is the I²C bus for the OLED, nil when there is none.
	Bus i2c.Bus
	// Simulation is set on simulated boards.
	Simulation *Simulation

	closers []io.Closer
}

// Open initializes periph.io and binds every configured device.
func Open(ctx context.Context, cfg *config.Config) (*Board, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("initialize host: %w", err)
	}

	logger.DebugKV(ctx, "Host drivers loaded", "loaded", len(state.Loaded), "failed", len(state.Failed))

	b := new(Board)

	if err = b.bindPins(cfg); err != nil {
		return nil, err
	}

	bus, err := i2creg.Open(cfg.I2C.Bus)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", cfg.I2C.Bus, err)
	}

	b.Bus = bus
	b.closers = append(b.closers, bus)

	door, err := NewADCDoor(bus, cfg.I2C)
	if err != nil {
		_ = b.Close()

		return nil, err
	}

	b.Door = door
	b.closers = append(b.closers, door)

	b.Thermometer = newSysfsThermometer()

	logger.InfoKV(ctx, "Board ready",
		"i2c_bus", bus.String(),
		"front", cfg.Pins.FrontTrigger+"/"+cfg.Pins.FrontEcho,
		"zone", cfg.Pins.AlarmTrigger+"/"+cfg.Pins.AlarmEcho)

	return b, nil
}

// Close releases the I²C bus and the ADC.
func (b *Board) Close() error {
	var errs []error

	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}

	b.closers = nil

	return errors.Join(errs...)
}

func (b *Board) bindPins(cfg *config.Config) error {
	pins := cfg.Pins

	frontTrigger, err := outputPin(pins.FrontTrigger)
	if err != nil {
		return err
	}

	frontEcho, err := inputPin(pins.FrontEcho, gpio.PullDown)
	if err != nil {
		return err
	}

	zoneTrigger, err := outputPin(pins.AlarmTrigger)
	if err != nil {
		return err
	}

	zoneEcho, err := inputPin(pins.AlarmEcho, gpio.PullDown)
	if err != nil {
		return err
	}

	light, err := inputPin(pins.LightSensor, gpio.Float)
	if err != nil {
		return err
	}

	buzzerPin, err := outputPin(pins.Buzzer)
	if err != nil {
		return err
	}

	buttonPin, err := lookup(pins.Button)
	if err != nil {
		return err
	}

	outputs, err := bindOutputs(pins, lookupOut)
	if err != nil {
		return err
	}

	b.Front = ranging.New("front", frontTrigger, frontEcho)
	b.Zone = ranging.New("zone", zoneTrigger, zoneEcho)
	b.Light = &LDR{pin: light}
	b.Buzzer = buzzerPin
	b.Button = buttonPin
	b.Outputs = outputs

	return nil
}

func lookup(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("%q: %w", name, ErrPinNotFound)
	}

	return p, nil
}

func lookupOut(name string) (gpio.PinOut, error) {
	return outputPin(name)
}

func outputPin(name string) (gpio.PinIO, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}

	if err = p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("configure %s as output: %w", name, err)
	}

	return p, nil
}

func inputPin(name string, pull gpio.Pull) (gpio.PinIO, error) {
	p, err := lookup(name)
	if err != nil {
		return nil, err
	}

	if err = p.In(pull, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("configure %s as input: %w", name, err)
	}

	return p, nil
}

// LDR is a digital light sensor module: its output is low in the dark.
type LDR struct {
	pin gpio.PinIn
}

// Dark reports whether the sensor reads dark.
func (l *LDR) Dark() bool {
	return l.pin.Read() == gpio.Low
}
