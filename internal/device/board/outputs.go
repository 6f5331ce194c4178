package board

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/domain/home"
)

// Outputs mirrors a snapshot onto the light and LED pins.
type Outputs struct {
	// rooms are the room light pins indexed by home.Room.
	rooms [home.RoomCount]gpio.PinOut
	// security are the red, green and blue pins of the security light.
	security []gpio.PinOut
	// status is the status indicator LED.
	status gpio.PinOut
}

func bindOutputs(pins config.Pins, lookup func(string) (gpio.PinOut, error)) (*Outputs, error) {
	if len(pins.Rooms) != int(home.RoomCount) {
		return nil, fmt.Errorf("bind room lights: got %d pins, want %d", len(pins.Rooms), home.RoomCount)
	}

	o := new(Outputs)

	for i, name := range pins.Rooms {
		p, err := lookup(name)
		if err != nil {
			return nil, fmt.Errorf("bind %s light: %w", home.Room(i), err)
		}

		o.rooms[i] = p
	}

	for _, name := range pins.SecurityRGB {
		p, err := lookup(name)
		if err != nil {
			return nil, fmt.Errorf("bind security light: %w", err)
		}

		o.security = append(o.security, p)
	}

	status, err := lookup(pins.StatusLED)
	if err != nil {
		return nil, fmt.Errorf("bind status led: %w", err)
	}

	o.status = status

	return o, nil
}

// Apply writes every output from snap. All pins are written even when some fail.
func (o *Outputs) Apply(snap home.Snapshot) error {
	var errs []error

	write := func(p gpio.PinOut, on bool) {
		if err := p.Out(gpio.Level(on)); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", p, err))
		}
	}

	for room, p := range o.rooms {
		write(p, snap.Lights[room])
	}

	// All three channels together give a white light.
	for _, p := range o.security {
		write(p, snap.SecurityLight)
	}

	write(o.status, snap.StatusLED)

	return errors.Join(errs...)
}
