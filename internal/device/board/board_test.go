package board

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/domain/sensor"
)

var errTestADC = errors.New("adc busy")

func TestScale(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw, top int32
		want     uint16
	}{
		{raw: 0, top: 32767, want: 0},
		{raw: -12, top: 32767, want: 0},
		{raw: 32767, top: 32767, want: sensor.MaxRawAxis},
		{raw: 40000, top: 32767, want: sensor.MaxRawAxis},
		{raw: 16384, top: 32767, want: 2047},
		{raw: 10, top: 0, want: 0},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, Scale(tc.raw, tc.top), "raw=%d top=%d", tc.raw, tc.top)
	}
}

func TestNewADCDoor_InvalidChannel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		x, y int
	}{
		{name: "x axis", x: 4, y: 1},
		{name: "y axis", x: 0, y: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.I2C{ADCAddress: 0x48, AxisXChannel: tt.x, AxisYChannel: tt.y}

			door, err := NewADCDoor(&i2ctest.Record{}, cfg)

			require.ErrorIs(t, err, errInvalidChannel)
			require.Nil(t, door)
		})
	}
}

func TestLDR_Dark(t *testing.T) {
	t.Parallel()

	pin := &gpiotest.Pin{N: "GPIO16", L: gpio.Low}
	ldr := &LDR{pin: pin}
	require.True(t, ldr.Dark())

	require.NoError(t, pin.Out(gpio.High))
	require.False(t, ldr.Dark())
}

// TestOutputs_Apply checks that every pin mirrors the snapshot.
func TestOutputs_Apply(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	pins := make(map[string]*gpiotest.Pin)

	outputs, err := bindOutputs(cfg.Pins, func(name string) (gpio.PinOut, error) {
		p := &gpiotest.Pin{N: name}
		pins[name] = p

		return p, nil
	})
	require.NoError(t, err)

	var state home.SystemState
	state.Toggle(home.ActionKitchen)
	state.Toggle(home.ActionYard)
	state.Toggle(home.ActionStatusOn)
	state.SecurityLight = true

	require.NoError(t, outputs.Apply(state.Snapshot()))

	for room, name := range cfg.Pins.Rooms {
		want := home.Room(room) == home.Kitchen || home.Room(room) == home.Yard
		require.Equal(t, gpio.Level(want), pins[name].Read(), "room %s", home.Room(room))
	}

	for _, name := range cfg.Pins.SecurityRGB {
		require.Equal(t, gpio.High, pins[name].Read())
	}

	require.Equal(t, gpio.High, pins[cfg.Pins.StatusLED].Read())

	state.SecurityLight = false
	state.Toggle(home.ActionStatusOff)
	require.NoError(t, outputs.Apply(state.Snapshot()))
	require.Equal(t, gpio.Low, pins[cfg.Pins.SecurityRGB[0]].Read())
	require.Equal(t, gpio.Low, pins[cfg.Pins.StatusLED].Read())
}

func TestBindOutputs_MissingPin(t *testing.T) {
	t.Parallel()

	cfg := config.Default()

	_, err := bindOutputs(cfg.Pins, func(name string) (gpio.PinOut, error) {
		if name == cfg.Pins.Rooms[2] {
			return nil, ErrPinNotFound
		}

		return &gpiotest.Pin{N: name}, nil
	})
	require.ErrorIs(t, err, ErrPinNotFound)
	require.Contains(t, err.Error(), "bedroom")

	pins := cfg.Pins
	pins.Rooms = pins.Rooms[:3]

	_, err = bindOutputs(pins, func(name string) (gpio.PinOut, error) {
		return &gpiotest.Pin{N: name}, nil
	})
	require.Error(t, err)
}

// TestSimulated checks the simulated inputs and outputs.
func TestSimulated(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	b := Simulated(cfg)
	sim := b.Simulation

	front, err := b.Front.Measure(time.Millisecond)
	require.NoError(t, err)
	require.Equal(t, sensor.RangingResult{DistanceCm: SimulatedDistanceCm, Valid: true}, front)
	require.Equal(t, "zone", b.Zone.Name())

	sim.SetZone(-1)
	zone, err := b.Zone.Measure(time.Millisecond)
	require.NoError(t, err)
	require.False(t, zone.Valid)

	sim.SetFront(7)
	front, err = b.Front.Measure(time.Millisecond)
	require.NoError(t, err)
	require.True(t, front.Within(15))

	door, err := b.Door.Sample()
	require.NoError(t, err)
	require.Equal(t, sensor.DoorPositionSample{AxisX: SimulatedAxis, AxisY: SimulatedAxis}, door)

	sim.SetDoor(2300, 2000)
	door, err = b.Door.Sample()
	require.NoError(t, err)
	require.Equal(t, uint16(2300), door.AxisX)

	sim.SetDoorError(errTestADC)
	_, err = b.Door.Sample()
	require.ErrorIs(t, err, errTestADC)

	require.False(t, b.Light.Dark())
	sim.SetDark(true)
	require.True(t, b.Light.Dark())

	celsius, err := b.Thermometer.Celsius()
	require.NoError(t, err)
	require.InDelta(t, SimulatedTemperatureC, celsius, 1e-9)

	require.True(t, sim.Press())

	var state home.SystemState
	state.Toggle(home.ActionBedroom)
	require.NoError(t, b.Outputs.Apply(state.Snapshot()))
	require.Equal(t, gpio.High, sim.Light(cfg, home.Bedroom))
	require.Equal(t, gpio.Low, sim.Light(cfg, home.LivingRoom))

	_, ok := sim.Pin("GPIO99")
	require.False(t, ok)

	require.NoError(t, b.Close())
}

func TestSimulated_Buzzer(t *testing.T) {
	t.Parallel()

	sim := Simulated(config.Default()).Simulation

	require.NoError(t, sim.buzzer.PWM(gpio.DutyHalf, 0))
	require.True(t, sim.Buzzing())
	require.NoError(t, sim.buzzer.Out(gpio.Low))
	require.False(t, sim.Buzzing())
	require.NoError(t, sim.buzzer.PWM(gpio.DutyHalf, 0))
	require.Equal(t, 2, sim.Tones())
}
