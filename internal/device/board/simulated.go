package board

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/domain/sensor"
)

// Defaults of a simulated house: an empty room, a closed door, daylight.
const (
	SimulatedDistanceCm   = 100
	SimulatedAxis         = 2048
	SimulatedTemperatureC = 41.25

	buttonEdgeBuffer = 8
)

// Simulation holds the inputs of a simulated board. It is safe for concurrent use.
type Simulation struct {
	mu sync.Mutex

	front   sensor.RangingResult
	zone    sensor.RangingResult
	door    sensor.DoorPositionSample
	doorErr error
	celsius float64

	light  *gpiotest.Pin
	button *gpiotest.Pin
	buzzer *simBuzzer
	pins   map[string]*gpiotest.Pin
}

// Simulated builds a board over fake pins named after cfg.
func Simulated(cfg *config.Config) *Board {
	sim := &Simulation{
		front:   sensor.RangingResult{DistanceCm: SimulatedDistanceCm, Valid: true},
		zone:    sensor.RangingResult{DistanceCm: SimulatedDistanceCm, Valid: true},
		door:    sensor.DoorPositionSample{AxisX: SimulatedAxis, AxisY: SimulatedAxis},
		celsius: SimulatedTemperatureC,
		light:   &gpiotest.Pin{N: cfg.Pins.LightSensor, L: gpio.High},
		button:  &gpiotest.Pin{N: cfg.Pins.Button, EdgesChan: make(chan gpio.Level, buttonEdgeBuffer)},
		buzzer:  new(simBuzzer),
		pins:    make(map[string]*gpiotest.Pin),
	}

	// Simulated pins always exist, so binding cannot fail.
	outputs, _ := bindOutputs(cfg.Pins, func(name string) (gpio.PinOut, error) {
		p := &gpiotest.Pin{N: name}
		sim.pins[name] = p

		return p, nil
	})

	return &Board{
		Front:       &simRanger{name: "front", sim: sim, zone: false},
		Zone:        &simRanger{name: "zone", sim: sim, zone: true},
		Door:        (*simDoor)(sim),
		Light:       &LDR{pin: sim.light},
		Outputs:     outputs,
		Buzzer:      sim.buzzer,
		Button:      sim.button,
		Thermometer: (*simThermometer)(sim),
		Simulation:  sim,
	}
}

// SetFront sets the front sensor reading; a negative distance means no echo.
func (s *Simulation) SetFront(cm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.front = simulatedReading(cm)
}

// SetZone sets the alarm-zone sensor reading; a negative distance means no echo.
func (s *Simulation) SetZone(cm float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.zone = simulatedReading(cm)
}

// SetDoor sets the joystick axes.
func (s *Simulation) SetDoor(x, y uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.door = sensor.DoorPositionSample{AxisX: x, AxisY: y}
}

// SetDoorError makes door sampling fail with err until cleared with nil.
func (s *Simulation) SetDoorError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doorErr = err
}

// SetDark sets the light sensor.
func (s *Simulation) SetDark(dark bool) {
	_ = s.light.Out(gpio.Level(!dark))
}

// SetTemperature sets the thermometer reading.
func (s *Simulation) SetTemperature(celsius float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.celsius = celsius
}

// Press queues a falling edge on the button pin.
// It returns false when too many edges are already queued.
func (s *Simulation) Press() bool {
	select {
	case s.button.EdgesChan <- gpio.Low:
		return true
	default:
		return false
	}
}

// Pin returns the level of a simulated output pin by name.
func (s *Simulation) Pin(name string) (gpio.Level, bool) {
	p, ok := s.pins[name]
	if !ok {
		return gpio.Low, false
	}

	return p.Read(), true
}

// Light returns the level of the light of room.
func (s *Simulation) Light(cfg *config.Config, room home.Room) gpio.Level {
	level, _ := s.Pin(cfg.Pins.Rooms[room])

	return level
}

// Buzzing reports whether the buzzer is sounding.
func (s *Simulation) Buzzing() bool {
	s.buzzer.mu.Lock()
	defer s.buzzer.mu.Unlock()

	return s.buzzer.on
}

// Tones returns how many tone bursts the buzzer has played.
func (s *Simulation) Tones() int {
	s.buzzer.mu.Lock()
	defer s.buzzer.mu.Unlock()

	return s.buzzer.tones
}

func simulatedReading(cm float64) sensor.RangingResult {
	if cm < 0 {
		return sensor.Invalid()
	}

	return sensor.RangingResult{DistanceCm: cm, Valid: true}
}

type simRanger struct {
	name string
	sim  *Simulation
	zone bool
}

func (r *simRanger) Name() string {
	return r.name
}

func (r *simRanger) Measure(time.Duration) (sensor.RangingResult, error) {
	r.sim.mu.Lock()
	defer r.sim.mu.Unlock()

	if r.zone {
		return r.sim.zone, nil
	}

	return r.sim.front, nil
}

type simDoor Simulation

func (d *simDoor) Sample() (sensor.DoorPositionSample, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.doorErr != nil {
		return sensor.DoorPositionSample{}, fmt.Errorf("sample door: %w", d.doorErr)
	}

	return d.door, nil
}

type simThermometer Simulation

func (t *simThermometer) Celsius() (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.celsius, nil
}

// simBuzzer counts tone bursts.
type simBuzzer struct {
	mu    sync.Mutex
	on    bool
	tones int
}

func (b *simBuzzer) Out(l gpio.Level) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.on = bool(l)

	return nil
}

func (b *simBuzzer) PWM(duty gpio.Duty, _ physic.Frequency) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if duty > 0 && !b.on {
		b.tones++
	}

	b.on = duty > 0

	return nil
}
