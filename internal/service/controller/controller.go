package controller

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/smart-home/internal/device/button"
	"github.com/oshokin/smart-home/internal/domain/alarm"
	"github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/domain/sensor"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/notify"
)

var (
	// ErrStopped is returned by Submit and Snapshot once the loop has exited.
	ErrStopped = errors.New("controller stopped")
	// ErrUnknownAction is returned by Submit for actions that do not exist.
	ErrUnknownAction = errors.New("unknown action")
)

// OriginButton is the origin of requests coming from the push button.
const OriginButton = "button"

// requestQueueSize is how many transport requests can wait for the next tick.
const requestQueueSize = 32

// Ranger measures a distance with a bounded wait.
type Ranger interface {
	Name() string
	Measure(timeout time.Duration) (sensor.RangingResult, error)
}

// DoorSensor samples the door-position proxy.
type DoorSensor interface {
	Sample() (sensor.DoorPositionSample, error)
}

// LightSensor reports darkness.
type LightSensor interface {
	Dark() bool
}

// Thermometer reads the board temperature.
type Thermometer interface {
	Celsius() (float64, error)
}

// Outputs mirrors a snapshot on lights and LEDs.
type Outputs interface {
	Apply(snap home.Snapshot) error
}

// Display shows the status screen.
type Display interface {
	Show(ctx context.Context, snap home.Snapshot) error
}

// Alerter sounds the alarm. Alert may block for the whole pattern.
type Alerter interface {
	Alert(ctx context.Context) error
	Silence()
}

// Publisher receives alarm events. It must not block.
type Publisher interface {
	Publish(ctx context.Context, ev notify.Event) bool
}

// Devices are the collaborators owned by the loop. Thermometer, Display and
// Events are optional.
type Devices struct {
	Front       Ranger
	Zone        Ranger
	Door        DoorSensor
	Light       LightSensor
	Thermometer Thermometer
	Outputs     Outputs
	Display     Display
	Alerter     Alerter
	Events      Publisher
	// Button is drained once per tick.
	Button *button.Mailbox
}

// Settings are the loop timings and limits.
type Settings struct {
	// Tick is the sleep at the end of every iteration.
	Tick time.Duration
	// RangingTimeout bounds each ultrasonic measurement.
	RangingTimeout time.Duration
	// ProximityCm switches the security light on when the front sensor is closer.
	ProximityCm float64
	// Thresholds is the intrusion rule.
	Thresholds alarm.Thresholds
	// DeviceLogLevel filters per-tick sensor diagnostics.
	DeviceLogLevel zapcore.Level
}

// request is a transport call waiting for the network-service step.
type request struct {
	origin string
	action home.Action
	// toggle is false for read-only requests.
	toggle bool
	reply  chan home.Snapshot
}

// Controller is the poll loop.
type Controller struct {
	devices  Devices
	settings Settings

	// state is only touched by the loop goroutine.
	state       home.SystemState
	temperature float64

	requests chan request
	done     chan struct{}
	now      func() time.Time
}

// New creates a controller. Run starts it.
func New(devices Devices, settings Settings) *Controller {
	return &Controller{
		devices:  devices,
		settings: settings,
		requests: make(chan request, requestQueueSize),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Run ticks until ctx is done. It must be called once.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)
	defer c.devices.Alerter.Silence()

	timer := time.NewTimer(c.settings.Tick)
	defer timer.Stop()

	for {
		c.Tick(ctx)

		timer.Reset(c.settings.Tick)

		select {
		case <-ctx.Done():
			logger.Info(ctx, "Poll loop stopped")

			return nil
		case <-timer.C:
		}
	}
}

// Tick runs one iteration of the loop.
func (c *Controller) Tick(ctx context.Context) {
	c.drainButton(ctx)
	c.updateSecurityLight(ctx)
	c.checkAlarm(ctx)
	c.refresh(ctx)
	c.serveRequests(ctx)
}

// Submit queues action and returns the state right after the loop applied it.
func (c *Controller) Submit(ctx context.Context, origin string, action home.Action) (home.Snapshot, error) {
	if _, ok := home.ParseAction(string(action)); !ok {
		return home.Snapshot{}, ErrUnknownAction
	}

	return c.call(ctx, request{origin: origin, action: action, toggle: true})
}

// Snapshot returns the state as seen at the next network-service step.
func (c *Controller) Snapshot(ctx context.Context) (home.Snapshot, error) {
	return c.call(ctx, request{})
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) call(ctx context.Context, req request) (home.Snapshot, error) {
	req.reply = make(chan home.Snapshot, 1)

	select {
	case <-c.done:
		return home.Snapshot{}, ErrStopped
	default:
	}

	select {
	case c.requests <- req:
	case <-c.done:
		return home.Snapshot{}, ErrStopped
	case <-ctx.Done():
		return home.Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-req.reply:
		return snap, nil
	case <-c.done:
		// The loop may have answered right before exiting.
		select {
		case snap := <-req.reply:
			return snap, nil
		default:
			return home.Snapshot{}, ErrStopped
		}
	case <-ctx.Done():
		return home.Snapshot{}, ctx.Err()
	}
}

func (c *Controller) drainButton(ctx context.Context) {
	if c.devices.Button == nil {
		return
	}

	if _, ok := c.devices.Button.Drain(); ok {
		c.apply(ctx, OriginButton, home.ActionAlarm)
	}
}

func (c *Controller) updateSecurityLight(ctx context.Context) {
	front := c.measure(ctx, c.devices.Front)

	c.state.SecurityLight = front.Within(c.settings.ProximityCm) && c.devices.Light.Dark()
}

func (c *Controller) checkAlarm(ctx context.Context) {
	// A triggered alarm stays triggered until disarmed, so there is nothing to sample.
	if c.state.Alarm.Phase() != alarm.PhaseArmedIdle {
		return
	}

	reading := alarm.Reading{
		Zone: c.measure(ctx, c.devices.Zone),
	}

	door, err := c.devices.Door.Sample()
	if err != nil {
		logger.WarnKV(c.deviceContext(ctx), "Door sensor unreadable", "error", err)
	} else {
		reading.Door = door
		reading.DoorValid = true
	}

	tr := c.state.Alarm.Update(reading, c.settings.Thresholds)
	if !tr.Triggered() {
		return
	}

	reason := c.settings.Thresholds.Describe(tr.Cause, reading)

	logger.WarnKV(ctx, "Intrusion detected", "cause", tr.Cause, "reason", reason)
	c.publish(ctx, tr, "sensors", reason)

	if err = c.devices.Alerter.Alert(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorKV(ctx, "Alert failed", "error", err)
	}
}

func (c *Controller) refresh(ctx context.Context) {
	if c.devices.Thermometer != nil {
		celsius, err := c.devices.Thermometer.Celsius()
		if err != nil {
			logger.DebugKV(ctx, "Temperature unavailable", "error", err)
		} else {
			c.temperature = celsius
		}
	}

	snap := c.snapshot()

	if err := c.devices.Outputs.Apply(snap); err != nil {
		logger.WarnKV(ctx, "Outputs not updated", "error", err)
	}

	if c.devices.Display == nil {
		return
	}

	if err := c.devices.Display.Show(ctx, snap); err != nil {
		logger.WarnKV(ctx, "Display not updated", "error", err)
	}
}

func (c *Controller) serveRequests(ctx context.Context) {
	for {
		select {
		case req := <-c.requests:
			if req.toggle {
				c.apply(ctx, req.origin, req.action)
			}

			req.reply <- c.snapshot()
		default:
			return
		}
	}
}

// apply runs one action and reacts to the alarm transition it caused.
func (c *Controller) apply(ctx context.Context, origin string, action home.Action) {
	tr, ok := c.state.Toggle(action)
	if !ok {
		logger.DebugKV(ctx, "Unknown action ignored", "action", action, "origin", origin)

		return
	}

	logger.InfoKV(ctx, "Action applied", "action", action, "origin", origin, "alarm", c.state.Alarm.Phase())

	if tr.Disarmed() {
		c.devices.Alerter.Silence()
	}

	c.publish(ctx, tr, origin, "")
}

func (c *Controller) publish(ctx context.Context, tr alarm.Transition, source, reason string) {
	kind, ok := notify.KindOf(tr)
	if !ok || c.devices.Events == nil {
		return
	}

	c.devices.Events.Publish(ctx, notify.NewEvent(kind, c.now(), source, reason))
}

func (c *Controller) measure(ctx context.Context, r Ranger) sensor.RangingResult {
	ctx = c.deviceContext(ctx)

	result, err := r.Measure(c.settings.RangingTimeout)
	if err != nil {
		logger.WarnKV(ctx, "Ranging failed", "sensor", r.Name(), "error", err)

		return sensor.Invalid()
	}

	if !result.Valid {
		logger.DebugKV(ctx, "No echo", "sensor", r.Name())
	}

	return result
}

// deviceContext applies the device log level to sensor diagnostics.
func (c *Controller) deviceContext(ctx context.Context) context.Context {
	return logger.WithMinLevel(ctx, c.settings.DeviceLogLevel)
}

func (c *Controller) snapshot() home.Snapshot {
	snap := c.state.Snapshot()
	snap.TemperatureC = c.temperature

	return snap
}
