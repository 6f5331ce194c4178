package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/oshokin/smart-home/internal/device/button"
	"github.com/oshokin/smart-home/internal/domain/alarm"
	"github.com/oshokin/smart-home/internal/domain/home"
	"github.com/oshokin/smart-home/internal/domain/sensor"
	"github.com/oshokin/smart-home/internal/service/notify"
)

var errTestDoor = errors.New("door adc offline")

type fakeRanger struct {
	name   string
	result sensor.RangingResult
	calls  int
	trace  *[]string
}

func (f *fakeRanger) Name() string { return f.name }

func (f *fakeRanger) Measure(time.Duration) (sensor.RangingResult, error) {
	f.calls++
	*f.trace = append(*f.trace, "measure:"+f.name)

	return f.result, nil
}

type fakeDoor struct {
	sample sensor.DoorPositionSample
	err    error
	trace  *[]string
}

func (f *fakeDoor) Sample() (sensor.DoorPositionSample, error) {
	*f.trace = append(*f.trace, "door")

	return f.sample, f.err
}

type fakeLight struct {
	dark bool
}

func (f *fakeLight) Dark() bool { return f.dark }

type fakeOutputs struct {
	last  home.Snapshot
	trace *[]string
}

func (f *fakeOutputs) Apply(snap home.Snapshot) error {
	f.last = snap
	*f.trace = append(*f.trace, "outputs")

	return nil
}

type fakeAlerter struct {
	mu       sync.Mutex
	alerts   int
	silences int
}

func (f *fakeAlerter) Alert(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.alerts++

	return nil
}

func (f *fakeAlerter) Silence() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.silences++
}

type fakeThermometer struct {
	celsius float64
}

func (f *fakeThermometer) Celsius() (float64, error) { return f.celsius, nil }

type fakeEvents struct {
	mu     sync.Mutex
	events []notify.Event
}

func (f *fakeEvents) Publish(_ context.Context, ev notify.Event) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append(f.events, ev)

	return true
}

func (f *fakeEvents) kinds() []notify.Kind {
	f.mu.Lock()
	defer f.mu.Unlock()

	kinds := make([]notify.Kind, 0, len(f.events))
	for _, ev := range f.events {
		kinds = append(kinds, ev.Kind)
	}

	return kinds
}

// rig is a controller wired to fakes with a clean environment: the zone reads
// 50cm and the door rests at 2000/2000.
type rig struct {
	trace   []string
	front   *fakeRanger
	zone    *fakeRanger
	door    *fakeDoor
	light   *fakeLight
	outputs *fakeOutputs
	alerter *fakeAlerter
	events  *fakeEvents
	button  *button.Mailbox
	ctrl    *Controller
}

func newRig() *rig {
	r := &rig{
		light:   &fakeLight{},
		alerter: &fakeAlerter{},
		events:  &fakeEvents{},
		button:  button.NewMailbox(),
	}

	far := sensor.RangingResult{DistanceCm: 50, Valid: true}

	r.front = &fakeRanger{name: "front", result: far, trace: &r.trace}
	r.zone = &fakeRanger{name: "zone", result: far, trace: &r.trace}
	r.door = &fakeDoor{sample: sensor.DoorPositionSample{AxisX: 2000, AxisY: 2000}, trace: &r.trace}
	r.outputs = &fakeOutputs{trace: &r.trace}

	r.ctrl = New(Devices{
		Front:       r.front,
		Zone:        r.zone,
		Door:        r.door,
		Light:       r.light,
		Thermometer: &fakeThermometer{celsius: 41.25},
		Outputs:     r.outputs,
		Alerter:     r.alerter,
		Events:      r.events,
		Button:      r.button,
	}, Settings{
		Tick:           500 * time.Millisecond,
		RangingTimeout: 30 * time.Millisecond,
		ProximityCm:    15,
		Thresholds:     alarm.DefaultThresholds(),
		DeviceLogLevel: zapcore.InfoLevel,
	})

	return r
}

func (r *rig) tick(n int) {
	for range n {
		r.ctrl.Tick(context.Background())
	}
}

func TestTick_Order(t *testing.T) {
	t.Parallel()

	r := newRig()
	r.ctrl.state.Toggle(home.ActionAlarm)

	r.tick(1)

	require.Equal(t, []string{"measure:front", "measure:zone", "door", "outputs"}, r.trace)
}

func TestTick_DisarmedSkipsAlarmSensors(t *testing.T) {
	t.Parallel()

	r := newRig()

	r.tick(3)

	require.Equal(t, 3, r.front.calls)
	require.Zero(t, r.zone.calls)
	require.NotContains(t, r.trace, "door")
}

func TestTick_SecurityLight(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		front sensor.RangingResult
		dark  bool
		want  bool
	}{
		{name: "near and dark", front: sensor.RangingResult{DistanceCm: 10, Valid: true}, dark: true, want: true},
		{name: "near and bright", front: sensor.RangingResult{DistanceCm: 10, Valid: true}, want: false},
		{name: "far and dark", front: sensor.RangingResult{DistanceCm: 15, Valid: true}, dark: true, want: false},
		{name: "no echo and dark", front: sensor.Invalid(), dark: true, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := newRig()
			r.front.result = tt.front
			r.light.dark = tt.dark

			r.tick(1)

			require.Equal(t, tt.want, r.outputs.last.SecurityLight)
		})
	}
}

func TestTick_IntrusionAlertsOnce(t *testing.T) {
	t.Parallel()

	r := newRig()
	r.ctrl.state.Toggle(home.ActionAlarm)

	r.tick(5)
	require.Zero(t, r.alerter.alerts)
	require.Equal(t, alarm.PhaseArmedIdle, r.outputs.last.Phase)

	r.door.sample.AxisX = 2300
	r.tick(1)

	require.Equal(t, 1, r.alerter.alerts)
	require.True(t, r.outputs.last.Triggered)

	r.tick(5)

	require.Equal(t, 1, r.alerter.alerts)
	require.Equal(t, []notify.Kind{notify.KindTriggered}, r.events.kinds())
	require.Equal(t, "sensors", r.events.events[0].Source)
	require.Contains(t, r.events.events[0].Reason, "x=2300")
}

func TestTick_ProximityTriggers(t *testing.T) {
	t.Parallel()

	r := newRig()
	r.ctrl.state.Toggle(home.ActionAlarm)
	r.zone.result = sensor.RangingResult{DistanceCm: 14.99, Valid: true}

	r.tick(1)

	require.True(t, r.outputs.last.Triggered)
	require.Equal(t, 1, r.alerter.alerts)
}

func TestTick_DoorErrorIsNoDetection(t *testing.T) {
	t.Parallel()

	r := newRig()
	r.ctrl.state.Toggle(home.ActionAlarm)
	r.door.err = errTestDoor

	r.tick(3)

	require.False(t, r.outputs.last.Triggered)
	require.Zero(t, r.alerter.alerts)
}

func TestTick_ButtonTogglesAlarm(t *testing.T) {
	t.Parallel()

	r := newRig()

	require.True(t, r.button.Post(button.Event{At: time.Now()}))
	r.tick(1)

	require.True(t, r.outputs.last.Armed)
	require.Equal(t, []notify.Kind{notify.KindArmed}, r.events.kinds())
	require.Equal(t, OriginButton, r.events.events[0].Source)

	// The event was consumed.
	r.tick(1)
	require.True(t, r.outputs.last.Armed)
}

func TestTick_ButtonDisarmsTriggered(t *testing.T) {
	t.Parallel()

	r := newRig()
	r.ctrl.state.Toggle(home.ActionAlarm)
	r.zone.result = sensor.RangingResult{DistanceCm: 5, Valid: true}
	r.tick(1)
	require.True(t, r.outputs.last.Triggered)

	require.True(t, r.button.Post(button.Event{At: time.Now()}))
	r.tick(3)

	require.False(t, r.outputs.last.Armed)
	require.False(t, r.outputs.last.Triggered)
	require.Equal(t, 1, r.alerter.silences)
	require.Equal(t, 1, r.alerter.alerts)
	require.Equal(t, []notify.Kind{notify.KindTriggered, notify.KindDisarmed}, r.events.kinds())
}

func TestTick_Temperature(t *testing.T) {
	t.Parallel()

	r := newRig()

	r.tick(1)

	require.InDelta(t, 41.25, r.outputs.last.TemperatureC, 1e-9)
}

func TestRun_SubmitAndSnapshot(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		r := newRig()

		ctx, cancel := context.WithCancel(context.Background())

		go func() {
			_ = r.ctrl.Run(ctx)
		}()

		snap, err := r.ctrl.Submit(ctx, "test", home.ActionKitchen)
		require.NoError(t, err)
		require.True(t, snap.Light(home.Kitchen))

		snap, err = r.ctrl.Submit(ctx, "test", home.ActionStatusOn)
		require.NoError(t, err)
		require.True(t, snap.StatusLED)

		snap, err = r.ctrl.Snapshot(ctx)
		require.NoError(t, err)
		require.True(t, snap.Light(home.Kitchen))
		require.False(t, snap.Armed)

		_, err = r.ctrl.Submit(ctx, "test", home.Action("nope"))
		require.ErrorIs(t, err, ErrUnknownAction)

		cancel()
		<-r.ctrl.Done()

		_, err = r.ctrl.Snapshot(context.Background())
		require.ErrorIs(t, err, ErrStopped)

		_, err = r.ctrl.Submit(context.Background(), "test", home.ActionKitchen)
		require.ErrorIs(t, err, ErrStopped)

		// The loop silences the buzzer on the way out.
		require.Equal(t, 1, r.alerter.silences)
	})
}

func TestRun_RequestsServedOnTick(t *testing.T) {
	t.Parallel()

	synctest.Test(t, func(t *testing.T) {
		r := newRig()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// First tick runs immediately with an empty queue.
		go func() {
			_ = r.ctrl.Run(ctx)
		}()

		synctest.Wait()

		start := time.Now()

		_, err := r.ctrl.Submit(ctx, "test", home.ActionYard)
		require.NoError(t, err)
		require.Equal(t, 500*time.Millisecond, time.Since(start))

		cancel()
		<-r.ctrl.Done()
	})
}

func TestSubmit_ContextCancelled(t *testing.T) {
	t.Parallel()

	r := newRig()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// The loop is not running: the queue accepts the request but never answers.
	_, err := r.ctrl.Submit(ctx, "test", home.ActionYard)
	require.ErrorIs(t, err, context.Canceled)
}
