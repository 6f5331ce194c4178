package home

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/smart-home/internal/domain/alarm"
)

// TestSystemState_ToggleIsInvolution applies every toggle action twice after
// arbitrary prefixes and checks the state is restored.
func TestSystemState_ToggleIsInvolution(t *testing.T) {
	t.Parallel()

	prefixes := [][]Action{
		nil,
		{ActionKitchen},
		{ActionAlarm},
		{ActionDisplay, ActionYard, ActionStatusOn},
		{ActionLivingRoom, ActionBedroom, ActionBathroom, ActionAlarm, ActionDisplay},
	}

	for _, prefix := range prefixes {
		for _, info := range Actions() {
			if !info.Action.IsToggle() {
				continue
			}

			var s SystemState

			for _, a := range prefix {
				_, ok := s.Toggle(a)
				require.True(t, ok)
			}

			before := s.Snapshot()

			s.Toggle(info.Action)
			require.NotEqual(t, before, s.Snapshot(), "action %s", info.Action)

			s.Toggle(info.Action)
			require.Equal(t, before, s.Snapshot(), "action %s after %v", info.Action, prefix)
		}
	}
}

// TestSystemState_RoomLights checks that each room action flips only its own light.
func TestSystemState_RoomLights(t *testing.T) {
	t.Parallel()

	for _, room := range Rooms() {
		var s SystemState

		tr, ok := s.Toggle(RoomAction(room))
		require.True(t, ok)
		require.False(t, tr.Changed())

		for _, other := range Rooms() {
			require.Equal(t, other == room, s.Snapshot().Light(other), "room %s", other)
		}
	}
}

// TestSystemState_Alarm checks the alarm action and the transition it reports.
func TestSystemState_Alarm(t *testing.T) {
	t.Parallel()

	var s SystemState

	tr, ok := s.Toggle(ActionAlarm)
	require.True(t, ok)
	require.True(t, tr.Armed())
	require.Equal(t, alarm.PhaseArmedIdle, s.Snapshot().Phase)

	tr, ok = s.Toggle(ActionAlarm)
	require.True(t, ok)
	require.True(t, tr.Disarmed())
	require.False(t, s.Snapshot().Armed)
}

// TestSystemState_StatusLED checks that on and off set rather than toggle.
func TestSystemState_StatusLED(t *testing.T) {
	t.Parallel()

	var s SystemState

	s.Toggle(ActionStatusOn)
	s.Toggle(ActionStatusOn)
	require.True(t, s.StatusLED)

	s.Toggle(ActionStatusOff)
	s.Toggle(ActionStatusOff)
	require.False(t, s.StatusLED)
}

// TestSystemState_UnknownAction checks that unknown names are ignored.
func TestSystemState_UnknownAction(t *testing.T) {
	t.Parallel()

	var s SystemState
	s.Toggle(ActionYard)
	before := s.Snapshot()

	for _, name := range []Action{"", "favicon.ico", "MUDAR_ESTADO_ALARME", "mudar_estado_luz"} {
		_, ok := s.Toggle(name)
		require.False(t, ok, name)
		require.Equal(t, before, s.Snapshot())
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	a, ok := ParseAction("mudar_estado_luz_quintal")
	require.True(t, ok)
	require.Equal(t, ActionYard, a)

	_, ok = ParseAction("/mudar_estado_luz_quintal")
	require.False(t, ok)

	require.Len(t, Actions(), 9)
	require.Equal(t, ActionBathroom, RoomAction(Bathroom))
	require.Equal(t, "yard", Yard.Key())
}

func TestSnapshot_Fields(t *testing.T) {
	t.Parallel()

	var s SystemState
	s.Toggle(ActionKitchen)
	s.Toggle(ActionAlarm)

	snap := s.Snapshot()
	snap.TemperatureC = 41.5

	fields := snap.Fields()
	require.Equal(t, true, fields["light_kitchen"])
	require.Equal(t, false, fields["light_yard"])
	require.Equal(t, "armed", fields["alarm"])
	require.InDelta(t, 41.5, fields["temperature_c"], 0.001)
}
