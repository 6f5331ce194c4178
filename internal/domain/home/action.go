package home

// Room is one of the switchable room lights.
type Room int

const (
	// LivingRoom is the living room light.
	LivingRoom Room = iota
	// Kitchen is the kitchen light.
	Kitchen
	// Bedroom is the bedroom light.
	Bedroom
	// Bathroom is the bathroom light.
	Bathroom
	// Yard is the yard light.
	Yard
	// RoomCount is the number of rooms.
	RoomCount
)

var roomNames = [RoomCount]string{
	LivingRoom: "living room",
	Kitchen:    "kitchen",
	Bedroom:    "bedroom",
	Bathroom:   "bathroom",
	Yard:       "yard",
}

var roomKeys = [RoomCount]string{
	LivingRoom: "living_room",
	Kitchen:    "kitchen",
	Bedroom:    "bedroom",
	Bathroom:   "bathroom",
	Yard:       "yard",
}

// Key returns the machine-readable room name.
func (r Room) Key() string {
	if r < 0 || r >= RoomCount {
		return "unknown"
	}

	return roomKeys[r]
}

// String implements fmt.Stringer.
func (r Room) String() string {
	if r < 0 || r >= RoomCount {
		return "unknown"
	}

	return roomNames[r]
}

// Rooms returns all rooms in output order.
func Rooms() []Room {
	rooms := make([]Room, 0, RoomCount)
	for r := range RoomCount {
		rooms = append(rooms, r)
	}

	return rooms
}

// Action is a named request. The name is also the HTTP path without the leading slash.
type Action string

const (
	// ActionLivingRoom toggles the living room light.
	ActionLivingRoom Action = "mudar_estado_luz_sala"
	// ActionKitchen toggles the kitchen light.
	ActionKitchen Action = "mudar_estado_luz_cozinha"
	// ActionBedroom toggles the bedroom light.
	ActionBedroom Action = "mudar_estado_luz_quarto"
	// ActionBathroom toggles the bathroom light.
	ActionBathroom Action = "mudar_estado_luz_banheiro"
	// ActionYard toggles the yard light.
	ActionYard Action = "mudar_estado_luz_quintal"
	// ActionDisplay toggles the display (TV) flag.
	ActionDisplay Action = "mudar_estado_display"
	// ActionAlarm arms or disarms the alarm.
	ActionAlarm Action = "mudar_estado_alarme"
	// ActionStatusOn switches the status LED on.
	ActionStatusOn Action = "on"
	// ActionStatusOff switches the status LED off.
	ActionStatusOff Action = "off"
)

// ActionInfo describes an action for menus and pages.
type ActionInfo struct {
	Action Action
	Label  string
}

var actions = []ActionInfo{
	{Action: ActionLivingRoom, Label: "Living room light"},
	{Action: ActionKitchen, Label: "Kitchen light"},
	{Action: ActionBedroom, Label: "Bedroom light"},
	{Action: ActionBathroom, Label: "Bathroom light"},
	{Action: ActionYard, Label: "Yard light"},
	{Action: ActionDisplay, Label: "Display"},
	{Action: ActionAlarm, Label: "Alarm"},
	{Action: ActionStatusOn, Label: "Status LED on"},
	{Action: ActionStatusOff, Label: "Status LED off"},
}

var roomActions = map[Action]Room{
	ActionLivingRoom: LivingRoom,
	ActionKitchen:    Kitchen,
	ActionBedroom:    Bedroom,
	ActionBathroom:   Bathroom,
	ActionYard:       Yard,
}

// Actions returns every known action in page order.
func Actions() []ActionInfo {
	result := make([]ActionInfo, len(actions))
	copy(result, actions)

	return result
}

// ParseAction returns the action with the given name.
func ParseAction(name string) (Action, bool) {
	for _, info := range actions {
		if string(info.Action) == name {
			return info.Action, true
		}
	}

	return "", false
}

// RoomAction returns the action toggling room.
func RoomAction(room Room) Action {
	for action, r := range roomActions {
		if r == room {
			return action
		}
	}

	return ""
}

// IsToggle reports whether applying the action twice restores the state.
// The status LED actions set a value and are not toggles.
func (a Action) IsToggle() bool {
	return a != ActionStatusOn && a != ActionStatusOff
}
