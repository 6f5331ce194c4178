package web

import (
	"fmt"
	"html/template"
	"io"

	domain "github.com/oshokin/smart-home/internal/domain/home"
)

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Smart home</title>
<style>
body { font-family: sans-serif; margin: 2em; }
a.button { display: inline-block; min-width: 12em; margin: 0.3em; padding: 0.6em 1em; border-radius: 6px; background: #2f6fa7; color: #fff; text-decoration: none; }
a.on { background: #3a9a3a; }
</style>
</head>
<body>
<h1>Smart home</h1>
<p>Internal temperature: {{.Temperature}} &deg;C</p>
<p>Alarm: <strong>{{.Alarm}}</strong></p>
{{range .Buttons}}<p><a class="button{{if .On}} on{{end}}" href="/{{.Action}}">{{.Label}}</a> {{.State}}</p>
{{end}}</body>
</html>
`))

// page is the template model.
type page struct {
	Temperature string
	Alarm       string
	Buttons     []pageButton
}

type pageButton struct {
	Action string
	Label  string
	On     bool
	State  string
}

// Render writes the page for snap.
func Render(w io.Writer, snap domain.Snapshot) error {
	model := page{
		Temperature: fmt.Sprintf("%.2f", snap.TemperatureC),
		Alarm:       snap.Phase.String(),
	}

	for _, info := range domain.Actions() {
		on, known := buttonState(snap, info.Action)

		button := pageButton{
			Action: string(info.Action),
			Label:  info.Label,
			On:     on,
		}

		if known {
			button.State = "off"
			if on {
				button.State = "on"
			}
		}

		model.Buttons = append(model.Buttons, button)
	}

	if err := pageTemplate.Execute(w, model); err != nil {
		return fmt.Errorf("execute page template: %w", err)
	}

	return nil
}

// buttonState returns the flag an action controls, when it controls one.
func buttonState(snap domain.Snapshot, action domain.Action) (bool, bool) {
	for _, room := range domain.Rooms() {
		if domain.RoomAction(room) == action {
			return snap.Light(room), true
		}
	}

	switch action {
	case domain.ActionDisplay:
		return snap.DisplayOn, true
	case domain.ActionAlarm:
		return snap.Armed, true
	case domain.ActionStatusOn:
		return snap.StatusLED, true
	default:
		return false, false
	}
}
