// Package web serves the control page of the house.
//
// Every GET path names an action (for example /mudar_estado_luz_sala). Known
// actions are submitted to the poll loop; any other path just renders the page.
// The answer is always the HTML page with the current temperature, the state of
// every light and the action buttons.
package web
