// Package notify fans alarm transitions out to the configured channels:
// the log, an MQTT topic, a Telegram chat and an HTTP webhook.
//
// The poll loop only enqueues events into a Dispatcher; deliveries run on the
// dispatcher goroutine, each bounded by its own timeout.
package notify
