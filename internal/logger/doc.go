// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV/WithLevel),
//   - level configuration and parsing utilities,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// The poll loop, the transports and every device driver take a context and
// extract the logger from it, so device faults and alarm transitions are
// logged with the component name that produced them.
package logger
