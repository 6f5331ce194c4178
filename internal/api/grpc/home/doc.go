// Package home implements the HomeService gRPC transport.
//
// The service is described by hand with well-known protobuf types: Toggle
// takes the action name as a StringValue and both methods answer with the house
// state as a Struct. Callers identify themselves with the "actor" metadata key.
package home
