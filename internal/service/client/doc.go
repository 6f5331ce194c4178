// Package client implements the home-ctl toggle and status commands.
//
// The commands connect to a running hub over gRPC, apply an action when one is
// given and print the resulting state of the house.
package client
