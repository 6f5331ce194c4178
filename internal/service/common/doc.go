// Package common holds helpers shared by several services.
//
// It provides a lightweight HomeService gRPC client with call timeouts and a
// helper that identifies the local user (user@host) for audit logs.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
