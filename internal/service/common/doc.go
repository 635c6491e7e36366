// Package common holds helpers shared by several services.
//
// It provides a lightweight HTTP client wrapper with timeouts and status
// checks, and utilities to detect the current process owner
// (hostname/username/pid) recorded in the cache lock.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
