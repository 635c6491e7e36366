// Package integration holds end-to-end tests of the installer pipeline
// against local HTTP servers and a fake java launcher.
package integration
