// Package install runs the fetch-cache-execute pipeline.
//
// It resolves the newest installer from the metadata service, makes it the
// only file in the local cache, and runs it for the requested game version.
// The stages run strictly one after another and the first failure ends
// the run.
package install
