// Package lock implements the marker file that guards a cache directory.
//
// The FileLock stores the owning process as YAML next to the cache
// directory and reclaims markers left by processes that no longer run.
package lock
