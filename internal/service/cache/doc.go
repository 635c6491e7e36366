// Package cache keeps a single installer file in a local directory.
//
// A cache pass either reuses the file whose name matches the requested URL
// or removes every file in the directory and downloads the new installer.
// Downloads stream into a hidden staging file and are atomically swapped
// into place once complete, so an interrupted transfer never leaves a file
// that a later pass would mistake for a cache hit.
package cache
