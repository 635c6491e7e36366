// Package installer contains core domain types for the installer pipeline.
//
// It defines Artifact (what the metadata service advertises), CachedArtifact
// (what the local cache holds) and Request (what the caller asked to install).
package installer
