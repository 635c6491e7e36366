package installer

import (
	"net/url"
	"strings"
)

// Artifact references a downloadable installer advertised by the metadata service.
type Artifact struct {
	// URL is the download location of the installer.
	URL string
	// Version is the installer version reported by the metadata service, if any.
	Version string
}

// CachedArtifact is an installer file present in the local cache.
type CachedArtifact struct {
	// Path is the absolute or cache-relative location of the file.
	Path string
	// Name is the cache key the file is stored under.
	Name string
	// Hit reports whether the file was reused instead of downloaded.
	Hit bool
}

// Request is a caller's installation request.
type Request struct {
	// Version is passed through to the installer verbatim.
	Version string
}

// FileName returns the final path segment of rawURL as written.
// Query and fragment are ignored when rawURL parses as a URL,
// and percent-escapes are kept so an encoded slash never splits a segment.
func FileName(rawURL string) string {
	trimmed := rawURL

	if parsed, err := url.Parse(rawURL); err == nil && parsed.Path != "" {
		trimmed = parsed.EscapedPath()
	}

	idx := strings.LastIndex(trimmed, "/")

	return trimmed[idx+1:]
}

// Owner identifies the process that holds a cache directory.
type Owner struct {
	// Hostname is the machine the process runs on.
	Hostname string `yaml:"hostname"`
	// Username is the system user running the process.
	Username string `yaml:"username"`
	// PID is the process identifier.
	PID int `yaml:"pid"`
}
