package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/oshokin/fabric-install/internal/domain/installer"
	"github.com/oshokin/fabric-install/internal/logger"
	"github.com/oshokin/fabric-install/internal/service/common"
)

var (
	// ErrMalformedMetadata is returned when the response is not a JSON array of objects.
	ErrMalformedMetadata = errors.New("malformed installer metadata")
	// ErrNoInstallers is returned when the metadata array is empty.
	ErrNoInstallers = errors.New("no installers listed")
	// ErrMissingURL is returned when the newest descriptor has no usable url.
	ErrMissingURL = errors.New("installer url is missing or not a string")
)

const (
	urlField     = "url"
	versionField = "version"
)

// Resolver queries the metadata endpoint.
type Resolver struct {
	// endpoint is the metadata URL.
	endpoint string
	// client performs the HTTP request.
	client *common.Client
}

// New creates a resolver for endpoint using client.
func New(endpoint string, client *common.Client) *Resolver {
	if client == nil {
		client = common.NewClient()
	}

	return &Resolver{
		endpoint: endpoint,
		client:   client,
	}
}

// LatestInstallerURL returns the download URL of the newest installer.
func (r *Resolver) LatestInstallerURL(ctx context.Context) (string, error) {
	artifact, err := r.Latest(ctx)
	if err != nil {
		return "", err
	}

	return artifact.URL, nil
}

// Latest returns the newest installer advertised by the metadata endpoint.
func (r *Resolver) Latest(ctx context.Context) (*installer.Artifact, error) {
	logger.DebugKV(ctx, "Requesting installer metadata", "endpoint", r.endpoint)

	var artifact *installer.Artifact

	err := r.client.Fetch(ctx, r.endpoint, func(body io.Reader) error {
		var decodeErr error

		artifact, decodeErr = decodeLatest(body)

		return decodeErr
	})
	if err != nil {
		return nil, fmt.Errorf("resolve latest installer: %w", err)
	}

	logger.InfoKV(ctx, "Resolved latest installer", "url", artifact.URL, "version", artifact.Version)

	return artifact, nil
}

// decodeLatest extracts the first descriptor of a metadata document.
// Later descriptors are kept raw and never inspected.
func decodeLatest(body io.Reader) (*installer.Artifact, error) {
	var descriptors []json.RawMessage
	if err := json.NewDecoder(body).Decode(&descriptors); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMetadata, err)
	}

	if len(descriptors) == 0 {
		return nil, ErrNoInstallers
	}

	var newest map[string]json.RawMessage
	if err := json.Unmarshal(descriptors[0], &newest); err != nil {
		return nil, fmt.Errorf("%w: first descriptor: %w", ErrMalformedMetadata, err)
	}

	rawURL, ok := newest[urlField]
	if !ok {
		return nil, ErrMissingURL
	}

	var downloadURL string
	if err := json.Unmarshal(rawURL, &downloadURL); err != nil || downloadURL == "" {
		return nil, ErrMissingURL
	}

	artifact := &installer.Artifact{URL: downloadURL}

	// The version is informational; a missing or odd value is not an error.
	if rawVersion, found := newest[versionField]; found {
		_ = json.Unmarshal(rawVersion, &artifact.Version)
	}

	return artifact, nil
}
