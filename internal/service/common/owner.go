//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"fmt"
	"os"
	"os/user"

	"github.com/oshokin/fabric-install/internal/domain/installer"
)

// DetectOwner gathers host, user and process information for the cache lock.
func DetectOwner() (*installer.Owner, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &installer.Owner{
		Hostname: hostname,
		Username: currentUser.Username,
		PID:      os.Getpid(),
	}, nil
}
