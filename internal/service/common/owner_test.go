//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestDetectOwner ensures hostname, username and pid are detected.
func TestDetectOwner(t *testing.T) {
	t.Parallel()

	o, err := DetectOwner()
	require.NoError(t, err)
	require.NotEmpty(t, o.Hostname)
	require.NotEmpty(t, o.Username)
	require.Equal(t, os.Getpid(), o.PID)
}
