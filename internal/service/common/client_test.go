//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFetch_ValidatesArguments verifies that Fetch rejects empty URLs and nil readers.
func TestFetch_ValidatesArguments(t *testing.T) {
	t.Parallel()

	c := NewClient()

	require.ErrorIs(t, c.Fetch(context.Background(), "", func(io.Reader) error { return nil }), errURLRequired)
	require.ErrorIs(t, c.Fetch(context.Background(), "http://127.0.0.1", nil), errReaderRequired)
}

// TestFetch_FollowsRedirects checks that redirects are followed and the body is delivered.
func TestFetch_FollowsRedirects(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("payload"))
	})

	ts := httptest.NewServer(mux)
	defer ts.Close()

	var got []byte

	err := NewClient().Fetch(context.Background(), ts.URL+"/old", func(body io.Reader) error {
		var readErr error

		got, readErr = io.ReadAll(body)

		return readErr
	})
	require.NoError(t, err)
	require.Equal(t, "payload", string(got))
}

// TestFetch_RejectsBadStatus ensures non-2xx responses never reach the reader.
func TestFetch_RejectsBadStatus(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	called := false

	err := NewClient().Fetch(context.Background(), ts.URL, func(io.Reader) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrBadHTTPStatus)
	require.False(t, called)
}

// TestClient_callContext checks timeout vs cancel-only behavior of callContext.
func TestClient_callContext(t *testing.T) {
	t.Parallel()

	c := NewClient()

	ctx, cancel := c.callContext(context.Background())
	cancel()

	require.NotNil(t, ctx)

	_, ok := ctx.Deadline()
	require.False(t, ok)

	c = NewClient(WithCallTimeout(10 * time.Millisecond))

	ctx, cancel = c.callContext(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	require.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 30*time.Millisecond)
}
