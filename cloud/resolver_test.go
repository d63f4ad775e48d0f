package cloud

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// probeServer serves HEAD requests with a fixed status. TLS so the
// href carries the https:// form the resolver keys on.
func probeServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func Test_Resolve_RemoteReachable(t *testing.T) {
	srv := probeServer(t, http.StatusOK)
	r := &Resolver{HTTPClient: srv.Client(), Host: srv.URL}

	vis, err := r.Resolve(context.Background(), srv.URL+"/badc/data.json")
	require.NoError(t, err)
	require.Equal(t, VisibilityAll, vis)
}

func Test_Resolve_RemoteFailedLocalPresent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	srv := probeServer(t, http.StatusForbidden)
	r := &Resolver{HTTPClient: srv.Client(), Host: srv.URL}

	vis, err := r.Resolve(context.Background(), srv.URL+path)
	require.NoError(t, err)
	require.Equal(t, VisibilityLocalOnly, vis)
}

func Test_Resolve_RemoteFailedLocalAbsent(t *testing.T) {
	srv := probeServer(t, http.StatusNotFound)
	r := &Resolver{HTTPClient: srv.Client(), Host: srv.URL}

	vis, err := r.Resolve(context.Background(), srv.URL+filepath.Join(t.TempDir(), "gone.json"))
	require.NoError(t, err)
	require.Equal(t, VisibilityUnreachable, vis)
}

func Test_Resolve_LocalHref(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	r := &Resolver{}

	vis, err := r.Resolve(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, VisibilityAll, vis)

	vis, err = r.Resolve(context.Background(), filepath.Join(dir, "absent.json"))
	require.NoError(t, err)
	require.Equal(t, VisibilityUnreachable, vis)
}

func Test_Resolve_TransportErrorPropagates(t *testing.T) {
	srv := probeServer(t, http.StatusOK)
	srv.Close()

	r := &Resolver{HTTPClient: srv.Client(), Host: srv.URL}
	_, err := r.Resolve(context.Background(), srv.URL+"/data.json")
	require.Error(t, err)
}

func Test_Resolve_S3WithoutStore(t *testing.T) {
	r := &Resolver{}
	_, err := r.Resolve(context.Background(), "s3://bucket/key.json")
	require.Error(t, err)
}
