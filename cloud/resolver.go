package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/danny-lloyd/datapoint/kerchunk"
	"github.com/danny-lloyd/datapoint/metric"
	"github.com/danny-lloyd/datapoint/objectstore"
)

// DefaultRemoteHost is the canonical remote host for catalog hrefs.
const DefaultRemoteHost = kerchunk.DefaultHost

// Resolver classifies hrefs by reachability. The zero value is usable;
// fields override the defaults.
type Resolver struct {
	// HTTPClient performs the existence probes. Defaults to
	// http.DefaultClient.
	HTTPClient *http.Client

	// Store probes s3:// hrefs. Optional.
	Store *objectstore.Client

	// Host is the canonical remote host stripped from hrefs to derive
	// local fallback paths. Defaults to DefaultRemoteHost.
	Host string

	// Log receives debug traces. Defaults to slog.Default().
	Log *slog.Logger

	// Metrics receives probe instrumentation. Optional.
	Metrics *metric.Metrics
}

func (r *Resolver) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

func (r *Resolver) host() string {
	if r.Host != "" {
		return r.Host
	}
	return DefaultRemoteHost
}

func (r *Resolver) log() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Resolve classifies href. Remote hrefs cost exactly one network call
// (a header-only existence probe); a 200 response classifies the
// product as reachable. Any other status forces local-only access,
// downgraded to unreachable when the local fallback path is missing
// too. Non-remote hrefs are reinterpreted as local paths by stripping
// the canonical host prefix. Transport errors are not classified; they
// propagate to the caller.
func (r *Resolver) Resolve(ctx context.Context, href string) (Visibility, error) {
	if strings.HasPrefix(href, "s3://") {
		return r.resolveS3(ctx, href)
	}

	vis := VisibilityAll
	if strings.Contains(href, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, href, nil)
		if err != nil {
			return VisibilityUnresolved, fmt.Errorf("cloud: probing %s: %w", href, err)
		}
		resp, err := r.httpClient().Do(req)
		if err != nil {
			r.Metrics.Probe("error")
			return VisibilityUnresolved, fmt.Errorf("cloud: probing %s: %w", href, err)
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			r.Metrics.Probe(string(VisibilityAll))
			return VisibilityAll, nil
		}
		r.log().Debug("remote probe failed",
			slog.String("href", href),
			slog.Int("status", resp.StatusCode))
		vis = VisibilityLocalOnly
	}

	local := kerchunk.LocalPath(href, r.host())
	if info, err := os.Stat(local); err != nil || info.IsDir() {
		vis = VisibilityUnreachable
	}
	r.Metrics.Probe(string(vis))
	return vis, nil
}

func (r *Resolver) resolveS3(ctx context.Context, href string) (Visibility, error) {
	if r.Store == nil {
		return VisibilityUnresolved, fmt.Errorf("cloud: probing %s: no object store configured", href)
	}
	exists, err := r.Store.Exists(ctx, href)
	if err != nil {
		r.Metrics.Probe("error")
		return VisibilityUnresolved, fmt.Errorf("cloud: probing %s: %w", href, err)
	}
	if exists {
		r.Metrics.Probe(string(VisibilityAll))
		return VisibilityAll, nil
	}
	r.Metrics.Probe(string(VisibilityUnreachable))
	return VisibilityUnreachable, nil
}
