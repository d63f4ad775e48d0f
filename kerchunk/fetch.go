package kerchunk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/danny-lloyd/datapoint/metric"
	"github.com/danny-lloyd/datapoint/objectstore"
)

var (
	// ErrDownloadFailed reports that a reference document could not be
	// fetched within the retry budget.
	ErrDownloadFailed = errors.New("download unsuccessful")

	// ErrInvalidDocument reports a fetched document that is not a valid
	// reference document. Distinct from ErrDownloadFailed: the bytes
	// arrived but did not parse.
	ErrInvalidDocument = errors.New("invalid reference document")
)

// defaultAttempts is the fixed retry budget for remote document fetches.
const defaultAttempts = 3

// Client fetches and opens kerchunk reference documents. The zero value
// is usable; fields override the defaults.
type Client struct {
	// HTTPClient performs remote fetches. Defaults to http.DefaultClient.
	HTTPClient *http.Client

	// Store handles s3:// hrefs. Optional.
	Store *objectstore.Client

	// Host is the canonical remote host used for local-path
	// translation. Defaults to DefaultHost.
	Host string

	// Attempts is the fetch retry budget. Defaults to 3.
	Attempts int

	// Log receives debug traces. Defaults to slog.Default().
	Log *slog.Logger

	// Metrics receives fetch instrumentation. Optional.
	Metrics *metric.Metrics
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) host() string {
	if c.Host != "" {
		return c.Host
	}
	return DefaultHost
}

func (c *Client) attempts() int {
	if c.Attempts > 0 {
		return c.Attempts
	}
	return defaultAttempts
}

func (c *Client) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

// Fetch downloads and parses the reference document at href. Remote
// https hrefs are fetched with up to three attempts, where any 200
// response wins and stops the retrying; transport errors abort
// immediately. s3:// hrefs are read through the configured object
// store in a single attempt.
func (c *Client) Fetch(ctx context.Context, href string) (*ReferenceSet, error) {
	if strings.HasPrefix(href, "s3://") {
		return c.fetchS3(ctx, href)
	}

	var body []byte
	success := false
	attempts := c.attempts()
	for i := 0; i < attempts && !success; i++ {
		c.Metrics.FetchAttempt()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, href, nil)
		if err != nil {
			return nil, fmt.Errorf("kerchunk: fetching %s: %w", href, err)
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			return nil, fmt.Errorf("kerchunk: fetching %s: %w", href, err)
		}
		if resp.StatusCode == http.StatusOK {
			body, err = io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("kerchunk: reading %s: %w", href, err)
			}
			success = true
		} else {
			resp.Body.Close()
			c.log().Debug("reference fetch attempt failed",
				slog.String("href", href),
				slog.Int("attempt", i+1),
				slog.Int("status", resp.StatusCode))
		}
	}
	if !success {
		c.Metrics.FetchFailure()
		return nil, fmt.Errorf(
			"kerchunk: file %s: %w - could not download the file successfully (tried %d times)",
			href, ErrDownloadFailed, attempts)
	}
	return ParseReferenceSet(body)
}

func (c *Client) fetchS3(ctx context.Context, href string) (*ReferenceSet, error) {
	if c.Store == nil {
		return nil, fmt.Errorf("kerchunk: fetching %s: no object store configured", href)
	}
	c.Metrics.FetchAttempt()
	rc, err := c.Store.Get(ctx, href)
	if err != nil {
		c.Metrics.FetchFailure()
		return nil, fmt.Errorf("kerchunk: file %s: %w: %w", href, ErrDownloadFailed, err)
	}
	defer rc.Close()
	body, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("kerchunk: reading %s: %w", href, err)
	}
	return ParseReferenceSet(body)
}

// FetchLocal produces a localized reference set for href. If the local
// counterpart of href exists on disk it is read directly with no
// network call; otherwise the document is fetched remotely. In both
// cases internal references are rewritten to local-path form.
func (c *Client) FetchLocal(ctx context.Context, href string) (*ReferenceSet, error) {
	local := LocalPath(href, c.host())

	var rs *ReferenceSet
	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		data, err := os.ReadFile(local)
		if err != nil {
			return nil, fmt.Errorf("kerchunk: reading %s: %w", local, err)
		}
		rs, err = ParseReferenceSet(data)
		if err != nil {
			return nil, err
		}
		c.log().Debug("reference document read locally", slog.String("path", local))
	} else {
		rs, err = c.Fetch(ctx, href)
		if err != nil {
			return nil, err
		}
	}

	rs.Localize(c.host())
	return rs, nil
}
