package kerchunk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/danny-lloyd/datapoint/engine"
)

// Dataset is a reference-backed virtual filesystem over a ReferenceSet,
// implementing [engine.Dataset]. Chunk keys resolve to inline content,
// whole files, or byte ranges read from local paths, https URLs or
// s3:// objects.
type Dataset struct {
	refs   *ReferenceSet
	client *Client
	base   string
	attrs  map[string]any
}

// attrKey and metadataKey are the zarr attribute locations the open
// path consults.
const (
	attrKey     = ".zattrs"
	metadataKey = ".zmetadata"
)

// OpenReferences builds a Dataset over an already-parsed reference set.
// Mapper options may carry "base" (string) to re-root relative targets.
// Open options honor "consolidated" (bool): when set, the consolidated
// ".zmetadata" entry must be present and supplies the attributes.
func (c *Client) OpenReferences(ctx context.Context, refs *ReferenceSet, mapperOpts, opts engine.Options) (engine.Dataset, error) {
	d := &Dataset{refs: refs, client: c}
	if base, ok := mapperOpts["base"].(string); ok {
		d.base = base
	}

	if opts.Bool("consolidated", false) {
		meta, err := d.Read(ctx, metadataKey)
		if err != nil {
			return nil, fmt.Errorf("kerchunk: consolidated metadata: %w", err)
		}
		var doc struct {
			Metadata map[string]json.RawMessage `json:"metadata"`
		}
		if err := json.Unmarshal(meta, &doc); err != nil {
			return nil, fmt.Errorf("kerchunk: %w: %w", ErrInvalidDocument, err)
		}
		if raw, ok := doc.Metadata[attrKey]; ok {
			_ = json.Unmarshal(raw, &d.attrs)
		}
		return d, nil
	}

	if _, ok := refs.Refs[attrKey]; ok {
		data, err := d.Read(ctx, attrKey)
		if err == nil {
			_ = json.Unmarshal(data, &d.attrs)
		}
	}
	return d, nil
}

// Open fetches the reference document at href and builds a Dataset
// over it.
func (c *Client) Open(ctx context.Context, href string, mapperOpts, opts engine.Options) (engine.Dataset, error) {
	refs, err := c.Fetch(ctx, href)
	if err != nil {
		return nil, err
	}
	return c.OpenReferences(ctx, refs, mapperOpts, opts)
}

// Keys lists the reference keys in lexical order.
func (d *Dataset) Keys() []string {
	keys := make([]string, 0, len(d.refs.Refs))
	for k := range d.refs.Refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Attrs returns the dataset-level zarr attributes, if any were found.
func (d *Dataset) Attrs() map[string]any {
	return d.attrs
}

// Read resolves one reference key to its raw bytes.
func (d *Dataset) Read(ctx context.Context, key string) ([]byte, error) {
	ref, ok := d.refs.Refs[key]
	if !ok {
		return nil, fmt.Errorf("kerchunk: key %q: %w", key, engine.ErrNotFound)
	}

	switch {
	case ref.IsInline():
		if enc, ok := strings.CutPrefix(ref.Inline, "base64:"); ok {
			data, err := base64.StdEncoding.DecodeString(enc)
			if err != nil {
				return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
			}
			return data, nil
		}
		return []byte(ref.Inline), nil
	case ref.IsWholeFile():
		return d.readTarget(ctx, key, ref.URL, 0, -1)
	case ref.IsRange():
		return d.readTarget(ctx, key, ref.URL, ref.Offset, ref.Length)
	default:
		return nil, fmt.Errorf("kerchunk: key %q has an unsupported reference shape", key)
	}
}

// Close releases the handle. Dataset holds no persistent resources.
func (d *Dataset) Close() error { return nil }

// readTarget reads length bytes at offset from the given target. A
// negative length means the whole target.
func (d *Dataset) readTarget(ctx context.Context, key, target string, offset, length int64) ([]byte, error) {
	if d.base != "" && !strings.Contains(target, "://") {
		target = d.base + target
	}

	switch {
	case strings.HasPrefix(target, "s3://"):
		return d.readS3(ctx, key, target, offset, length)
	case strings.HasPrefix(target, "https://"), strings.HasPrefix(target, "http://"):
		return d.readHTTP(ctx, key, target, offset, length)
	default:
		return d.readFile(key, target, offset, length)
	}
}

func (d *Dataset) readFile(key, path string, offset, length int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("kerchunk: key %q: %s: %w", key, path, engine.ErrNotFound)
		}
		return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
	}
	defer f.Close()

	if length < 0 {
		data, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
		}
		return data, nil
	}
	data := make([]byte, length)
	if _, err := f.ReadAt(data, offset); err != nil {
		return nil, fmt.Errorf("kerchunk: key %q: reading %s at %d+%d: %w", key, path, offset, length, err)
	}
	return data, nil
}

func (d *Dataset) readHTTP(ctx context.Context, key, url string, offset, length int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
	}
	if length >= 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-%d", offset, offset+length-1))
	}
	resp, err := d.client.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusNotFound:
		return nil, fmt.Errorf("kerchunk: key %q: %s: %w", key, url, engine.ErrNotFound)
	default:
		return nil, fmt.Errorf("kerchunk: key %q: %s returned status %d", key, url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
	}
	// Servers that ignore Range return the whole body.
	if length >= 0 && resp.StatusCode == http.StatusOK && int64(len(data)) > length {
		if int64(len(data)) < offset+length {
			return nil, fmt.Errorf("kerchunk: key %q: %s returned %d bytes, need %d+%d", key, url, len(data), offset, length)
		}
		data = data[offset : offset+length]
	}
	return data, nil
}

func (d *Dataset) readS3(ctx context.Context, key, uri string, offset, length int64) ([]byte, error) {
	if d.client.Store == nil {
		return nil, fmt.Errorf("kerchunk: key %q: %s: no object store configured", key, uri)
	}
	if length < 0 {
		rc, err := d.client.Store.Get(ctx, uri)
		if err != nil {
			return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	data, err := d.client.Store.GetRange(ctx, uri, offset, length)
	if err != nil {
		return nil, fmt.Errorf("kerchunk: key %q: %w", key, err)
	}
	return data, nil
}

// Engine adapts a Client to the [engine.Engine] interface so kerchunk
// datasets can be opened through an engine registry by href.
type Engine struct {
	Client *Client
}

// Open implements engine.Engine.
func (e Engine) Open(ctx context.Context, href string, opts engine.Options) (engine.Dataset, error) {
	c := e.Client
	if c == nil {
		c = &Client{}
	}
	return c.Open(ctx, href, nil, opts)
}
