package cloud

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danny-lloyd/datapoint/engine"
	"github.com/danny-lloyd/datapoint/kerchunk"
)

const refDoc = `{"version": 1, "refs": {"x/0": "chunk-data", ".zattrs": "{\"title\": \"t\"}"}}`

// fakeEngine records its inputs and returns a canned result.
type fakeEngine struct {
	href string
	opts engine.Options
	ds   engine.Dataset
	err  error
}

func (f *fakeEngine) Open(ctx context.Context, href string, opts engine.Options) (engine.Dataset, error) {
	f.href = href
	f.opts = opts
	return f.ds, f.err
}

// fakeDataset is a minimal engine.Dataset for dispatch tests.
type fakeDataset struct{}

func (fakeDataset) Keys() []string        { return nil }
func (fakeDataset) Attrs() map[string]any { return nil }
func (fakeDataset) Close() error          { return nil }

func (fakeDataset) Read(ctx context.Context, key string) ([]byte, error) {
	return nil, nil
}

func newTestProduct(t *testing.T, cfg ProductConfig, vis Visibility) *Product {
	t.Helper()
	p, err := NewProduct(cfg)
	require.NoError(t, err)
	p.visibility = vis
	return p
}

func Test_NewProduct_RejectsUnknownMode(t *testing.T) {
	_, err := NewProduct(ProductConfig{Mode: "pandas"})
	require.ErrorIs(t, err, ErrUnsupportedMode)
}

func Test_NewProduct_GeneratesID(t *testing.T) {
	p, err := NewProduct(ProductConfig{Format: FormatKerchunk})
	require.NoError(t, err)
	require.NotEmpty(t, p.ID())
	require.Equal(t, p.ID(), p.Meta()["asset_id"])
	require.Equal(t, "kerchunk", p.Meta()["cloud_format"])
}

func Test_Open_NoCloudFormat(t *testing.T) {
	p := newTestProduct(t, ProductConfig{Asset: Asset{Href: "/x.json"}}, VisibilityAll)
	_, err := p.Open(context.Background())
	require.ErrorIs(t, err, ErrNoCloudFormat)
}

func Test_Open_MissingHref(t *testing.T) {
	for _, format := range []Format{FormatKerchunk, FormatCFA} {
		p := newTestProduct(t, ProductConfig{Format: format}, VisibilityAll)
		_, err := p.Open(context.Background())
		require.ErrorIs(t, err, ErrNoHref, format)
	}
}

func Test_Open_UnknownFormat(t *testing.T) {
	p := newTestProduct(t, ProductConfig{
		Asset:  Asset{Href: "/x.json"},
		Format: Format("zarr"),
	}, VisibilityAll)
	_, err := p.Open(context.Background())
	require.ErrorIs(t, err, ErrUnknownCloudFormat)
	require.Contains(t, err.Error(), "kerchunk")
	require.Contains(t, err.Error(), "CFA")
}

func Test_Open_LocalOnlyGate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ref.json")
	require.NoError(t, os.WriteFile(path, []byte(refDoc), 0o644))

	// Remote probe fails but the local counterpart exists, so the
	// product resolves to local-only.
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	p, err := NewProduct(ProductConfig{
		ID:       "p1",
		Format:   FormatKerchunk,
		Asset:    Asset{Href: srv.URL + path},
		Resolver: &Resolver{HTTPClient: srv.Client(), Host: srv.URL},
		Kerchunk: &kerchunk.Client{HTTPClient: srv.Client(), Host: srv.URL},
	})
	require.NoError(t, err)

	vis, err := p.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, VisibilityLocalOnly, vis)

	_, err = p.Open(context.Background())
	require.ErrorIs(t, err, ErrLocalOnly)

	ds, err := p.Open(context.Background(), LocalOnly())
	require.NoError(t, err)
	data, err := ds.Read(context.Background(), "x/0")
	require.NoError(t, err)
	require.Equal(t, []byte("chunk-data"), data)
}

func Test_Open_KerchunkRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(refDoc))
	}))
	defer srv.Close()

	p := newTestProduct(t, ProductConfig{
		ID:     "p1",
		Format: FormatKerchunk,
		Asset:  Asset{Href: srv.URL + "/ref.json"},
	}, VisibilityAll)

	ds, err := p.Open(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]any{"title": "t"}, ds.Attrs())
}

func Test_Open_KerchunkOptionPrecedence(t *testing.T) {
	// Asset forces consolidated metadata, which this document lacks;
	// the caller option wins and disables it again.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(refDoc))
	}))
	defer srv.Close()

	p := newTestProduct(t, ProductConfig{
		ID:     "p1",
		Format: FormatKerchunk,
		Asset: Asset{
			Href:        srv.URL + "/ref.json",
			ZarrOptions: engine.Options{"consolidated": true},
		},
	}, VisibilityAll)

	_, err := p.Open(context.Background())
	require.ErrorIs(t, err, ErrNotFound)

	ds, err := p.Open(context.Background(), WithOption("consolidated", false))
	require.NoError(t, err)
	require.NotNil(t, ds)
}

func Test_Open_CFADispatch(t *testing.T) {
	fake := &fakeEngine{ds: fakeDataset{}}
	reg := engine.NewRegistry()
	reg.Register(string(FormatCFA), fake)

	p := newTestProduct(t, ProductConfig{
		ID:     "p1",
		Format: FormatCFA,
		Asset: Asset{
			Href:          "/agg/file.nca",
			XarrayOptions: engine.Options{"decode_times": false, "chunks": 1},
		},
		Engines: reg,
	}, VisibilityAll)

	ds, err := p.Open(context.Background(),
		WithOption("chunks", 2),
		WithCFAOptions(engine.Options{"substitutions": map[string]string{"base": "/"}}),
	)
	require.NoError(t, err)
	require.NotNil(t, ds)

	require.Equal(t, "/agg/file.nca", fake.href)
	require.Equal(t, false, fake.opts["decode_times"])
	// Caller options take final precedence.
	require.Equal(t, 2, fake.opts["chunks"])
	require.NotNil(t, fake.opts["cfa_options"])
}

func Test_Open_CFAWithoutEngine(t *testing.T) {
	p := newTestProduct(t, ProductConfig{
		ID:      "p1",
		Format:  FormatCFA,
		Asset:   Asset{Href: "/agg/file.nca"},
		Engines: engine.NewRegistry(),
	}, VisibilityAll)

	_, err := p.Open(context.Background())
	require.ErrorIs(t, err, engine.ErrUnknownEngine)
}

func Test_Open_MissingResourceNamesHref(t *testing.T) {
	fake := &fakeEngine{err: fmt.Errorf("open: %w", engine.ErrNotFound)}
	reg := engine.NewRegistry()
	reg.Register(string(FormatCFA), fake)

	p := newTestProduct(t, ProductConfig{
		ID:      "p1",
		Format:  FormatCFA,
		Asset:   Asset{Href: "/agg/missing.nca"},
		Engines: reg,
	}, VisibilityAll)

	_, err := p.Open(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, engine.ErrNotFound)
	require.Contains(t, err.Error(), "/agg/missing.nca")
}

func Test_Resolve_Once(t *testing.T) {
	hits := 0
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	p, err := NewProduct(ProductConfig{
		ID:       "p1",
		Format:   FormatKerchunk,
		Asset:    Asset{Href: srv.URL + "/ref.json"},
		Resolver: &Resolver{HTTPClient: srv.Client(), Host: srv.URL},
	})
	require.NoError(t, err)
	require.Equal(t, VisibilityUnresolved, p.Visibility())

	_, err = p.Resolve(context.Background())
	require.NoError(t, err)
	_, err = p.Resolve(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, hits)
	require.Equal(t, VisibilityAll, p.Visibility())
}

func Test_Product_Info(t *testing.T) {
	p := newTestProduct(t, ProductConfig{
		ID:         "p1",
		Format:     FormatKerchunk,
		Asset:      Asset{Href: "/x.json"},
		Properties: map[string]any{"variable": "tas", "experiment": "ssp585"},
	}, VisibilityLocalOnly)

	info := p.Info()
	require.Contains(t, info, "p1")
	require.Contains(t, info, "kerchunk")
	require.Contains(t, info, "local-only")
	require.Contains(t, info, "variable: tas")
	require.Contains(t, info, "experiment: ssp585")
}
