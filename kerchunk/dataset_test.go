package kerchunk

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danny-lloyd/datapoint/engine"
	"github.com/stretchr/testify/require"
)

func openTestDataset(t *testing.T, doc string, opts engine.Options) *Dataset {
	t.Helper()
	rs, err := ParseReferenceSet([]byte(doc))
	require.NoError(t, err)
	c := &Client{}
	ds, err := c.OpenReferences(context.Background(), rs, nil, opts)
	require.NoError(t, err)
	return ds.(*Dataset)
}

func Test_Dataset_InlineReads(t *testing.T) {
	ds := openTestDataset(t, `{"refs": {
		"plain": "hello",
		"encoded": "base64:aGVsbG8="
	}}`, nil)

	data, err := ds.Read(context.Background(), "plain")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)

	data, err = ds.Read(context.Background(), "encoded")
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), data)
}

func Test_Dataset_MissingKey(t *testing.T) {
	ds := openTestDataset(t, `{"refs": {"a": "x"}}`, nil)
	_, err := ds.Read(context.Background(), "missing")
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func Test_Dataset_LocalRangeRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chunks.bin")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))

	rs := &ReferenceSet{Refs: map[string]Reference{
		"whole": {URL: path, arity: 1},
		"part":  {URL: path, Offset: 2, Length: 4, arity: 3},
	}}
	c := &Client{}
	ds, err := c.OpenReferences(context.Background(), rs, nil, nil)
	require.NoError(t, err)

	data, err := ds.Read(context.Background(), "whole")
	require.NoError(t, err)
	require.Equal(t, []byte("0123456789"), data)

	data, err = ds.Read(context.Background(), "part")
	require.NoError(t, err)
	require.Equal(t, []byte("2345"), data)
}

func Test_Dataset_LocalMissingFile(t *testing.T) {
	rs := &ReferenceSet{Refs: map[string]Reference{
		"gone": {URL: filepath.Join(t.TempDir(), "absent.bin"), Offset: 0, Length: 4, arity: 3},
	}}
	c := &Client{}
	ds, err := c.OpenReferences(context.Background(), rs, nil, nil)
	require.NoError(t, err)

	_, err = ds.Read(context.Background(), "gone")
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func Test_Dataset_HTTPRangeRead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bytes=2-5", r.Header.Get("Range"))
		w.WriteHeader(http.StatusPartialContent)
		w.Write([]byte("2345"))
	}))
	defer srv.Close()

	rs := &ReferenceSet{Refs: map[string]Reference{
		"part": {URL: srv.URL + "/chunks.bin", Offset: 2, Length: 4, arity: 3},
	}}
	c := &Client{}
	ds, err := c.OpenReferences(context.Background(), rs, nil, nil)
	require.NoError(t, err)

	data, err := ds.Read(context.Background(), "part")
	require.NoError(t, err)
	require.Equal(t, []byte("2345"), data)
}

func Test_Dataset_Attrs(t *testing.T) {
	ds := openTestDataset(t, `{"refs": {
		".zattrs": "{\"title\": \"cmip6\"}",
		"x/0": "data"
	}}`, nil)
	require.Equal(t, map[string]any{"title": "cmip6"}, ds.Attrs())
}

func Test_Dataset_Consolidated(t *testing.T) {
	doc := `{"refs": {
		".zmetadata": "{\"metadata\": {\".zattrs\": {\"title\": \"consolidated\"}}}"
	}}`
	ds := openTestDataset(t, doc, engine.Options{"consolidated": true})
	require.Equal(t, map[string]any{"title": "consolidated"}, ds.Attrs())

	// Consolidated open requires .zmetadata.
	rs, err := ParseReferenceSet([]byte(`{"refs": {"a": "x"}}`))
	require.NoError(t, err)
	c := &Client{}
	_, err = c.OpenReferences(context.Background(), rs, nil, engine.Options{"consolidated": true})
	require.ErrorIs(t, err, engine.ErrNotFound)
}

func Test_Dataset_Keys_Sorted(t *testing.T) {
	ds := openTestDataset(t, `{"refs": {"b": "1", "a": "2", "c": "3"}}`, nil)
	require.Equal(t, []string{"a", "b", "c"}, ds.Keys())
}

func Test_Dataset_BaseOption(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f.bin"), []byte("abcd"), 0o644))

	rs := &ReferenceSet{Refs: map[string]Reference{
		"k": {URL: "/f.bin", Offset: 0, Length: 4, arity: 3},
	}}
	c := &Client{}
	ds, err := c.OpenReferences(context.Background(), rs, engine.Options{"base": dir}, nil)
	require.NoError(t, err)

	data, err := ds.Read(context.Background(), "k")
	require.NoError(t, err)
	require.Equal(t, []byte("abcd"), data)
}
