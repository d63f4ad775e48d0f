package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopEngine struct{}

func (nopEngine) Open(ctx context.Context, href string, opts Options) (Dataset, error) {
	return nil, nil
}

func Test_Registry(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("CFA")
	require.False(t, ok)

	r.Register("CFA", nopEngine{})
	e, ok := r.Get("CFA")
	require.True(t, ok)
	require.NotNil(t, e)
}

func Test_Merge_LaterWins(t *testing.T) {
	out := Merge(
		Options{"consolidated": false, "chunks": 10},
		nil,
		Options{"consolidated": true},
	)
	require.Equal(t, Options{"consolidated": true, "chunks": 10}, out)
}

func Test_Options_Bool(t *testing.T) {
	o := Options{"consolidated": true, "chunks": 10}
	require.True(t, o.Bool("consolidated", false))
	require.False(t, o.Bool("missing", false))
	require.True(t, o.Bool("chunks", true)) // wrong type falls back to default
}
