// Package engine defines the dataset-engine contract the cloud client
// coordinates over. An [Engine] materializes an href into an open
// [Dataset] handle; engines are looked up by cloud-format name in a
// [Registry]. The kerchunk engine ships with this module; aggregation
// engines such as CFA are supplied by the consumer and registered here.
package engine

import (
	"context"
	"errors"
	"sync"
)

// Options carries open-time options through to an engine. Keys are
// engine-specific; merge precedence is engine defaults, then
// asset-supplied options, then caller options (caller wins).
type Options map[string]any

// Merge returns a new Options with each source applied in order, later
// sources overriding earlier ones on key conflict. Nil sources are
// skipped.
func Merge(sources ...Options) Options {
	out := Options{}
	for _, src := range sources {
		for k, v := range src {
			out[k] = v
		}
	}
	return out
}

// Bool reads a boolean option, returning def when the key is absent or
// not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key].(bool); ok {
		return v
	}
	return def
}

var (
	// ErrNotFound reports that the resource behind an href was missing
	// at open time.
	ErrNotFound = errors.New("resource not found")

	// ErrUnknownEngine reports a cloud format with no registered engine.
	ErrUnknownEngine = errors.New("no engine registered for format")
)

// Dataset is an open handle onto a chunked or aggregated dataset. It
// exposes enough surface for numeric consumers to enumerate and read
// chunks; interpretation of chunk bytes is up to the consumer.
type Dataset interface {
	// Keys lists the reference keys available in the dataset.
	Keys() []string

	// Attrs returns the dataset-level attributes, if any.
	Attrs() map[string]any

	// Read returns the raw bytes for one key.
	Read(ctx context.Context, key string) ([]byte, error)

	// Close releases any resources held by the handle.
	Close() error
}

// Engine opens an href into a live Dataset.
type Engine interface {
	Open(ctx context.Context, href string, opts Options) (Dataset, error)
}

// Registry maps cloud-format names to engines.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register installs an engine under the given format name, replacing
// any previous registration.
func (r *Registry) Register(format string, e Engine) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.engines[format] = e
}

// Get looks up the engine for a format.
func (r *Registry) Get(format string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[format]
	return e, ok
}
