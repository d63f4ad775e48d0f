package cloud

import "github.com/danny-lloyd/datapoint/engine"

// ModeXarray is the only supported dataset mode. The mode knob is kept
// for forward compatibility with table-like engines.
const ModeXarray = "xarray"

type openConfig struct {
	mode       string
	localOnly  bool
	options    engine.Options
	cfaOptions engine.Options
}

// OpenOption configures a dataset open call. Caller options take final
// precedence over asset-supplied and engine-default options.
type OpenOption func(*openConfig)

func applyOpenOptions(opts []OpenOption) *openConfig {
	cfg := &openConfig{mode: ModeXarray, options: engine.Options{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// LocalOnly switches the open to local-only access: hrefs and internal
// kerchunk links are converted to local filesystem paths.
func LocalOnly() OpenOption {
	return func(cfg *openConfig) { cfg.localOnly = true }
}

// WithMode selects the dataset mode. Only [ModeXarray] is implemented.
func WithMode(mode string) OpenOption {
	return func(cfg *openConfig) { cfg.mode = mode }
}

// WithOption sets a single engine open option.
func WithOption(key string, value any) OpenOption {
	return func(cfg *openConfig) { cfg.options[key] = value }
}

// WithOptions merges engine open options, later calls winning on
// conflict.
func WithOptions(opts engine.Options) OpenOption {
	return func(cfg *openConfig) {
		for k, v := range opts {
			cfg.options[k] = v
		}
	}
}

// WithCFAOptions sets the configuration sub-mapping forwarded to the
// CFA engine.
func WithCFAOptions(opts engine.Options) OpenOption {
	return func(cfg *openConfig) { cfg.cfaOptions = opts }
}
