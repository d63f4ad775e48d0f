package cloud

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/danny-lloyd/datapoint/engine"
	"github.com/danny-lloyd/datapoint/kerchunk"
	"github.com/danny-lloyd/datapoint/metric"
)

// ProductConfig assembles a Product from catalog-search output. Only
// Asset is semantically required; everything else has a usable default.
type ProductConfig struct {
	// Asset is the descriptor for this product's resource.
	Asset Asset

	// ID identifies the product. A short random id is generated when
	// empty.
	ID string

	// Format is the cloud format tag for the asset.
	Format Format

	// Order is a reserved priority field carried through from the
	// catalog. No behavior is attached.
	Order int

	// Mode is the dataset mode. Defaults to ModeXarray, the only
	// implemented value.
	Mode string

	// Meta is metadata inherited from the parent catalog object.
	Meta map[string]any

	// Attrs are STAC-style structural attributes of the parent item.
	Attrs map[string]any

	// Properties is the parent item's properties mapping.
	Properties map[string]any

	// Resolver classifies the asset's reachability. A default resolver
	// against DefaultRemoteHost is used when nil.
	Resolver *Resolver

	// Kerchunk fetches and opens reference documents. A default client
	// is used when nil.
	Kerchunk *kerchunk.Client

	// Engines resolves non-kerchunk formats. Defaults to
	// DefaultEngines().
	Engines *engine.Registry

	// Log receives warnings and debug traces. Defaults to
	// slog.Default().
	Log *slog.Logger

	// Metrics receives open instrumentation. Optional.
	Metrics *metric.Metrics
}

// Product is one openable dataset reference with a resolved
// reachability state. Construct with [NewProduct]; construction is
// pure, the reachability probe runs in [Product.Resolve].
type Product struct {
	id         string
	order      int
	format     Format
	asset      Asset
	meta       map[string]any
	attrs      map[string]any
	properties map[string]any

	visibility Visibility
	resolveMu  sync.Mutex

	resolver *Resolver
	kerchunk *kerchunk.Client
	engines  *engine.Registry
	log      *slog.Logger
	metrics  *metric.Metrics
}

// NewProduct creates a Product from catalog-search output. It performs
// no I/O; call [Product.Resolve] (or let the first Open do it) to
// classify reachability.
func NewProduct(cfg ProductConfig) (*Product, error) {
	if cfg.Mode != "" && cfg.Mode != ModeXarray {
		return nil, fmt.Errorf("cloud: mode %q: %w - cf-python style modes are a future option", cfg.Mode, ErrUnsupportedMode)
	}

	id := cfg.ID
	if id == "" {
		id = "product-" + gonanoid.Must(6)
	}

	meta := make(map[string]any, len(cfg.Meta)+2)
	for k, v := range cfg.Meta {
		meta[k] = v
	}
	meta["asset_id"] = id
	meta["cloud_format"] = string(cfg.Format)

	p := &Product{
		id:         id,
		order:      cfg.Order,
		format:     cfg.Format,
		asset:      cfg.Asset,
		meta:       meta,
		attrs:      cfg.Attrs,
		properties: cfg.Properties,
		resolver:   cfg.Resolver,
		kerchunk:   cfg.Kerchunk,
		engines:    cfg.Engines,
		log:        cfg.Log,
		metrics:    cfg.Metrics,
	}
	if p.resolver == nil {
		p.resolver = &Resolver{Log: cfg.Log, Metrics: cfg.Metrics}
	}
	if p.kerchunk == nil {
		p.kerchunk = &kerchunk.Client{
			HTTPClient: p.resolver.HTTPClient,
			Store:      p.resolver.Store,
			Host:       p.resolver.Host,
			Log:        cfg.Log,
			Metrics:    cfg.Metrics,
		}
	}
	if p.engines == nil {
		p.engines = DefaultEngines()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p, nil
}

// ID returns the product identifier.
func (p *Product) ID() string { return p.id }

// CloudFormat returns the product's cloud format tag.
func (p *Product) CloudFormat() Format { return p.format }

// Href returns the asset href. Read through the stored asset on each
// call rather than cached separately.
func (p *Product) Href() string { return p.asset.Href }

// Order returns the reserved catalog priority field.
func (p *Product) Order() int { return p.order }

// Visibility returns the reachability classification, or
// VisibilityUnresolved before any probe ran.
func (p *Product) Visibility() Visibility { return p.visibility }

// Meta returns the product metadata mapping.
func (p *Product) Meta() map[string]any { return p.meta }

// Properties returns the parent item's properties mapping.
func (p *Product) Properties() map[string]any { return p.properties }

// Attrs returns the STAC-style structural attributes.
func (p *Product) Attrs() map[string]any { return p.attrs }

// Resolve runs the reachability probe once and stores the result.
// Subsequent calls return the stored classification without further
// I/O, so the value may become stale.
func (p *Product) Resolve(ctx context.Context) (Visibility, error) {
	p.resolveMu.Lock()
	defer p.resolveMu.Unlock()
	if p.visibility != VisibilityUnresolved {
		return p.visibility, nil
	}
	vis, err := p.resolver.Resolve(ctx, p.Href())
	if err != nil {
		return VisibilityUnresolved, err
	}
	p.visibility = vis
	return vis, nil
}

// Open materializes the product into an open dataset handle. Products
// classified local-only refuse to open unless the caller passes
// [LocalOnly]; local-only kerchunk opens localize the reference
// document first. An unresolved product is resolved before opening.
func (p *Product) Open(ctx context.Context, opts ...OpenOption) (engine.Dataset, error) {
	cfg := applyOpenOptions(opts)

	if p.format == "" {
		return nil, fmt.Errorf("cloud: %w", ErrNoCloudFormat)
	}

	if p.visibility == VisibilityUnresolved {
		if _, err := p.Resolve(ctx); err != nil {
			return nil, err
		}
	}
	if p.visibility == VisibilityLocalOnly && !cfg.localOnly {
		return nil, fmt.Errorf("cloud: %w", ErrLocalOnly)
	}

	var (
		ds  engine.Dataset
		err error
	)
	switch p.format {
	case FormatKerchunk:
		ds, err = p.openKerchunk(ctx, cfg)
	case FormatCFA:
		ds, err = p.openCFA(ctx, cfg)
	default:
		return nil, fmt.Errorf("cloud: %q: %w", string(p.format), ErrUnknownCloudFormat)
	}
	if err != nil {
		if errors.Is(err, engine.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("cloud: %w: %s: %w", ErrNotFound, p.Href(), err)
		}
		return nil, err
	}

	p.metrics.DatasetOpened(string(p.format))
	return ds, nil
}

func (p *Product) openKerchunk(ctx context.Context, cfg *openConfig) (engine.Dataset, error) {
	if p.asset.Href == "" {
		return nil, fmt.Errorf("cloud: %w", ErrNoHref)
	}

	// Precedence: engine default, then asset options, then caller
	// options.
	zarrOpts := engine.Merge(
		engine.Options{"consolidated": false},
		p.asset.ZarrOptions,
		cfg.options,
	)

	if cfg.localOnly {
		refs, err := p.kerchunk.FetchLocal(ctx, p.asset.Href)
		if err != nil {
			return nil, err
		}
		return p.kerchunk.OpenReferences(ctx, refs, p.asset.MapperOptions, zarrOpts)
	}
	return p.kerchunk.Open(ctx, p.asset.Href, p.asset.MapperOptions, zarrOpts)
}

func (p *Product) openCFA(ctx context.Context, cfg *openConfig) (engine.Dataset, error) {
	if p.asset.Href == "" {
		return nil, fmt.Errorf("cloud: %w", ErrNoHref)
	}

	eng, ok := p.engines.Get(string(FormatCFA))
	if !ok {
		return nil, fmt.Errorf("cloud: %s: %w", FormatCFA, engine.ErrUnknownEngine)
	}

	opts := engine.Merge(p.asset.XarrayOptions, cfg.options)
	cfaOpts := cfg.cfaOptions
	if cfaOpts == nil {
		cfaOpts = engine.Options{}
	}
	opts["cfa_options"] = cfaOpts

	return eng.Open(ctx, p.asset.Href, opts)
}

// String implements fmt.Stringer.
func (p *Product) String() string {
	return fmt.Sprintf("<Product: %s (format: %s)>", p.id, p.format)
}

// Info returns a textual summary of the product: id, format,
// visibility and the item properties.
func (p *Product) Info() string {
	var b strings.Builder
	fmt.Fprintln(&b, p.String())
	fmt.Fprintf(&b, "Visibility: %s\n", p.displayVisibility())
	fmt.Fprintln(&b, "Attributes:")
	keys := make([]string, 0, len(p.properties))
	for k := range p.properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, " - %s: %v\n", k, p.properties[k])
	}
	return b.String()
}

func (p *Product) displayVisibility() Visibility {
	if p.visibility == VisibilityUnresolved {
		return "unresolved"
	}
	return p.visibility
}
