package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danny-lloyd/datapoint/engine"
	"github.com/danny-lloyd/datapoint/pkg/hashid"
)

// ClusterConfig configures a Cluster.
type ClusterConfig struct {
	// ParentID is the id of the parent search result or catalog item.
	// The cluster id derives deterministically from it.
	ParentID string

	// Meta is metadata about the parent object. The cluster records
	// the raw member count under the "products" key.
	Meta map[string]any

	// LocalOnly switches all opens through this cluster to local-only
	// access by default. Per-call opt-in still applies on top.
	LocalOnly bool

	// ShowUnreachable includes products classified unreachable in the
	// Products view.
	ShowUnreachable bool

	// Log receives the open-by-missing-id warnings. Defaults to
	// slog.Default().
	Log *slog.Logger
}

// Member is an entry accepted by [NewCluster]: a *Product or a
// *Cluster. Nested clusters are flattened one level, contributing the
// products of their own filtered view.
type Member interface {
	clusterProducts() []*Product
}

func (p *Product) clusterProducts() []*Product {
	if p == nil {
		return nil
	}
	return []*Product{p}
}

func (c *Cluster) clusterProducts() []*Product {
	if c == nil {
		return nil
	}
	return c.Products()
}

// Cluster is an ordered, deduplicated collection of products derived
// from one search result. Read-only after construction.
type Cluster struct {
	id              string
	order           []string
	products        map[string]*Product
	meta            map[string]any
	localOnly       bool
	showUnreachable bool
	log             *slog.Logger
}

// NewCluster builds a cluster from an ordered sequence of members.
// Nil members are ignored and nested clusters are flattened one level.
// Later members with a duplicate product id overwrite earlier ones
// (last write wins) while keeping the first-seen position. The
// metadata "products" count records the raw number of members passed,
// not the deduplicated total.
func NewCluster(cfg ClusterConfig, members ...Member) *Cluster {
	meta := make(map[string]any, len(cfg.Meta)+1)
	for k, v := range cfg.Meta {
		meta[k] = v
	}
	meta["products"] = len(members)

	c := &Cluster{
		id:              fmt.Sprintf("%s-%s", cfg.ParentID, hashid.Hash(cfg.ParentID)),
		products:        make(map[string]*Product),
		meta:            meta,
		localOnly:       cfg.LocalOnly,
		showUnreachable: cfg.ShowUnreachable,
		log:             cfg.Log,
	}
	if c.log == nil {
		c.log = slog.Default()
	}

	for _, m := range members {
		if m == nil {
			continue
		}
		for _, p := range m.clusterProducts() {
			if p == nil {
				continue
			}
			if _, seen := c.products[p.ID()]; !seen {
				c.order = append(c.order, p.ID())
			}
			c.products[p.ID()] = p
		}
	}
	return c
}

// ID returns the cluster identifier.
func (c *Cluster) ID() string { return c.id }

// Meta returns the cluster metadata mapping.
func (c *Cluster) Meta() map[string]any { return c.meta }

// Len returns the number of distinct products held, regardless of
// visibility.
func (c *Cluster) Len() int { return len(c.products) }

// IDs returns the product ids in insertion order of first appearance.
func (c *Cluster) IDs() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Products returns the contained products in insertion order,
// excluding unreachable ones unless the cluster was configured with
// ShowUnreachable.
func (c *Cluster) Products() []*Product {
	out := make([]*Product, 0, len(c.order))
	for _, id := range c.order {
		p := c.products[id]
		if p.Visibility() != VisibilityUnreachable || c.showUnreachable {
			out = append(out, p)
		}
	}
	return out
}

// Product returns the product with the given id, failing with
// ErrProductNotFound when absent.
func (c *Cluster) Product(id string) (*Product, error) {
	p, ok := c.products[id]
	if !ok {
		return nil, fmt.Errorf("cloud: %q: %w", id, ErrProductNotFound)
	}
	return p, nil
}

// ProductAt returns the product at the given position in insertion
// order, failing with ErrProductNotFound when out of range.
func (c *Cluster) ProductAt(i int) (*Product, error) {
	if i < 0 || i >= len(c.order) {
		return nil, fmt.Errorf("cloud: index %d: %w", i, ErrProductNotFound)
	}
	return c.Product(c.order[i])
}

// OpenDataset opens the identified product's dataset. Unlike direct
// indexing, a missing id is not an error here: it logs a warning and
// returns a nil dataset, keeping bulk open loops going. The cluster's
// LocalOnly default is ORed with any per-call [LocalOnly] option.
func (c *Cluster) OpenDataset(ctx context.Context, id string, opts ...OpenOption) (engine.Dataset, error) {
	cfg := applyOpenOptions(opts)
	if cfg.mode != ModeXarray {
		return nil, fmt.Errorf("cloud: mode %q: %w - cf-python style modes are a future option", cfg.mode, ErrUnsupportedMode)
	}

	p, ok := c.products[id]
	if !ok {
		c.log.Warn("dataset not found in available products",
			slog.String("id", id),
			slog.String("cluster", c.id))
		return nil, nil
	}

	if c.localOnly {
		opts = append(opts, LocalOnly())
	}
	return p.Open(ctx, opts...)
}

// OpenDatasetAt opens the dataset at the given position. Unlike the
// id-based path, an out-of-range position fails hard with
// ErrProductNotFound, matching direct indexing.
func (c *Cluster) OpenDatasetAt(ctx context.Context, i int, opts ...OpenOption) (engine.Dataset, error) {
	if i < 0 || i >= len(c.order) {
		return nil, fmt.Errorf("cloud: index %d: %w", i, ErrProductNotFound)
	}
	return c.OpenDataset(ctx, c.order[i], opts...)
}

// OpenDatasets would combine all products into a single dataset. The
// combine feature has not been implemented; the call always fails.
func (c *Cluster) OpenDatasets() (engine.Dataset, error) {
	return nil, fmt.Errorf(`cloud: "combine" feature: %w`, ErrNotImplemented)
}

// String implements fmt.Stringer.
func (c *Cluster) String() string {
	return fmt.Sprintf("<Cluster: %s (datasets: %d)>", c.id, len(c.products))
}

// Info returns a textual summary of the cluster and its products,
// annotating any product whose visibility is restricted.
func (c *Cluster) Info() string {
	var b strings.Builder
	fmt.Fprintln(&b, c.String())
	fmt.Fprintln(&b, "Products:")
	for _, id := range c.order {
		p := c.products[id]
		if p.Visibility() != VisibilityAll {
			fmt.Fprintf(&b, " - %s: %s (%s)\n", p.ID(), p.CloudFormat(), p.displayVisibility())
		} else {
			fmt.Fprintf(&b, " - %s: %s\n", p.ID(), p.CloudFormat())
		}
	}
	return b.String()
}
