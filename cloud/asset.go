// Package cloud is the client coordination layer for opening
// cloud-hosted datasets described by STAC-style catalog assets. A
// [Product] represents one openable dataset reference (kerchunk or
// CFA); a [Cluster] is a flattened, deduplicated, ordered collection
// of products derived from one search result. Reachability against the
// canonical remote host is resolved explicitly via [Product.Resolve]
// and gates whether a product may be opened remotely or only through
// its local filesystem fallback.
package cloud

import "github.com/danny-lloyd/datapoint/engine"

// Format identifies the reference/access technology of a product.
type Format string

// Supported cloud formats.
const (
	FormatKerchunk Format = "kerchunk"
	FormatCFA      Format = "CFA"
)

// Visibility classifies the reachability of a product's href. It is
// computed once by [Product.Resolve] and stored immutably afterward,
// so it may become stale if the remote state changes.
type Visibility string

const (
	// VisibilityUnresolved is the initial state before any probe ran.
	VisibilityUnresolved Visibility = ""

	// VisibilityAll means the href is reachable remotely.
	VisibilityAll Visibility = "all"

	// VisibilityLocalOnly means the remote probe failed but a local
	// fallback exists; callers must opt into local access.
	VisibilityLocalOnly Visibility = "local-only"

	// VisibilityUnreachable means neither the remote href nor the
	// local fallback is available.
	VisibilityUnreachable Visibility = "unreachable"
)

// Asset is the descriptor for a single catalog resource, as supplied
// by the catalog-search collaborator.
type Asset struct {
	// Href is the location of the resource. Required for opening.
	Href string

	// MapperOptions configure the reference-filesystem mapper for
	// kerchunk assets.
	MapperOptions engine.Options

	// ZarrOptions are asset-supplied open defaults for kerchunk
	// assets. They override the engine defaults and are themselves
	// overridden by caller options.
	ZarrOptions engine.Options

	// XarrayOptions are asset-supplied open defaults for CFA assets,
	// with the same precedence as ZarrOptions.
	XarrayOptions engine.Options

	// Extra carries any other asset fields the catalog supplied.
	// Passthrough only; no behavior is attached.
	Extra map[string]any
}
