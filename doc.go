// Package datapoint provides Go client packages for opening
// cloud-hosted scientific datasets discovered through a STAC-like
// catalog.
//
// The module is a coordination layer over dataset-opening engines, not
// a storage engine: a catalog-search collaborator materializes asset
// descriptors, and these packages resolve each asset's access method
// (kerchunk reference document or CFA aggregation), probe whether the
// remote copy is reachable, and fall back to local filesystem paths
// when it is not.
//
// The packages are layered as follows:
//
//   - [github.com/danny-lloyd/datapoint/cloud] holds the client core:
//     Product (one openable dataset reference with a resolved
//     reachability state) and Cluster (a flattened, deduplicated,
//     ordered collection of products from one search result).
//
//   - [github.com/danny-lloyd/datapoint/kerchunk] fetches, localizes
//     and opens kerchunk reference documents, including the built-in
//     reference-filesystem engine.
//
//   - [github.com/danny-lloyd/datapoint/engine] defines the Dataset
//     and Engine contracts plus the format registry. Consumers with
//     CFA assets register their CFA engine here.
//
//   - [github.com/danny-lloyd/datapoint/objectstore] reads assets
//     addressed by s3:// hrefs through any S3-compatible endpoint.
//
// # Quick Start
//
//	import "github.com/danny-lloyd/datapoint/cloud"
//
//	product, err := cloud.NewProduct(cloud.ProductConfig{
//	    ID:     "cmip6-tas-ssp585",
//	    Format: cloud.FormatKerchunk,
//	    Asset:  cloud.Asset{Href: "https://dap.ceda.ac.uk/badc/refs/tas.json"},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Probe reachability once, explicitly.
//	if _, err := product.Resolve(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	ds, err := product.Open(ctx, cloud.LocalOnly())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ds.Close()
//
// Products classified "local-only" (remote probe failed but a local
// copy exists under the canonical host's path layout) refuse to open
// until the caller opts in with [cloud.LocalOnly]; local kerchunk opens
// also rewrite the document's internal chunk targets from
// "https://<host>/..." to local "/..." paths.
package datapoint
