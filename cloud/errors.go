package cloud

import "errors"

// Error kinds surfaced by the cloud client. All are fatal to the
// calling operation; only the fixed-budget reference fetch (see the
// kerchunk package) retries, and only Cluster.OpenDataset degrades a
// lookup miss to a warning.
var (
	// ErrNoHref reports an asset descriptor without an href.
	ErrNoHref = errors.New(`cloud assets with no "href" are not supported`)

	// ErrNoCloudFormat reports a product with no cloud format set.
	ErrNoCloudFormat = errors.New("no cloud format given for this dataset")

	// ErrUnknownCloudFormat reports an unsupported cloud format value.
	ErrUnknownCloudFormat = errors.New(`cloud format not recognised - must be one of ("kerchunk", "CFA")`)

	// ErrUnsupportedMode reports an open mode other than "xarray".
	ErrUnsupportedMode = errors.New(`only "xarray" mode is currently implemented`)

	// ErrLocalOnly reports an attempt to open a product that is only
	// reachable locally without opting into local access.
	ErrLocalOnly = errors.New("href not reachable via https, use local-only access to open this dataset")

	// ErrNotFound reports a missing resource at dataset-open time,
	// named with the offending href.
	ErrNotFound = errors.New("the requested resource could not be located")

	// ErrProductNotFound reports a cluster lookup with an absent id
	// or out-of-range position.
	ErrProductNotFound = errors.New("not found in available products")

	// ErrNotImplemented reports a feature that has no implementation,
	// such as combining a cluster into one dataset.
	ErrNotImplemented = errors.New("not implemented")
)
