package cloud

import (
	"sync"

	"github.com/danny-lloyd/datapoint/engine"
	"github.com/danny-lloyd/datapoint/kerchunk"
)

var (
	defaultEngines     *engine.Registry
	defaultEnginesOnce sync.Once
)

// DefaultEngines returns the shared engine registry used by products
// that were not given their own. The kerchunk engine is
// pre-registered; consumers with CFA assets register their CFA engine
// here (or supply a registry through ProductConfig.Engines):
//
//	cloud.DefaultEngines().Register(string(cloud.FormatCFA), cfaEngine)
func DefaultEngines() *engine.Registry {
	defaultEnginesOnce.Do(func() {
		defaultEngines = engine.NewRegistry()
		defaultEngines.Register(string(FormatKerchunk), kerchunk.Engine{Client: &kerchunk.Client{}})
	})
	return defaultEngines
}
