package sources

import (
	"fmt"
	"sync"

	"github.com/multiversx/mx-chain-core-go/core/check"
)

// AnyMetricType registers a collector for every metric type of a source type
const AnyMetricType = "*"

type registryKey struct {
	sourceType string
	metricType string
}

type registry struct {
	mut        sync.RWMutex
	collectors map[registryKey]SourceCollector
}

// NewRegistry creates an empty collector registry
func NewRegistry() *registry {
	return &registry{
		collectors: make(map[registryKey]SourceCollector),
	}
}

// NewDefaultRegistry creates a registry holding the builtin json, prometheus and junit collectors
func NewDefaultRegistry() (*registry, error) {
	r := NewRegistry()

	builtins := map[string]Parser{
		"json":       &jsonParser{},
		"prometheus": &prometheusParser{},
		"junit":      &junitParser{},
	}
	for sourceType, parser := range builtins {
		collector, err := NewHTTPCollector(parser)
		if err != nil {
			return nil, err
		}

		err = r.Register(sourceType, AnyMetricType, collector)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Register adds the collector for the source type and metric type pair, replacing any previous one
func (r *registry) Register(sourceType string, metricType string, collector SourceCollector) error {
	if check.IfNil(collector) {
		return fmt.Errorf("%w for source type %s", errNilCollector, sourceType)
	}

	r.mut.Lock()
	r.collectors[registryKey{sourceType: sourceType, metricType: metricType}] = collector
	r.mut.Unlock()

	return nil
}

// Get returns the collector for the pair, falling back to the collector registered for any metric type
func (r *registry) Get(sourceType string, metricType string) (SourceCollector, bool) {
	r.mut.RLock()
	defer r.mut.RUnlock()

	collector, found := r.collectors[registryKey{sourceType: sourceType, metricType: metricType}]
	if found {
		return collector, true
	}

	collector, found = r.collectors[registryKey{sourceType: sourceType, metricType: AnyMetricType}]
	return collector, found
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *registry) IsInterfaceNil() bool {
	return r == nil
}
