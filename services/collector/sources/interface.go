package sources

import (
	"context"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/cache"
)

// SourceCollector collects the contribution of one source to one metric. Implementations never return errors:
// failures are reported inside the result.
type SourceCollector interface {
	Collect(ctx context.Context, source model.SourceConfig, fetcher Fetcher) model.SourceResult
	IsInterfaceNil() bool
}

// Parser turns the raw responses of a source into a successful result or a parse error
type Parser interface {
	Parse(responses []cache.Response, source model.SourceConfig) (model.SourceResult, error)
}

// Fetcher retrieves all the responses a request expands into (pages, archive members)
type Fetcher interface {
	Fetch(ctx context.Context, request Request) ([]cache.Response, error)
	IsInterfaceNil() bool
}

// ResponseCache is the cache consulted before every network request
type ResponseCache interface {
	GetOrFetch(signature cache.Signature, ttl time.Duration, fetch func() (cache.Response, error)) (cache.Response, error)
	IsInterfaceNil() bool
}
