package testsCommon

import (
	"context"

	"github.com/iulianpascalau/quality-collector/services/collector/cache"
	"github.com/iulianpascalau/quality-collector/services/collector/sources"
)

// FetcherStub -
type FetcherStub struct {
	FetchHandler func(ctx context.Context, request sources.Request) ([]cache.Response, error)
}

// Fetch -
func (stub *FetcherStub) Fetch(ctx context.Context, request sources.Request) ([]cache.Response, error) {
	if stub.FetchHandler != nil {
		return stub.FetchHandler(ctx, request)
	}

	return make([]cache.Response, 0), nil
}

// IsInterfaceNil -
func (stub *FetcherStub) IsInterfaceNil() bool {
	return stub == nil
}
