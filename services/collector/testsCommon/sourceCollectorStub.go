package testsCommon

import (
	"context"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/sources"
)

// SourceCollectorStub -
type SourceCollectorStub struct {
	CollectHandler func(ctx context.Context, source model.SourceConfig, fetcher sources.Fetcher) model.SourceResult
}

// Collect -
func (stub *SourceCollectorStub) Collect(ctx context.Context, source model.SourceConfig, fetcher sources.Fetcher) model.SourceResult {
	if stub.CollectHandler != nil {
		return stub.CollectHandler(ctx, source, fetcher)
	}

	return model.Success(nil, nil, nil)
}

// IsInterfaceNil -
func (stub *SourceCollectorStub) IsInterfaceNil() bool {
	return stub == nil
}
