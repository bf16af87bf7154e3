package testsCommon

import (
	"context"

	"github.com/iulianpascalau/quality-collector/model"
)

// MetricCollectorStub -
type MetricCollectorStub struct {
	CollectHandler func(ctx context.Context, metric model.Metric) model.Measurement
}

// Collect -
func (stub *MetricCollectorStub) Collect(ctx context.Context, metric model.Metric) model.Measurement {
	if stub.CollectHandler != nil {
		return stub.CollectHandler(ctx, metric)
	}

	return model.Measurement{MetricUUID: metric.UUID}
}

// IsInterfaceNil -
func (stub *MetricCollectorStub) IsInterfaceNil() bool {
	return stub == nil
}
