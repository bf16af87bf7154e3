package testsCommon

import (
	"context"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/measurements/common"
)

// MeasurementStoreStub -
type MeasurementStoreStub struct {
	IngestHandler            func(ctx context.Context, measurement model.Measurement) (common.Outcome, error)
	SetEntityUserDataHandler func(ctx context.Context, metricUUID string, sourceUUID string, key string, data model.EntityUserData) (model.Measurement, error)
}

// Ingest -
func (stub *MeasurementStoreStub) Ingest(ctx context.Context, measurement model.Measurement) (common.Outcome, error) {
	if stub.IngestHandler != nil {
		return stub.IngestHandler(ctx, measurement)
	}

	return common.OutcomeInserted, nil
}

// SetEntityUserData -
func (stub *MeasurementStoreStub) SetEntityUserData(ctx context.Context, metricUUID string, sourceUUID string, key string, data model.EntityUserData) (model.Measurement, error) {
	if stub.SetEntityUserDataHandler != nil {
		return stub.SetEntityUserDataHandler(ctx, metricUUID, sourceUUID, key, data)
	}

	return model.Measurement{MetricUUID: metricUUID}, nil
}

// IsInterfaceNil -
func (stub *MeasurementStoreStub) IsInterfaceNil() bool {
	return stub == nil
}
