package testsCommon

import (
	"context"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
)

// StorageStub -
type StorageStub struct {
	FindLatestHandler           func(ctx context.Context, metricUUID string) (*model.Measurement, error)
	FindLatestSuccessfulHandler func(ctx context.Context, metricUUID string) (*model.Measurement, error)
	InsertHandler               func(ctx context.Context, measurement model.Measurement) error
	ExtendEndHandler            func(ctx context.Context, measurementID string, end time.Time) error
	MeasurementsInRangeHandler  func(ctx context.Context, metricUUID string, from time.Time, to time.Time) ([]model.Measurement, error)
	CloseHandler                func() error
}

// FindLatest -
func (stub *StorageStub) FindLatest(ctx context.Context, metricUUID string) (*model.Measurement, error) {
	if stub.FindLatestHandler != nil {
		return stub.FindLatestHandler(ctx, metricUUID)
	}

	return nil, nil
}

// FindLatestSuccessful -
func (stub *StorageStub) FindLatestSuccessful(ctx context.Context, metricUUID string) (*model.Measurement, error) {
	if stub.FindLatestSuccessfulHandler != nil {
		return stub.FindLatestSuccessfulHandler(ctx, metricUUID)
	}

	return nil, nil
}

// Insert -
func (stub *StorageStub) Insert(ctx context.Context, measurement model.Measurement) error {
	if stub.InsertHandler != nil {
		return stub.InsertHandler(ctx, measurement)
	}

	return nil
}

// ExtendEnd -
func (stub *StorageStub) ExtendEnd(ctx context.Context, measurementID string, end time.Time) error {
	if stub.ExtendEndHandler != nil {
		return stub.ExtendEndHandler(ctx, measurementID, end)
	}

	return nil
}

// MeasurementsInRange -
func (stub *StorageStub) MeasurementsInRange(ctx context.Context, metricUUID string, from time.Time, to time.Time) ([]model.Measurement, error) {
	if stub.MeasurementsInRangeHandler != nil {
		return stub.MeasurementsInRangeHandler(ctx, metricUUID, from, to)
	}

	return make([]model.Measurement, 0), nil
}

// Close -
func (stub *StorageStub) Close() error {
	if stub.CloseHandler != nil {
		return stub.CloseHandler()
	}

	return nil
}

// IsInterfaceNil -
func (stub *StorageStub) IsInterfaceNil() bool {
	return stub == nil
}
