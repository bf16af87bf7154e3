package testsCommon

import (
	"context"

	"github.com/iulianpascalau/quality-collector/model"
)

// ReporterStub -
type ReporterStub struct {
	ReportHandler func(ctx context.Context, measurement model.Measurement) error
}

// Report -
func (stub *ReporterStub) Report(ctx context.Context, measurement model.Measurement) error {
	if stub.ReportHandler != nil {
		return stub.ReportHandler(ctx, measurement)
	}

	return nil
}

// IsInterfaceNil -
func (stub *ReporterStub) IsInterfaceNil() bool {
	return stub == nil
}
