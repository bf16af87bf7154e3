package merge

import (
	"context"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
)

// Storage is the persistence contract of the measurement store
type Storage interface {
	// FindLatest returns the most recent measurement of the metric by start, or nil
	FindLatest(ctx context.Context, metricUUID string) (*model.Measurement, error)
	// FindLatestSuccessful returns the most recent measurement of the metric without errors, or nil
	FindLatestSuccessful(ctx context.Context, metricUUID string) (*model.Measurement, error)
	Insert(ctx context.Context, measurement model.Measurement) error
	ExtendEnd(ctx context.Context, measurementID string, end time.Time) error

	IsInterfaceNil() bool
}

// MetricProvider gives read-only access to the metric definitions
type MetricProvider interface {
	GetMetric(uuid string) (model.Metric, bool)

	IsInterfaceNil() bool
}
