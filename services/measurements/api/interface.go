package api

import (
	"context"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/measurements/common"
)

// Storage defines the read operations on the measurements time series
type Storage interface {
	// FindLatest returns the most recent measurement of the metric or nil if there is none
	FindLatest(ctx context.Context, metricUUID string) (*model.Measurement, error)

	// MeasurementsInRange returns the measurements of the metric overlapping the [from, to] interval, oldest first
	MeasurementsInRange(ctx context.Context, metricUUID string, from time.Time, to time.Time) ([]model.Measurement, error)

	IsInterfaceNil() bool
}

// MeasurementStore defines the write operations on the measurements time series
type MeasurementStore interface {
	Ingest(ctx context.Context, measurement model.Measurement) (common.Outcome, error)
	SetEntityUserData(ctx context.Context, metricUUID string, sourceUUID string, key string, data model.EntityUserData) (model.Measurement, error)

	IsInterfaceNil() bool
}

// MetricProvider gives read-only access to the metric definitions
type MetricProvider interface {
	GetMetric(uuid string) (model.Metric, bool)
	AllMetrics() []model.Metric

	IsInterfaceNil() bool
}
