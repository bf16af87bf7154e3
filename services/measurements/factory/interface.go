package factory

import "github.com/iulianpascalau/quality-collector/services/measurements/api"

// Server defines the operation of an entity able to serve requests
type Server interface {
	Start()
	Address() string
	Close() error
}

// MeasurementsStorage is the persistent storage used by both the merge engine and the API
type MeasurementsStorage interface {
	api.Storage
	Close() error
}

// MetricsProvider is the source of metric definitions, able to follow the changes of its backing file
type MetricsProvider interface {
	api.MetricProvider
	StartWatching() error
	Close() error
}
