package merge

import "errors"

var (
	errNilStorage        = errors.New("nil storage")
	errNilMetricProvider = errors.New("nil metric provider")

	// ErrMetricNotFound signals an unknown metric uuid
	ErrMetricNotFound = errors.New("metric not found")
	// ErrMeasurementNotFound signals that the metric has no measurement yet
	ErrMeasurementNotFound = errors.New("no measurement for metric")
	// ErrSourceNotFound signals an unknown source uuid
	ErrSourceNotFound = errors.New("source not found")
	// ErrEntityNotFound signals an entity key not reported by the source
	ErrEntityNotFound = errors.New("entity not found")
	// ErrInvalidEntityStatus signals an entity status outside of the known ones
	ErrInvalidEntityStatus = errors.New("invalid entity status")
)
