package api

import "errors"

var (
	errNilStorage          = errors.New("nil storage")
	errNilMeasurementStore = errors.New("nil measurement store")
	errNilMetricProvider   = errors.New("nil metric provider")
	errNilHTTPHandler      = errors.New("nil http handler")
)
