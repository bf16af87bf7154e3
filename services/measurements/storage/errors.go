package storage

import "errors"

// ErrMeasurementNotFound signals that no measurement with the provided id exists
var ErrMeasurementNotFound = errors.New("measurement not found")
