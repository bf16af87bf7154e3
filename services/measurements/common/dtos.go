package common

import "github.com/iulianpascalau/quality-collector/model"

// Outcome is the result of ingesting a measurement
type Outcome string

const (
	// OutcomeMerged means the measurement repeated the latest one, whose end was moved
	OutcomeMerged Outcome = "merged"
	// OutcomeInserted means the measurement was stored as a new state
	OutcomeInserted Outcome = "inserted"
	// OutcomeDropped means the metric or one of its sources no longer exists
	OutcomeDropped Outcome = "dropped"
)

// IngestResponse is returned after a measurement was posted
type IngestResponse struct {
	Outcome Outcome `json:"outcome"`
}

// MetricsResponse lists the metric definitions
type MetricsResponse struct {
	Metrics []model.Metric `json:"metrics"`
}

// MeasurementsResponse lists the measurements of a metric
type MeasurementsResponse struct {
	Measurements []model.Measurement `json:"measurements"`
}

// EntityUserDataRequest is the body of an entity annotation
type EntityUserDataRequest struct {
	Status    model.EntityStatus `json:"status"`
	Rationale string             `json:"rationale"`
}

// ErrorResponse is returned on failed requests
type ErrorResponse struct {
	Error string `json:"error"`
}
