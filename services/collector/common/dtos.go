package common

import "github.com/iulianpascalau/quality-collector/model"

// MetricsResponse is the payload returned by the measurements service when listing metric definitions
type MetricsResponse struct {
	Metrics []model.Metric `json:"metrics"`
}
