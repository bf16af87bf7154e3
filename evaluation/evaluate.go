package evaluation

import (
	"time"

	"github.com/iulianpascalau/quality-collector/model"
)

// Evaluate computes the value and status for every scale the metric supports. The status start is carried
// over from the previous measurement when the status did not change.
func Evaluate(sources []model.SourceMeasurement, metric model.Metric, previous *model.Measurement, now time.Time) map[model.Scale]model.ScaleValue {
	scales := metric.SupportedScales()
	result := make(map[model.Scale]model.ScaleValue, len(scales))
	for _, scale := range scales {
		value := Aggregate(sources, metric, scale)
		status := Status(value, metric, scale, now)

		statusStart := model.FormatTimestamp(now)
		if previous != nil {
			prev, found := previous.Scales[scale]
			if found && prev.Status == status && len(prev.StatusStart) > 0 {
				statusStart = prev.StatusStart
			}
		}

		result[scale] = model.ScaleValue{
			Value:       value,
			Status:      status,
			StatusStart: statusStart,
		}
	}

	return result
}
