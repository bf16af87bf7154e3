package evaluation

import (
	"strconv"
	"strings"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
)

// Status determines the status of the value for the metric on the provided date
func Status(value *string, metric model.Metric, scale model.Scale, asOf time.Time) model.Status {
	debtValid := metric.DebtValid(asOf)
	if value == nil {
		if debtValid {
			return model.StatusDebtTargetMet
		}
		return model.StatusUnknown
	}

	ge := betterOrEqual(metric.Direction, scale)
	switch {
	case ge(*value, metric.Target):
		return model.StatusTargetMet
	case debtValid && (len(strings.TrimSpace(metric.DebtTarget)) == 0 || ge(*value, metric.DebtTarget)):
		return model.StatusDebtTargetMet
	case ge(metric.Target, metric.NearTarget) && ge(*value, metric.NearTarget):
		return model.StatusNearTargetMet
	default:
		return model.StatusTargetNotMet
	}
}

// betterOrEqual returns the comparator for the direction. Values that can not be parsed never compare as better or equal.
func betterOrEqual(direction model.Direction, scale model.Scale) func(a string, b string) bool {
	compare := compareNumbers
	if scale == model.ScaleVersionNumber {
		compare = compareVersions
	}

	return func(a string, b string) bool {
		result, ok := compare(a, b)
		if !ok {
			return false
		}
		if direction == model.LowerIsBetter {
			return result <= 0
		}
		return result >= 0
	}
}

func compareNumbers(a string, b string) (int, bool) {
	x, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	y, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return 0, false
	}

	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	default:
		return 0, true
	}
}

func compareVersions(a string, b string) (int, bool) {
	x, errA := parseVersion(a)
	y, errB := parseVersion(b)
	if errA != nil || errB != nil {
		return 0, false
	}

	return x.compare(y), true
}
