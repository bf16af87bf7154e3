package evaluation

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iulianpascalau/quality-collector/model"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("evaluation")

var (
	errNoSources         = errors.New("no sources")
	errSourceHasError    = errors.New("source has an error")
	errMissingValue      = errors.New("missing value")
	errMissingTotal      = errors.New("missing total")
	errInvalidVersion    = errors.New("invalid version")
	errUnknownAddition   = errors.New("unknown addition")
	errUnknownScale      = errors.New("unknown scale")
	errInvalidAttribute  = errors.New("invalid measured attribute value")
	errInvalidCountValue = errors.New("invalid count value")
)

// Aggregate combines the values of the sources into one metric value for the scale. It returns nil if
// there are no sources, any source has an error or the source values can not be combined.
func Aggregate(sources []model.SourceMeasurement, metric model.Metric, scale model.Scale) *string {
	value, err := aggregate(sources, metric, scale)
	if err != nil {
		if !errors.Is(err, errNoSources) && !errors.Is(err, errSourceHasError) {
			log.Debug("can not aggregate metric value", "metric", metric.UUID, "scale", scale, "error", err)
		}
		return nil
	}

	return &value
}

func aggregate(sources []model.SourceMeasurement, metric model.Metric, scale model.Scale) (string, error) {
	if len(sources) == 0 {
		return "", errNoSources
	}
	for _, source := range sources {
		if source.HasError() {
			return "", errSourceHasError
		}
	}

	switch scale {
	case model.ScaleCount, "":
		values, err := adjustedValues(sources, metric)
		if err != nil {
			return "", err
		}
		return combineInts(values, metric.AdditionOrDefault())
	case model.ScalePercentage:
		return aggregatePercentage(sources, metric)
	case model.ScaleVersionNumber:
		return aggregateVersions(sources, metric.AdditionOrDefault())
	default:
		return "", fmt.Errorf("%w: %s", errUnknownScale, scale)
	}
}

func adjustedValues(sources []model.SourceMeasurement, metric model.Metric) ([]int, error) {
	values := make([]int, 0, len(sources))
	for _, source := range sources {
		if source.Value == nil {
			return nil, fmt.Errorf("%w for source %s", errMissingValue, source.SourceUUID)
		}

		value, err := parseCount(*source.Value)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", source.SourceUUID, err)
		}

		ignored, err := ignoredContribution(source, metric.Sources[source.SourceUUID].MeasuredAttribute)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", source.SourceUUID, err)
		}

		values = append(values, value-ignored)
	}

	return values, nil
}

// ignoredContribution sums the measured attribute of the ignored entities or counts them if there is no measured attribute
func ignoredContribution(source model.SourceMeasurement, measuredAttribute string) (int, error) {
	if len(source.EntityUserData) == 0 {
		return 0, nil
	}

	total := 0.0
	for _, entity := range source.Entities {
		userData, found := source.EntityUserData[entity.Key]
		if !found || !userData.Status.IsIgnored() {
			continue
		}

		if len(measuredAttribute) == 0 {
			total++
			continue
		}

		raw := entity.Attributes[measuredAttribute]
		if len(raw) == 0 {
			continue
		}
		attributeValue, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("%w %q for entity %s", errInvalidAttribute, raw, entity.Key)
		}
		total += attributeValue
	}

	return int(math.Round(total)), nil
}

func aggregatePercentage(sources []model.SourceMeasurement, metric model.Metric) (string, error) {
	values, err := adjustedValues(sources, metric)
	if err != nil {
		return "", err
	}

	totals := make([]int, 0, len(sources))
	for _, source := range sources {
		if source.Total == nil {
			return "", fmt.Errorf("%w for source %s", errMissingTotal, source.SourceUUID)
		}
		total, errParse := parseCount(*source.Total)
		if errParse != nil {
			return "", fmt.Errorf("source %s: %w", source.SourceUUID, errParse)
		}
		totals = append(totals, total)
	}

	addition := metric.AdditionOrDefault()
	if addition == model.AdditionSum {
		values = []int{sum(values)}
		totals = []int{sum(totals)}
	}

	percentages := make([]int, 0, len(values))
	for i := range values {
		percentages = append(percentages, percentage(values[i], totals[i], metric.Direction))
	}

	return combineInts(percentages, addition)
}

func percentage(numerator int, denominator int, direction model.Direction) int {
	if denominator == 0 {
		if direction == model.LowerIsBetter {
			return 0
		}
		return 100
	}

	return int(math.Floor(100*float64(numerator)/float64(denominator) + 0.5))
}

func aggregateVersions(sources []model.SourceMeasurement, addition model.Addition) (string, error) {
	var best version
	var bestText string
	for _, source := range sources {
		if source.Value == nil {
			return "", fmt.Errorf("%w for source %s", errMissingValue, source.SourceUUID)
		}

		v, err := parseVersion(*source.Value)
		if err != nil {
			return "", err
		}

		isBetter := best == nil
		switch addition {
		case model.AdditionMax:
			isBetter = isBetter || v.compare(best) > 0
		default:
			// the sum of versions has no meaning, so it behaves like min
			isBetter = isBetter || v.compare(best) < 0
		}
		if isBetter {
			best, bestText = v, strings.TrimSpace(*source.Value)
		}
	}

	return bestText, nil
}

func combineInts(values []int, addition model.Addition) (string, error) {
	if len(values) == 0 {
		return "", errNoSources
	}

	var result int
	switch addition {
	case model.AdditionSum:
		result = sum(values)
	case model.AdditionMin:
		result = values[0]
		for _, v := range values[1:] {
			if v < result {
				result = v
			}
		}
	case model.AdditionMax:
		result = values[0]
		for _, v := range values[1:] {
			if v > result {
				result = v
			}
		}
	default:
		return "", fmt.Errorf("%w: %s", errUnknownAddition, addition)
	}

	return strconv.Itoa(result), nil
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}

	return total
}

// parseCount accepts integers and integral floats such as "12.0"
func parseCount(s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	n, err := strconv.Atoi(trimmed)
	if err == nil {
		return n, nil
	}

	f, errFloat := strconv.ParseFloat(trimmed, 64)
	if errFloat != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", errInvalidCountValue, s)
	}

	return int(math.Round(f)), nil
}
