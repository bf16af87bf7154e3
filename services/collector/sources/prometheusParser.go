package sources

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/cache"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const labelParameterPrefix = "label."

// prometheusParser reads a metric family from a Prometheus text exposition. Every matching sample becomes an entity.
type prometheusParser struct{}

// Parse sums the samples of the configured metric family (and of the total family, if configured)
func (p *prometheusParser) Parse(responses []cache.Response, source model.SourceConfig) (model.SourceResult, error) {
	if len(responses) == 0 {
		return model.SourceResult{}, errNoResponses
	}

	params := source.Parameters
	metricName := strings.TrimSpace(params["metric"])
	if len(metricName) == 0 {
		return model.SourceResult{}, fmt.Errorf("%w: metric", errMissingParameter)
	}
	totalName := strings.TrimSpace(params["total_metric"])
	filters := labelFilters(params)

	var value, total float64
	var entities []model.Entity
	for _, response := range responses {
		families, err := parseMetricFamilies(response.Body)
		if err != nil {
			return model.SourceResult{}, err
		}

		family, found := families[metricName]
		if !found {
			return model.SourceResult{}, errMetricFamilyNotFound(metricName)
		}
		for _, m := range family.GetMetric() {
			if !matchesLabels(m, filters) {
				continue
			}
			sample := sampleValue(m)
			value += sample
			entities = append(entities, sampleEntity(metricName, m, sample))
		}

		if len(totalName) > 0 {
			totalFamily, foundTotal := families[totalName]
			if !foundTotal {
				return model.SourceResult{}, errMetricFamilyNotFound(totalName)
			}
			for _, m := range totalFamily.GetMetric() {
				if matchesLabels(m, filters) {
					total += sampleValue(m)
				}
			}
		}
	}

	var totalPtr *string
	if len(totalName) > 0 {
		totalPtr = model.StringPtr(formatNumber(total))
	}

	return model.Success(model.StringPtr(formatNumber(value)), totalPtr, entities), nil
}

func parseMetricFamilies(body []byte) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(bytes.NewReader(body))
	if err != nil && len(families) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}

	return families, nil
}

func labelFilters(params map[string]string) map[string]string {
	filters := make(map[string]string)
	for name, value := range params {
		if strings.HasPrefix(name, labelParameterPrefix) {
			filters[strings.TrimPrefix(name, labelParameterPrefix)] = value
		}
	}

	return filters
}

func matchesLabels(m *dto.Metric, filters map[string]string) bool {
	if len(filters) == 0 {
		return true
	}

	labels := make(map[string]string, len(m.GetLabel()))
	for _, pair := range m.GetLabel() {
		labels[pair.GetName()] = pair.GetValue()
	}
	for name, expected := range filters {
		if labels[name] != expected {
			return false
		}
	}

	return true
}

func sampleValue(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	default:
		return 0
	}
}

func sampleEntity(metricName string, m *dto.Metric, sample float64) model.Entity {
	pairs := m.GetLabel()
	attributes := make(map[string]string, len(pairs)+1)
	names := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		attributes[pair.GetName()] = pair.GetValue()
		names = append(names, pair.GetName())
	}
	sort.Strings(names)

	labelSet := make([]string, 0, len(names))
	for _, name := range names {
		labelSet = append(labelSet, fmt.Sprintf("%s=%q", name, attributes[name]))
	}
	attributes["value"] = formatNumber(sample)

	return model.Entity{
		Key:        metricName + "{" + strings.Join(labelSet, ",") + "}",
		Attributes: attributes,
	}
}
