package evaluation

import (
	"testing"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func source(uuid string, value string) model.SourceMeasurement {
	return model.SourceMeasurement{
		SourceUUID: uuid,
		Type:       "json",
		Value:      model.StringPtr(value),
	}
}

func sumMetric() model.Metric {
	return model.Metric{
		UUID:      "metric-1",
		Addition:  model.AdditionSum,
		Direction: model.HigherIsBetter,
		Target:    "10",
		Sources: map[string]model.SourceConfig{
			"s1": {Type: "json"},
			"s2": {Type: "json"},
		},
	}
}

func TestAggregate_Count(t *testing.T) {
	t.Parallel()

	sources := []model.SourceMeasurement{source("s1", "4"), source("s2", "6")}

	t.Run("sum", func(t *testing.T) {
		t.Parallel()

		value := Aggregate(sources, sumMetric(), model.ScaleCount)
		require.NotNil(t, value)
		assert.Equal(t, "10", *value)
	})
	t.Run("min and max", func(t *testing.T) {
		t.Parallel()

		metric := sumMetric()
		metric.Addition = model.AdditionMin
		assert.Equal(t, "4", *Aggregate(sources, metric, model.ScaleCount))

		metric.Addition = model.AdditionMax
		assert.Equal(t, "6", *Aggregate(sources, metric, model.ScaleCount))
	})
	t.Run("no sources", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, Aggregate(nil, sumMetric(), model.ScaleCount))
	})
	t.Run("any source error", func(t *testing.T) {
		t.Parallel()

		broken := []model.SourceMeasurement{source("s1", "4"), {SourceUUID: "s2", ConnectionError: "refused"}}
		assert.Nil(t, Aggregate(broken, sumMetric(), model.ScaleCount))
	})
	t.Run("non numeric value", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, Aggregate([]model.SourceMeasurement{source("s1", "abc")}, sumMetric(), model.ScaleCount))
	})
}

func TestAggregate_IgnoredEntities(t *testing.T) {
	t.Parallel()

	s := source("s1", "5")
	s.Entities = []model.Entity{
		{Key: "a", Attributes: map[string]string{"points": "3"}},
		{Key: "b", Attributes: map[string]string{"points": "2"}},
		{Key: "c", Attributes: map[string]string{"points": "8"}},
	}
	s.EntityUserData = map[string]model.EntityUserData{
		"a":      {Status: model.EntityFalsePositive},
		"b":      {Status: model.EntityConfirmed},
		"c":      {Status: model.EntityWontFix},
		"absent": {Status: model.EntityFixed},
	}

	t.Run("counting ignored entities", func(t *testing.T) {
		t.Parallel()

		metric := sumMetric()
		assert.Equal(t, "3", *Aggregate([]model.SourceMeasurement{s}, metric, model.ScaleCount))
	})
	t.Run("summing the measured attribute", func(t *testing.T) {
		t.Parallel()

		metric := sumMetric()
		metric.Sources["s1"] = model.SourceConfig{Type: "json", MeasuredAttribute: "points"}
		assert.Equal(t, "-6", *Aggregate([]model.SourceMeasurement{s}, metric, model.ScaleCount))
	})
}

func TestAggregate_Percentage(t *testing.T) {
	t.Parallel()

	s1 := source("s1", "1")
	s1.Total = model.StringPtr("3")
	s2 := source("s2", "1")
	s2.Total = model.StringPtr("1")

	metric := sumMetric()
	metric.Scale = model.ScalePercentage

	assert.Equal(t, "50", *Aggregate([]model.SourceMeasurement{s1, s2}, metric, model.ScalePercentage))

	metric.Addition = model.AdditionMax
	assert.Equal(t, "100", *Aggregate([]model.SourceMeasurement{s1, s2}, metric, model.ScalePercentage))

	metric.Addition = model.AdditionMin
	assert.Equal(t, "33", *Aggregate([]model.SourceMeasurement{s1, s2}, metric, model.ScalePercentage))

	t.Run("zero total depends on direction", func(t *testing.T) {
		t.Parallel()

		empty := source("s1", "0")
		empty.Total = model.StringPtr("0")
		m := sumMetric()
		m.Direction = model.LowerIsBetter
		assert.Equal(t, "0", *Aggregate([]model.SourceMeasurement{empty}, m, model.ScalePercentage))
		m.Direction = model.HigherIsBetter
		assert.Equal(t, "100", *Aggregate([]model.SourceMeasurement{empty}, m, model.ScalePercentage))
	})
	t.Run("missing total", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, Aggregate([]model.SourceMeasurement{source("s1", "1")}, sumMetric(), model.ScalePercentage))
	})
}

func TestAggregate_VersionNumber(t *testing.T) {
	t.Parallel()

	sources := []model.SourceMeasurement{source("s1", "1.10.2"), source("s2", "1.9")}
	metric := sumMetric()

	metric.Addition = model.AdditionMax
	assert.Equal(t, "1.10.2", *Aggregate(sources, metric, model.ScaleVersionNumber))

	metric.Addition = model.AdditionMin
	assert.Equal(t, "1.9", *Aggregate(sources, metric, model.ScaleVersionNumber))

	assert.Nil(t, Aggregate([]model.SourceMeasurement{source("s1", "latest")}, metric, model.ScaleVersionNumber))
}

func TestEvaluate(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)
	metric := sumMetric()
	metric.Scales = []model.Scale{model.ScalePercentage}

	s1 := source("s1", "4")
	s1.Total = model.StringPtr("10")
	s2 := source("s2", "6")
	s2.Total = model.StringPtr("10")

	scales := Evaluate([]model.SourceMeasurement{s1, s2}, metric, nil, now)
	require.Len(t, scales, 2)
	assert.Equal(t, "10", *scales[model.ScaleCount].Value)
	assert.Equal(t, model.StatusTargetMet, scales[model.ScaleCount].Status)
	assert.Equal(t, "50", *scales[model.ScalePercentage].Value)
	assert.Equal(t, model.StatusTargetMet, scales[model.ScalePercentage].Status)
	assert.Equal(t, "2026-10-19T10:00:00Z", scales[model.ScaleCount].StatusStart)

	previous := &model.Measurement{Scales: map[model.Scale]model.ScaleValue{
		model.ScaleCount:      {Value: model.StringPtr("11"), Status: model.StatusTargetMet, StatusStart: "2026-10-01T00:00:00Z"},
		model.ScalePercentage: {Value: model.StringPtr("5"), Status: model.StatusTargetNotMet, StatusStart: "2026-10-01T00:00:00Z"},
	}}
	later := Evaluate([]model.SourceMeasurement{s1, s2}, metric, previous, now.Add(time.Hour))
	assert.Equal(t, "2026-10-01T00:00:00Z", later[model.ScaleCount].StatusStart)
	assert.Equal(t, "2026-10-19T11:00:00Z", later[model.ScalePercentage].StatusStart)
}
