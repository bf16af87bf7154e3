package sources

import (
	"testing"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func responsesOf(bodies ...string) []cache.Response {
	responses := make([]cache.Response, 0, len(bodies))
	for _, body := range bodies {
		responses = append(responses, cache.Response{URL: "http://source", StatusCode: 200, Body: []byte(body)})
	}

	return responses
}

func TestJSONParser(t *testing.T) {
	t.Parallel()

	parser := &jsonParser{}

	t.Run("value and total", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{"value_path": "data.failed", "total_path": "data.tests"}}
		result, err := parser.Parse(responsesOf(`{"data": {"failed": 3, "tests": 40}}`, `{"data": {"failed": "2", "tests": 10}}`), source)
		require.NoError(t, err)
		assert.Equal(t, "5", *result.Value)
		assert.Equal(t, "50", *result.Total)
		assert.False(t, result.HasError())
	})
	t.Run("entities are counted when there is no value path", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{"entities_path": "issues", "entity_key": "id"}}
		result, err := parser.Parse(responsesOf(`{"issues": [{"id": "A-1", "severity": "high", "points": 3}, {"id": "A-2", "severity": "low"}]}`), source)
		require.NoError(t, err)
		assert.Equal(t, "2", *result.Value)
		assert.Nil(t, result.Total)
		require.Len(t, result.Entities, 2)
		assert.Equal(t, "A-1", result.Entities[0].Key)
		assert.Equal(t, "high", result.Entities[0].Attributes["severity"])
		assert.Equal(t, "3", result.Entities[0].Attributes["points"])
	})
	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{"value_path": "data.failed"}}
		_, err := parser.Parse(responsesOf(`{"data": {}}`), source)
		assert.Equal(t, errPathNotFound("data.failed"), err)
	})
	t.Run("entity without key", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{"entities_path": "issues"}}
		_, err := parser.Parse(responsesOf(`{"issues": [{"id": "A-1"}]}`), source)
		assert.ErrorIs(t, err, errEntityWithoutKey)
	})
	t.Run("invalid json", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{"value_path": "a"}}
		_, err := parser.Parse(responsesOf(`<html>`), source)
		assert.Error(t, err)
	})
	t.Run("not a number", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{"value_path": "a"}}
		_, err := parser.Parse(responsesOf(`{"a": {"b": 1}}`), source)
		assert.ErrorIs(t, err, errNotANumber)
	})
	t.Run("missing parameters", func(t *testing.T) {
		t.Parallel()

		_, err := parser.Parse(responsesOf(`{}`), model.SourceConfig{})
		assert.ErrorIs(t, err, errMissingParameter)
	})
}

const exposition = `# HELP http_requests_total The total number of HTTP requests.
# TYPE http_requests_total counter
http_requests_total{method="post",code="200"} 1027
http_requests_total{method="post",code="400"} 3
http_requests_total{method="get",code="400"} 4
# HELP http_requests_all All requests.
# TYPE http_requests_all gauge
http_requests_all{method="post"} 2000
http_requests_all{method="get"} 100
`

func TestPrometheusParser(t *testing.T) {
	t.Parallel()

	parser := &prometheusParser{}

	t.Run("label filter and total", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{
			"metric":       "http_requests_total",
			"total_metric": "http_requests_all",
			"label.method": "post",
		}}
		result, err := parser.Parse(responsesOf(exposition), source)
		require.NoError(t, err)
		assert.Equal(t, "1030", *result.Value)
		assert.Equal(t, "2000", *result.Total)
		require.Len(t, result.Entities, 2)
		assert.Equal(t, `http_requests_total{code="200",method="post"}`, result.Entities[0].Key)
		assert.Equal(t, "1027", result.Entities[0].Attributes["value"])
	})
	t.Run("missing family", func(t *testing.T) {
		t.Parallel()

		source := model.SourceConfig{Parameters: map[string]string{"metric": "unknown_total"}}
		_, err := parser.Parse(responsesOf(exposition), source)
		assert.Equal(t, errMetricFamilyNotFound("unknown_total"), err)
	})
	t.Run("missing metric parameter", func(t *testing.T) {
		t.Parallel()

		_, err := parser.Parse(responsesOf(exposition), model.SourceConfig{})
		assert.ErrorIs(t, err, errMissingParameter)
	})
}

const junitReport = `<?xml version="1.0" encoding="UTF-8"?>
<testsuites>
  <testsuite name="api">
    <testcase classname="api.Users" name="create" time="0.1"/>
    <testcase classname="api.Users" name="delete" time="0.2"><failure message="expected 204"/></testcase>
    <testsuite name="nested">
      <testcase classname="api.Nested" name="broken" time="0.3"><error message="panic"/></testcase>
      <testcase classname="api.Nested" name="later" time="0"><skipped/></testcase>
    </testsuite>
  </testsuite>
</testsuites>`

func TestJUnitParser(t *testing.T) {
	t.Parallel()

	parser := &junitParser{}

	t.Run("default failed and errored", func(t *testing.T) {
		t.Parallel()

		result, err := parser.Parse(responsesOf(junitReport), model.SourceConfig{})
		require.NoError(t, err)
		assert.Equal(t, "2", *result.Value)
		assert.Equal(t, "4", *result.Total)
		require.Len(t, result.Entities, 2)
		assert.Equal(t, "api.Users:delete", result.Entities[0].Key)
		assert.Equal(t, "failed", result.Entities[0].Attributes["test_result"])
		assert.Equal(t, "api.Nested:broken", result.Entities[1].Key)
	})
	t.Run("single testsuite root and custom result", func(t *testing.T) {
		t.Parallel()

		report := `<testsuite><testcase classname="a" name="b"/><testcase classname="a" name="c"><skipped/></testcase></testsuite>`
		source := model.SourceConfig{Parameters: map[string]string{"test_result": "skipped"}}
		result, err := parser.Parse(responsesOf(report, report), source)
		require.NoError(t, err)
		assert.Equal(t, "2", *result.Value)
		assert.Equal(t, "4", *result.Total)
	})
	t.Run("invalid xml", func(t *testing.T) {
		t.Parallel()

		_, err := parser.Parse(responsesOf("{not xml"), model.SourceConfig{})
		assert.Error(t, err)
	})
}
