package sources

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/cache"
)

const defaultTestResults = "failed,errored"

type junitMessage struct {
	Message string `xml:"message,attr"`
}

type junitCase struct {
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      string        `xml:"time,attr"`
	Failure   *junitMessage `xml:"failure"`
	Error     *junitMessage `xml:"error"`
	Skipped   *junitMessage `xml:"skipped"`
}

// junitSuite decodes both a <testsuites> and a <testsuite> root element
type junitSuite struct {
	Suites []junitSuite `xml:"testsuite"`
	Cases  []junitCase  `xml:"testcase"`
}

func (tc junitCase) result() string {
	switch {
	case tc.Failure != nil:
		return "failed"
	case tc.Error != nil:
		return "errored"
	case tc.Skipped != nil:
		return "skipped"
	default:
		return "passed"
	}
}

// junitParser counts the test cases of JUnit XML reports that have one of the configured test results
type junitParser struct{}

// Parse returns the number of matching test cases as value and the number of test cases as total
func (p *junitParser) Parse(responses []cache.Response, source model.SourceConfig) (model.SourceResult, error) {
	if len(responses) == 0 {
		return model.SourceResult{}, errNoResponses
	}

	wanted := testResults(source.Parameters["test_result"])

	numTests := 0
	var entities []model.Entity
	for _, response := range responses {
		var root junitSuite
		err := xml.NewDecoder(bytes.NewReader(response.Body)).Decode(&root)
		if err != nil {
			return model.SourceResult{}, fmt.Errorf("invalid JUnit XML in %s: %w", response.URL, err)
		}

		for _, tc := range allCases(root) {
			numTests++
			result := tc.result()
			if _, match := wanted[result]; !match {
				continue
			}
			entities = append(entities, model.Entity{
				Key: tc.ClassName + ":" + tc.Name,
				Attributes: map[string]string{
					"name":        tc.Name,
					"class_name":  tc.ClassName,
					"test_result": result,
					"duration":    tc.Time,
				},
			})
		}
	}

	return model.Success(
		model.StringPtr(strconv.Itoa(len(entities))),
		model.StringPtr(strconv.Itoa(numTests)),
		entities,
	), nil
}

func allCases(suite junitSuite) []junitCase {
	cases := append([]junitCase(nil), suite.Cases...)
	for _, child := range suite.Suites {
		cases = append(cases, allCases(child)...)
	}

	return cases
}

func testResults(parameter string) map[string]struct{} {
	if len(strings.TrimSpace(parameter)) == 0 {
		parameter = defaultTestResults
	}

	results := make(map[string]struct{})
	for _, result := range strings.Split(parameter, ",") {
		result = strings.TrimSpace(result)
		if len(result) > 0 {
			results[result] = struct{}{}
		}
	}

	return results
}
