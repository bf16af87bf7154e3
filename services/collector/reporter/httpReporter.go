package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

const outcomePath = "outcome"

var log = logger.GetOrCreate("reporter")

type httpReporter struct {
	endpoint    string
	apiKey      string
	collectorID string
	client      *http.Client
}

// NewHTTPReporter creates a new reporter that pushes measurements to the configured ReportEndpoint
func NewHTTPReporter(endpoint, apiKey, collectorID string, timeout time.Duration) *httpReporter {
	return &httpReporter{
		endpoint:    endpoint,
		apiKey:      apiKey,
		collectorID: collectorID,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Report posts one measurement to the measurements service
func (r *httpReporter) Report(ctx context.Context, measurement model.Measurement) error {
	body, err := json.Marshal(measurement)
	if err != nil {
		return fmt.Errorf("failed to marshal measurement: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to create report request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Api-Key", r.apiKey)
	req.Header.Set("X-Collector-Id", r.collectorID)

	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("network error sending measurement: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("server rejected measurement with status code: %d", resp.StatusCode)
	}

	respBody, _ := io.ReadAll(resp.Body)
	outcome := gjson.GetBytes(respBody, outcomePath).String()

	log.Debug("successfully sent measurement", "endpoint", r.endpoint, "metric", measurement.MetricUUID,
		"sources", len(measurement.Sources), "outcome", outcome)

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (r *httpReporter) IsInterfaceNil() bool {
	return r == nil
}
