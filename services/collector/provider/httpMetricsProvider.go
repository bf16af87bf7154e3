package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/common"
	logger "github.com/multiversx/mx-chain-logger-go"
	"github.com/tidwall/gjson"
)

const metricsPath = "metrics"

var log = logger.GetOrCreate("provider")

type httpMetricsProvider struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPMetricsProvider creates a provider that reads the metric definitions from the measurements service
func NewHTTPMetricsProvider(endpoint string, apiKey string, timeout time.Duration) (*httpMetricsProvider, error) {
	if len(endpoint) == 0 {
		return nil, errEmptyEndpoint
	}

	return &httpMetricsProvider{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// GetMetrics performs a GET on the metrics endpoint and decodes the metric definitions
func (p *httpMetricsProvider) GetMetrics(ctx context.Context) ([]model.Metric, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errStatusNotOK(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, metricsPath)
	if !result.Exists() {
		return nil, errPathNotFound(metricsPath)
	}

	response := common.MetricsResponse{}
	err = json.Unmarshal(body, &response)
	if err != nil {
		return nil, fmt.Errorf("failed to decode metric definitions: %w", err)
	}

	log.Trace("fetched metric definitions", "endpoint", p.endpoint, "count", len(response.Metrics))

	return response.Metrics, nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (p *httpMetricsProvider) IsInterfaceNil() bool {
	return p == nil
}
