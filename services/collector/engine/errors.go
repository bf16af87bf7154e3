package engine

import "errors"

var (
	errNilRegistry        = errors.New("nil collector registry")
	errNilFetcher         = errors.New("nil fetcher")
	errNilMetricsProvider = errors.New("nil metrics provider")
	errNilMetricCollector = errors.New("nil metric collector")
	errNilReporter        = errors.New("nil reporter")
)
