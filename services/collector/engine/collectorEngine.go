package engine

import (
	"context"
	"time"

	"github.com/multiversx/mx-chain-core-go/core/check"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxConcurrentMetrics = 4
	defaultCycleTimeout         = 10 * time.Minute
)

// ArgsCollectorEngine is the DTO used to create a new collector engine
type ArgsCollectorEngine struct {
	Provider             MetricsProvider
	Collector            MetricCollector
	Reporter             Reporter
	MaxConcurrentMetrics int
	CycleTimeout         time.Duration
}

// collectorEngine runs one collection cycle over all metric definitions
type collectorEngine struct {
	provider             MetricsProvider
	collector            MetricCollector
	reporter             Reporter
	maxConcurrentMetrics int
	cycleTimeout         time.Duration
}

// NewCollectorEngine creates a new engine instance
func NewCollectorEngine(args ArgsCollectorEngine) (*collectorEngine, error) {
	if check.IfNil(args.Provider) {
		return nil, errNilMetricsProvider
	}
	if check.IfNil(args.Collector) {
		return nil, errNilMetricCollector
	}
	if check.IfNil(args.Reporter) {
		return nil, errNilReporter
	}

	maxConcurrentMetrics := args.MaxConcurrentMetrics
	if maxConcurrentMetrics <= 0 {
		maxConcurrentMetrics = defaultMaxConcurrentMetrics
	}
	cycleTimeout := args.CycleTimeout
	if cycleTimeout <= 0 {
		cycleTimeout = defaultCycleTimeout
	}

	return &collectorEngine{
		provider:             args.Provider,
		collector:            args.Collector,
		reporter:             args.Reporter,
		maxConcurrentMetrics: maxConcurrentMetrics,
		cycleTimeout:         cycleTimeout,
	}, nil
}

// Process fetches the metric definitions, collects every metric and reports the measurements
func (e *collectorEngine) Process(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, e.cycleTimeout)
	defer cancel()

	metrics, err := e.provider.GetMetrics(cycleCtx)
	if err != nil {
		log.Warn("failed to get the metric definitions, skipping this cycle", "error", err)
		return
	}

	log.Debug("waking up to collect metrics", "count", len(metrics))

	var group errgroup.Group
	group.SetLimit(e.maxConcurrentMetrics)
	for _, metric := range metrics {
		metric := metric
		group.Go(func() error {
			measurement := e.collector.Collect(cycleCtx, metric)

			errReport := e.reporter.Report(cycleCtx, measurement)
			if errReport != nil {
				log.Warn("failed to report measurement, it will be discarded", "metric", metric.UUID, "error", errReport)
			}
			return nil
		})
	}
	_ = group.Wait()

	log.Debug("finished collecting metrics", "count", len(metrics))
}

// IsInterfaceNil returns true if the value under the interface is nil
func (e *collectorEngine) IsInterfaceNil() bool {
	return e == nil
}
