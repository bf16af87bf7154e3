package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/iulianpascalau/quality-collector/evaluation"
	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/collector/sources"
	"github.com/iulianpascalau/quality-collector/services/collector/stabilizer"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

var log = logger.GetOrCreate("engine")

const (
	defaultMaxConcurrentFetches = 8
	defaultFetchTimeout         = 30 * time.Second
)

// ArgsMetricCollector is the DTO used to create a new metric collector
type ArgsMetricCollector struct {
	Registry             CollectorRegistry
	Fetcher              sources.Fetcher
	FetchTimeout         time.Duration
	MaxConcurrentFetches int64
	Clock                func() time.Time
}

type metricCollector struct {
	registry     CollectorRegistry
	fetcher      sources.Fetcher
	fetchTimeout time.Duration
	fetchSlots   *semaphore.Weighted
	now          func() time.Time
}

// NewMetricCollector creates a collector that fetches the sources of a metric concurrently. The number of
// fetches in flight is bounded across all the metrics collected by this instance.
func NewMetricCollector(args ArgsMetricCollector) (*metricCollector, error) {
	if check.IfNil(args.Registry) {
		return nil, errNilRegistry
	}
	if check.IfNil(args.Fetcher) {
		return nil, errNilFetcher
	}

	maxFetches := args.MaxConcurrentFetches
	if maxFetches <= 0 {
		maxFetches = defaultMaxConcurrentFetches
	}
	fetchTimeout := args.FetchTimeout
	if fetchTimeout <= 0 {
		fetchTimeout = defaultFetchTimeout
	}
	clock := args.Clock
	if clock == nil {
		clock = time.Now
	}

	return &metricCollector{
		registry:     args.Registry,
		fetcher:      args.Fetcher,
		fetchTimeout: fetchTimeout,
		fetchSlots:   semaphore.NewWeighted(maxFetches),
		now:          clock,
	}, nil
}

// Collect fans out to every source of the metric and waits for all of them, failed ones included
func (mc *metricCollector) Collect(ctx context.Context, metric model.Metric) model.Measurement {
	sourceUUIDs := metric.SourceUUIDs()
	results := make([]model.SourceMeasurement, len(sourceUUIDs))

	var group errgroup.Group
	for i, sourceUUID := range sourceUUIDs {
		i, sourceUUID := i, sourceUUID
		group.Go(func() error {
			results[i] = mc.collectSource(ctx, metric, sourceUUID)
			return nil
		})
	}
	_ = group.Wait()

	now := mc.now()
	measurement := model.Measurement{
		MetricUUID: metric.UUID,
		Start:      now,
		End:        now,
		Sources:    results,
	}
	measurement.HasError = measurement.ComputeHasError()
	measurement.Scales = evaluation.Evaluate(results, metric, nil, now)

	log.Debug("collected metric", "metric", metric.UUID, "sources", len(results), "has error", measurement.HasError)

	return measurement
}

func (mc *metricCollector) collectSource(ctx context.Context, metric model.Metric, sourceUUID string) model.SourceMeasurement {
	source := metric.Sources[sourceUUID]
	apiURL := stabilizer.RedactURL(source.Parameters["url"])

	collector, found := mc.registry.Get(source.Type, metric.Type)
	if !found {
		text := fmt.Sprintf("no collector for source type %q and metric type %q", source.Type, metric.Type)
		return model.NewSourceMeasurement(sourceUUID, source.Type, apiURL, model.ParseFailure(stabilizer.Stabilize(text)))
	}

	err := mc.fetchSlots.Acquire(ctx, 1)
	if err != nil {
		return model.NewSourceMeasurement(sourceUUID, source.Type, apiURL, model.ConnectionFailure(stabilizer.StabilizeError(err)))
	}
	defer mc.fetchSlots.Release(1)

	fetchCtx, cancel := context.WithTimeout(ctx, mc.fetchTimeout)
	defer cancel()

	result := collector.Collect(fetchCtx, source, mc.fetcher)
	if result.HasError() {
		log.Debug("source collection failed", "metric", metric.UUID, "source", sourceUUID,
			"kind", result.ErrorKind.String(), "error", result.ErrorText)
	}

	return model.NewSourceMeasurement(sourceUUID, source.Type, apiURL, result)
}

// IsInterfaceNil returns true if the value under the interface is nil
func (mc *metricCollector) IsInterfaceNil() bool {
	return mc == nil
}
