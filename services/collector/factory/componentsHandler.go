package factory

import (
	"context"
	"sync"
	"time"

	"github.com/iulianpascalau/quality-collector/commonGo"
	"github.com/iulianpascalau/quality-collector/services/collector/cache"
	"github.com/iulianpascalau/quality-collector/services/collector/config"
	"github.com/iulianpascalau/quality-collector/services/collector/engine"
	"github.com/iulianpascalau/quality-collector/services/collector/provider"
	"github.com/iulianpascalau/quality-collector/services/collector/reporter"
	"github.com/iulianpascalau/quality-collector/services/collector/sources"
)

type componentsHandler struct {
	registry        engine.CollectorRegistry
	metricCollector engine.MetricCollector
	provider        engine.MetricsProvider
	reporter        engine.Reporter
	engine          Engine
	mutCancel       sync.Mutex
	cancel          func()
	cronDone        <-chan struct{}
	queryInterval   time.Duration
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	serviceKeyApi string,
	cfg config.Config,
) (*componentsHandler, error) {
	responseCache := cache.NewResponseCache()
	registry, err := sources.NewDefaultRegistry()
	if err != nil {
		return nil, err
	}

	fetchTimeout := time.Duration(cfg.FetchTimeoutInSeconds) * time.Second
	fetcher, err := sources.NewHTTPFetcher(sources.ArgsHTTPFetcher{
		Cache:           responseCache,
		Timeout:         fetchTimeout,
		CacheTTL:        time.Duration(cfg.CacheTTLInSeconds) * time.Second,
		MaxResponseSize: int64(cfg.MaxResponseSizeInMB) * 1024 * 1024,
	})
	if err != nil {
		return nil, err
	}

	collector, err := engine.NewMetricCollector(engine.ArgsMetricCollector{
		Registry:             registry,
		Fetcher:              fetcher,
		FetchTimeout:         fetchTimeout,
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
	})
	if err != nil {
		return nil, err
	}

	reportTimeout := time.Duration(cfg.ReportTimeoutInSeconds) * time.Second
	metricsProvider, err := provider.NewHTTPMetricsProvider(cfg.MetricsEndpoint, serviceKeyApi, reportTimeout)
	if err != nil {
		return nil, err
	}
	rep := reporter.NewHTTPReporter(cfg.ReportEndpoint, serviceKeyApi, cfg.Name, reportTimeout)

	queryInterval := time.Duration(cfg.QueryIntervalInSeconds) * time.Second
	eng, err := engine.NewCollectorEngine(engine.ArgsCollectorEngine{
		Provider:             metricsProvider,
		Collector:            collector,
		Reporter:             rep,
		MaxConcurrentMetrics: cfg.MaxConcurrentMetrics,
		CycleTimeout:         queryInterval,
	})
	if err != nil {
		return nil, err
	}

	return &componentsHandler{
		registry:        registry,
		metricCollector: collector,
		provider:        metricsProvider,
		reporter:        rep,
		engine:          eng,
		queryInterval:   queryInterval,
	}, nil
}

// GetRegistry returns the source collector registry
func (ch *componentsHandler) GetRegistry() engine.CollectorRegistry {
	return ch.registry
}

// GetMetricCollector returns the metric collector component
func (ch *componentsHandler) GetMetricCollector() engine.MetricCollector {
	return ch.metricCollector
}

// GetMetricsProvider returns the metrics provider component
func (ch *componentsHandler) GetMetricsProvider() engine.MetricsProvider {
	return ch.provider
}

// GetReporter returns the reporter component
func (ch *componentsHandler) GetReporter() engine.Reporter {
	return ch.reporter
}

// GetEngine returns the engine component
func (ch *componentsHandler) GetEngine() Engine {
	return ch.engine
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel != nil {
		return
	}

	var ctx context.Context
	ctx, ch.cancel = context.WithCancel(context.Background())

	ch.cronDone = commonGo.CronJobStarter(ctx, "collection cycle", ch.engine.Process, ch.queryInterval)
}

// Close stops the collection cycles and waits for the running one to finish
func (ch *componentsHandler) Close() {
	ch.mutCancel.Lock()
	defer ch.mutCancel.Unlock()

	if ch.cancel == nil {
		return
	}

	ch.cancel()
	<-ch.cronDone
	ch.cancel = nil
}
