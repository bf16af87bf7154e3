package factory

import (
	"github.com/iulianpascalau/quality-collector/services/measurements/api"
	"github.com/iulianpascalau/quality-collector/services/measurements/config"
	"github.com/iulianpascalau/quality-collector/services/measurements/merge"
	"github.com/iulianpascalau/quality-collector/services/measurements/metrics"
	"github.com/iulianpascalau/quality-collector/services/measurements/storage"
	logger "github.com/multiversx/mx-chain-logger-go"
	"go.uber.org/multierr"
)

var log = logger.GetOrCreate("factory")

type componentsHandler struct {
	storage          MeasurementsStorage
	metrics          MetricsProvider
	measurementStore api.MeasurementStore
	server           Server
	watchMetrics     bool
}

// NewComponentsHandler creates a new components handler
func NewComponentsHandler(
	serviceKeyApi string,
	cfg config.Config,
) (*componentsHandler, error) {
	metricsProvider, err := metrics.NewFileMetricsProvider(cfg.MetricsFile)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(cfg.DatabasePath, cfg.RetentionSeconds)
	if err != nil {
		return nil, err
	}

	measurementStore, err := merge.NewMeasurementStore(merge.ArgsMeasurementStore{
		Storage:         store,
		Metrics:         metricsProvider,
		OrphanRetention: cfg.OrphanRetention(),
		CompareTotals:   cfg.ShouldCompareTotals(),
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	serverArgs := api.ArgsWebServer{
		ServiceKeyApi:    serviceKeyApi,
		ListenAddress:    cfg.ListenAddress,
		Storage:          store,
		MeasurementStore: measurementStore,
		Metrics:          metricsProvider,
		GeneralHandler:   api.CORSMiddleware,
	}

	server, err := api.NewServer(serverArgs)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return &componentsHandler{
		storage:          store,
		metrics:          metricsProvider,
		measurementStore: measurementStore,
		server:           server,
		watchMetrics:     cfg.WatchMetricsFile,
	}, nil
}

// GetStorage returns the storage component
func (ch *componentsHandler) GetStorage() MeasurementsStorage {
	return ch.storage
}

// GetMetricsProvider returns the metric definitions provider
func (ch *componentsHandler) GetMetricsProvider() MetricsProvider {
	return ch.metrics
}

// GetMeasurementStore returns the merge engine component
func (ch *componentsHandler) GetMeasurementStore() api.MeasurementStore {
	return ch.measurementStore
}

// GetServer returns the server component
func (ch *componentsHandler) GetServer() Server {
	return ch.server
}

// Start starts the inner components
func (ch *componentsHandler) Start() {
	if ch.watchMetrics {
		err := ch.metrics.StartWatching()
		if err != nil {
			log.Warn("unable to watch the metric definitions file, changes require a restart", "error", err)
		}
	}

	ch.server.Start()
}

// Close closes the inner components
func (ch *componentsHandler) Close() error {
	return multierr.Combine(
		ch.server.Close(),
		ch.metrics.Close(),
		ch.storage.Close(),
	)
}
