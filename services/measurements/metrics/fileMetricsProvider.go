package metrics

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/iulianpascalau/quality-collector/model"
	logger "github.com/multiversx/mx-chain-logger-go"
	"gopkg.in/yaml.v3"
)

var log = logger.GetOrCreate("metrics")

// definitionsFile is the layout of the YAML metric definitions file
type definitionsFile struct {
	Metrics []model.Metric `yaml:"metrics"`
}

// fileMetricsProvider holds the metric definitions read from a YAML file
type fileMetricsProvider struct {
	path string

	mut     sync.RWMutex
	metrics map[string]model.Metric

	mutWatch sync.Mutex
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// NewFileMetricsProvider loads the metric definitions from the provided YAML file
func NewFileMetricsProvider(path string) (*fileMetricsProvider, error) {
	if len(path) == 0 {
		return nil, errEmptyPath
	}

	metrics, err := loadDefinitions(path)
	if err != nil {
		return nil, err
	}

	return &fileMetricsProvider{
		path:    path,
		metrics: metrics,
	}, nil
}

func loadDefinitions(path string) (map[string]model.Metric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metric definitions file '%s': %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: %s", errEmptyDefinitions, path)
	}

	var file definitionsFile
	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode metric definitions file: %w", err)
	}

	metrics := make(map[string]model.Metric, len(file.Metrics))
	for _, metric := range file.Metrics {
		err = validateMetric(metric)
		if err != nil {
			return nil, err
		}
		if _, found := metrics[metric.UUID]; found {
			return nil, fmt.Errorf("%w: %s", errDuplicateUUID, metric.UUID)
		}

		metrics[metric.UUID] = metric
	}

	return metrics, nil
}

func validateMetric(metric model.Metric) error {
	if len(metric.UUID) == 0 {
		return fmt.Errorf("%w, name %q", errMissingUUID, metric.Name)
	}

	switch metric.Direction {
	case model.LowerIsBetter, model.HigherIsBetter:
	default:
		return fmt.Errorf("%w %q for metric %s", errInvalidDirection, metric.Direction, metric.UUID)
	}

	switch metric.Addition {
	case "", model.AdditionSum, model.AdditionMin, model.AdditionMax:
	default:
		return fmt.Errorf("%w %q for metric %s", errInvalidAddition, metric.Addition, metric.UUID)
	}

	for _, scale := range metric.SupportedScales() {
		switch scale {
		case model.ScaleCount, model.ScalePercentage, model.ScaleVersionNumber:
		default:
			return fmt.Errorf("%w %q for metric %s", errInvalidScale, scale, metric.UUID)
		}
	}

	if len(metric.DebtEndDate) > 0 {
		_, err := time.Parse(model.DebtEndDateLayout, metric.DebtEndDate)
		if err != nil {
			return fmt.Errorf("%w %q for metric %s", errInvalidDebtEndDate, metric.DebtEndDate, metric.UUID)
		}
	}

	for sourceUUID, source := range metric.Sources {
		if len(source.Type) == 0 {
			return fmt.Errorf("%w: metric %s, source %s", errMissingSourceType, metric.UUID, sourceUUID)
		}
	}

	return nil
}

// GetMetric returns the metric definition with the provided uuid
func (provider *fileMetricsProvider) GetMetric(uuid string) (model.Metric, bool) {
	provider.mut.RLock()
	defer provider.mut.RUnlock()

	metric, found := provider.metrics[uuid]
	return metric, found
}

// AllMetrics returns all the metric definitions sorted by uuid
func (provider *fileMetricsProvider) AllMetrics() []model.Metric {
	provider.mut.RLock()
	result := make([]model.Metric, 0, len(provider.metrics))
	for _, metric := range provider.metrics {
		result = append(result, metric)
	}
	provider.mut.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].UUID < result[j].UUID
	})

	return result
}

// Reload re-reads the definitions file. On error the previous definitions remain active.
func (provider *fileMetricsProvider) Reload() error {
	metrics, err := loadDefinitions(provider.path)
	if err != nil {
		return err
	}

	provider.mut.Lock()
	provider.metrics = metrics
	provider.mut.Unlock()

	log.Info("metric definitions reloaded", "path", provider.path, "count", len(metrics))

	return nil
}

// StartWatching reloads the definitions every time the file is written, until Close is called
func (provider *fileMetricsProvider) StartWatching() error {
	provider.mutWatch.Lock()
	defer provider.mutWatch.Unlock()

	if provider.cancel != nil {
		return errWatcherAlreadyOpen
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	err = watcher.Add(provider.path)
	if err != nil {
		_ = watcher.Close()
		return err
	}

	var ctx context.Context
	ctx, provider.cancel = context.WithCancel(context.Background())

	provider.wg.Add(1)
	go func() {
		defer provider.wg.Done()
		defer func() {
			_ = watcher.Close()
		}()

		provider.watch(ctx, watcher)
	}()

	log.Debug("watching metric definitions for changes", "path", provider.path)

	return nil
}

func (provider *fileMetricsProvider) watch(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// editors that save atomically replace the file, producing a create event
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			err := provider.Reload()
			if err != nil {
				log.Error("metric definitions reload failed, keeping the previous definitions",
					"path", provider.path, "error", err)
				continue
			}

			// the inode may have changed
			_ = watcher.Add(provider.path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Warn("metric definitions watcher error", "error", err)
		}
	}
}

// Close stops watching the definitions file
func (provider *fileMetricsProvider) Close() error {
	provider.mutWatch.Lock()
	defer provider.mutWatch.Unlock()

	if provider.cancel == nil {
		return nil
	}

	provider.cancel()
	provider.wg.Wait()
	provider.cancel = nil

	return nil
}

// IsInterfaceNil returns true if the value under the interface is nil
func (provider *fileMetricsProvider) IsInterfaceNil() bool {
	return provider == nil
}
