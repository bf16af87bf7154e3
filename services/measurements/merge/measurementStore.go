package merge

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/iulianpascalau/quality-collector/evaluation"
	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/measurements/common"
	"github.com/multiversx/mx-chain-core-go/core/check"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("merge")

// DefaultOrphanRetention is how long the user data of entities that are no longer reported is kept
const DefaultOrphanRetention = 30 * 24 * time.Hour

// ArgsMeasurementStore is the DTO used to create a new measurement store
type ArgsMeasurementStore struct {
	Storage         Storage
	Metrics         MetricProvider
	OrphanRetention time.Duration
	CompareTotals   bool
	Clock           func() time.Time
}

type measurementStore struct {
	storage         Storage
	metrics         MetricProvider
	orphanRetention time.Duration
	compareTotals   bool
	now             func() time.Time
	locks           *keyedMutex
}

// NewMeasurementStore creates the component deciding whether an incoming measurement is a new state or a repeat
func NewMeasurementStore(args ArgsMeasurementStore) (*measurementStore, error) {
	if check.IfNil(args.Storage) {
		return nil, errNilStorage
	}
	if check.IfNil(args.Metrics) {
		return nil, errNilMetricProvider
	}

	retention := args.OrphanRetention
	if retention <= 0 {
		retention = DefaultOrphanRetention
	}
	clock := args.Clock
	if clock == nil {
		clock = time.Now
	}

	return &measurementStore{
		storage:         args.Storage,
		metrics:         args.Metrics,
		orphanRetention: retention,
		compareTotals:   args.CompareTotals,
		now:             clock,
		locks:           newKeyedMutex(),
	}, nil
}

// Ingest stores the measurement, merging it into the latest one if the computed state did not change.
// Ingests of the same metric are serialized.
func (store *measurementStore) Ingest(ctx context.Context, measurement model.Measurement) (common.Outcome, error) {
	metric, found := store.metrics.GetMetric(measurement.MetricUUID)
	if !found {
		log.Debug("dropping measurement of unknown metric", "metric", measurement.MetricUUID)
		return common.OutcomeDropped, nil
	}
	for _, source := range measurement.Sources {
		if !metric.HasSource(source.SourceUUID) {
			log.Debug("dropping measurement of unknown source", "metric", metric.UUID, "source", source.SourceUUID)
			return common.OutcomeDropped, nil
		}
	}

	unlock := store.locks.lock(metric.UUID)
	defer unlock()

	latest, err := store.storage.FindLatest(ctx, metric.UUID)
	if err != nil {
		return "", err
	}

	now := store.now()
	candidate := measurement.Clone()
	candidate.Sources = sortedSources(candidate.Sources)

	if latest != nil {
		latestSuccessful, errFind := store.storage.FindLatestSuccessful(ctx, metric.UUID)
		if errFind != nil {
			return "", errFind
		}

		// the earliest timestamp per key wins, a key may only be known to an errored latest measurement
		candidate.Sources = CarryForwardFirstSeen(latestSuccessful, candidate.Sources)
		candidate.Sources = CarryForwardFirstSeen(latest, candidate.Sources)

		annotated := AnnotationBase(latest, latestSuccessful)
		candidate.Sources = CarryForwardEntityUserData(annotated, candidate.Sources, now, store.orphanRetention)
	}

	candidate.HasError = candidate.ComputeHasError()
	candidate.Scales = evaluation.Evaluate(candidate.Sources, metric, latest, now)

	if latest != nil && SameState(candidate, *latest, metric, store.compareTotals) {
		err = store.storage.ExtendEnd(ctx, latest.ID, now)
		if err != nil {
			return "", err
		}

		log.Trace("measurement merged", "metric", metric.UUID, "id", latest.ID)
		return common.OutcomeMerged, nil
	}

	stored, err := store.insert(ctx, candidate, now)
	if err != nil {
		return "", err
	}

	log.Debug("measurement inserted", "metric", metric.UUID, "id", stored.ID, "has error", stored.HasError)
	return common.OutcomeInserted, nil
}

// SetEntityUserData stores a copy of the latest measurement holding the new annotation of the entity
func (store *measurementStore) SetEntityUserData(
	ctx context.Context,
	metricUUID string,
	sourceUUID string,
	key string,
	data model.EntityUserData,
) (model.Measurement, error) {
	if !data.Status.IsValid() {
		return model.Measurement{}, fmt.Errorf("%w: %q", ErrInvalidEntityStatus, data.Status)
	}

	metric, found := store.metrics.GetMetric(metricUUID)
	if !found {
		return model.Measurement{}, fmt.Errorf("%w: %s", ErrMetricNotFound, metricUUID)
	}

	unlock := store.locks.lock(metric.UUID)
	defer unlock()

	latest, err := store.storage.FindLatest(ctx, metric.UUID)
	if err != nil {
		return model.Measurement{}, err
	}
	if latest == nil {
		return model.Measurement{}, fmt.Errorf("%w: %s", ErrMeasurementNotFound, metricUUID)
	}

	candidate := latest.Clone()
	index := -1
	for i, source := range candidate.Sources {
		if source.SourceUUID == sourceUUID {
			index = i
			break
		}
	}
	if index < 0 {
		return model.Measurement{}, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceUUID)
	}

	source := &candidate.Sources[index]
	if _, exists := source.EntityKeys()[key]; !exists {
		return model.Measurement{}, fmt.Errorf("%w: %s", ErrEntityNotFound, key)
	}
	if source.EntityUserData == nil {
		source.EntityUserData = make(map[string]model.EntityUserData)
	}
	source.EntityUserData[key] = model.EntityUserData{
		Status:    data.Status,
		Rationale: data.Rationale,
	}

	now := store.now()
	candidate.HasError = candidate.ComputeHasError()
	candidate.Scales = evaluation.Evaluate(candidate.Sources, metric, latest, now)

	stored, err := store.insert(ctx, candidate, now)
	if err != nil {
		return model.Measurement{}, err
	}

	log.Debug("entity user data set", "metric", metric.UUID, "source", sourceUUID, "key", key, "status", data.Status)

	return stored, nil
}

func (store *measurementStore) insert(ctx context.Context, candidate model.Measurement, now time.Time) (model.Measurement, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.Measurement{}, fmt.Errorf("failed to generate measurement id: %w", err)
	}

	candidate.ID = id.String()
	candidate.Start = now
	candidate.End = now
	candidate.Sources = StampFirstSeen(candidate.Sources, now)

	err = store.storage.Insert(ctx, candidate)
	if err != nil {
		return model.Measurement{}, err
	}

	return candidate, nil
}

func sortedSources(sources []model.SourceMeasurement) []model.SourceMeasurement {
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].SourceUUID < sources[j].SourceUUID
	})

	return sources
}

// IsInterfaceNil returns true if the value under the interface is nil
func (store *measurementStore) IsInterfaceNil() bool {
	return store == nil
}
