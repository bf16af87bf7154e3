package merge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
	"github.com/iulianpascalau/quality-collector/services/measurements/common"
	"github.com/iulianpascalau/quality-collector/services/measurements/storage"
	"github.com/iulianpascalau/quality-collector/services/measurements/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type testClock struct {
	mut sync.Mutex
	now time.Time
}

func (clock *testClock) Now() time.Time {
	clock.mut.Lock()
	defer clock.mut.Unlock()

	return clock.now
}

func (clock *testClock) Set(now time.Time) {
	clock.mut.Lock()
	clock.now = now
	clock.mut.Unlock()
}

type sqliteStore interface {
	Storage
	MeasurementsInRange(ctx context.Context, metricUUID string, from time.Time, to time.Time) ([]model.Measurement, error)
	Close() error
}

var (
	t1 = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	t2 = t1.Add(15 * time.Minute)
	t3 = t2.Add(15 * time.Minute)
	t4 = t3.Add(15 * time.Minute)
)

func createSumMetric() model.Metric {
	return model.Metric{
		UUID:       "metric-1",
		Type:       "tests",
		Addition:   model.AdditionSum,
		Direction:  model.HigherIsBetter,
		Target:     "10",
		NearTarget: "8",
		Sources: map[string]model.SourceConfig{
			"s1": {Type: "json"},
			"s2": {Type: "json"},
		},
	}
}

func createViolationsMetric() model.Metric {
	return model.Metric{
		UUID:       "metric-2",
		Type:       "violations",
		Direction:  model.LowerIsBetter,
		Target:     "0",
		NearTarget: "5",
		Sources: map[string]model.SourceConfig{
			"s1": {Type: "json"},
		},
	}
}

func collected(metricUUID string, values ...string) model.Measurement {
	measurement := model.Measurement{MetricUUID: metricUUID}
	sourceUUIDs := []string{"s1", "s2"}
	for i, value := range values {
		measurement.Sources = append(measurement.Sources, model.SourceMeasurement{
			SourceUUID: sourceUUIDs[i],
			Type:       "json",
			Value:      model.StringPtr(value),
		})
	}

	return measurement
}

func collectedEntities(keys ...string) model.Measurement {
	source := createSource("s1", keys...)
	source.Value = model.StringPtr(countString(len(keys)))

	return model.Measurement{MetricUUID: "metric-2", Sources: []model.SourceMeasurement{source}}
}

func countString(n int) string {
	return string(rune('0' + n))
}

func createTestStore(t *testing.T, compareTotals bool) (*measurementStore, sqliteStore, *testClock) {
	s, err := storage.NewSQLiteStorage(":memory:", 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Close()
	})

	clock := &testClock{now: t1}
	store, err := NewMeasurementStore(ArgsMeasurementStore{
		Storage:       s,
		Metrics:       testsCommon.NewMetricProviderStub(createSumMetric(), createViolationsMetric()),
		CompareTotals: compareTotals,
		Clock:         clock.Now,
	})
	require.NoError(t, err)

	return store, s, clock
}

func allMeasurements(t *testing.T, s sqliteStore, metricUUID string) []model.Measurement {
	results, err := s.MeasurementsInRange(context.Background(), metricUUID, t1.Add(-time.Hour), t4.Add(time.Hour))
	require.NoError(t, err)

	return results
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewMeasurementStore(t *testing.T) {
	t.Parallel()

	t.Run("nil storage should error", func(t *testing.T) {
		store, err := NewMeasurementStore(ArgsMeasurementStore{Metrics: testsCommon.NewMetricProviderStub()})
		assert.Nil(t, store)
		assert.True(t, store.IsInterfaceNil())
		assert.Equal(t, errNilStorage, err)
	})
	t.Run("nil metric provider should error", func(t *testing.T) {
		store, err := NewMeasurementStore(ArgsMeasurementStore{Storage: &testsCommon.StorageStub{}})
		assert.Nil(t, store)
		assert.Equal(t, errNilMetricProvider, err)
	})
	t.Run("should work with defaults", func(t *testing.T) {
		store, err := NewMeasurementStore(ArgsMeasurementStore{
			Storage: &testsCommon.StorageStub{},
			Metrics: testsCommon.NewMetricProviderStub(),
		})
		assert.Nil(t, err)
		assert.False(t, store.IsInterfaceNil())
		assert.Equal(t, DefaultOrphanRetention, store.orphanRetention)
	})
}

func TestMeasurementStore_IngestDropped(t *testing.T) {
	t.Parallel()

	store, s, _ := createTestStore(t, true)
	ctx := context.Background()

	outcome, err := store.Ingest(ctx, collected("deleted-metric", "4", "6"))
	assert.Nil(t, err)
	assert.Equal(t, common.OutcomeDropped, outcome)

	measurement := collected("metric-1", "4", "6")
	measurement.Sources[1].SourceUUID = "deleted-source"
	outcome, err = store.Ingest(ctx, measurement)
	assert.Nil(t, err)
	assert.Equal(t, common.OutcomeDropped, outcome)

	assert.Empty(t, allMeasurements(t, s, "metric-1"))
}

func TestMeasurementStore_IngestScenario(t *testing.T) {
	t.Parallel()

	store, s, clock := createTestStore(t, true)
	ctx := context.Background()

	outcome, err := store.Ingest(ctx, collected("metric-1", "4", "6"))
	require.NoError(t, err)
	assert.Equal(t, common.OutcomeInserted, outcome)

	clock.Set(t2)
	outcome, err = store.Ingest(ctx, collected("metric-1", "4", "6"))
	require.NoError(t, err)
	assert.Equal(t, common.OutcomeMerged, outcome)

	stored := allMeasurements(t, s, "metric-1")
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Start.Equal(t1))
	assert.True(t, stored[0].End.Equal(t2))
	assert.Equal(t, "10", *stored[0].Scales[model.ScaleCount].Value)
	assert.Equal(t, model.StatusTargetMet, stored[0].Scales[model.ScaleCount].Status)
	assert.False(t, stored[0].HasError)

	clock.Set(t3)
	outcome, err = store.Ingest(ctx, collected("metric-1", "5", "6"))
	require.NoError(t, err)
	assert.Equal(t, common.OutcomeInserted, outcome)

	stored = allMeasurements(t, s, "metric-1")
	require.Len(t, stored, 2)
	assert.True(t, stored[0].End.Equal(t2))
	assert.True(t, stored[1].Start.Equal(t3))
	assert.True(t, stored[1].End.Equal(t3))
	assert.Equal(t, "11", *stored[1].Scales[model.ScaleCount].Value)
	assert.Equal(t, model.StatusTargetMet, stored[1].Scales[model.ScaleCount].Status)
	assert.Equal(t, model.FormatTimestamp(t1), stored[1].Scales[model.ScaleCount].StatusStart)
	assert.NotEqual(t, stored[0].ID, stored[1].ID)
}

func TestMeasurementStore_IngestConnectionError(t *testing.T) {
	t.Parallel()

	store, s, _ := createTestStore(t, true)

	measurement := collected("metric-1", "4")
	measurement.Sources = append(measurement.Sources, model.SourceMeasurement{
		SourceUUID:      "s2",
		Type:            "json",
		ConnectionError: "dial tcp 127.0.0.1:80: connect: connection refused",
	})

	outcome, err := store.Ingest(context.Background(), measurement)
	require.NoError(t, err)
	assert.Equal(t, common.OutcomeInserted, outcome)

	stored := allMeasurements(t, s, "metric-1")
	require.Len(t, stored, 1)
	assert.True(t, stored[0].HasError)
	assert.Nil(t, stored[0].Scales[model.ScaleCount].Value)
	assert.Equal(t, model.StatusUnknown, stored[0].Scales[model.ScaleCount].Status)
}

func TestMeasurementStore_IngestIsIdempotent(t *testing.T) {
	t.Parallel()

	store, s, clock := createTestStore(t, true)
	ctx := context.Background()

	measurement := collectedEntities("a", "b")
	_, err := store.Ingest(ctx, measurement)
	require.NoError(t, err)

	for _, now := range []time.Time{t2, t3, t4} {
		clock.Set(now)
		outcome, errIngest := store.Ingest(ctx, measurement)
		require.NoError(t, errIngest)
		assert.Equal(t, common.OutcomeMerged, outcome)
	}

	stored := allMeasurements(t, s, "metric-2")
	require.Len(t, stored, 1)
	assert.True(t, stored[0].Start.Equal(t1))
	assert.True(t, stored[0].End.Equal(t4))
	assert.Empty(t, measurement.Sources[0].Entities[0].FirstSeen)
}

func TestMeasurementStore_FirstSeenIsCarriedForward(t *testing.T) {
	t.Parallel()

	store, s, clock := createTestStore(t, true)
	ctx := context.Background()

	_, err := store.Ingest(ctx, collectedEntities("a"))
	require.NoError(t, err)

	clock.Set(t2)
	measurement := collectedEntities("a", "b")
	measurement.Sources[0].Entities[0].FirstSeen = model.FormatTimestamp(t2)
	outcome, err := store.Ingest(ctx, measurement)
	require.NoError(t, err)
	assert.Equal(t, common.OutcomeInserted, outcome)

	latest, err := s.FindLatest(ctx, "metric-2")
	require.NoError(t, err)
	assert.Equal(t, model.FormatTimestamp(t1), latest.Sources[0].Entities[0].FirstSeen)
	assert.Equal(t, model.FormatTimestamp(t2), latest.Sources[0].Entities[1].FirstSeen)

	// a failed poll does not reset the first seen timestamps
	clock.Set(t3)
	failed := model.Measurement{MetricUUID: "metric-2", Sources: []model.SourceMeasurement{
		{SourceUUID: "s1", Type: "json", ParseError: "invalid JSON"},
	}}
	_, err = store.Ingest(ctx, failed)
	require.NoError(t, err)

	clock.Set(t4)
	_, err = store.Ingest(ctx, collectedEntities("a", "b"))
	require.NoError(t, err)

	latest, err = s.FindLatest(ctx, "metric-2")
	require.NoError(t, err)
	assert.Equal(t, model.FormatTimestamp(t1), latest.Sources[0].Entities[0].FirstSeen)
	assert.Equal(t, model.FormatTimestamp(t2), latest.Sources[0].Entities[1].FirstSeen)
}

func collectedWithFailingSource() model.Measurement {
	return model.Measurement{MetricUUID: "metric-1", Sources: []model.SourceMeasurement{
		{SourceUUID: "s1", Type: "json", ConnectionError: "dial tcp 127.0.0.1:80: connect: connection refused"},
		createSource("s2", "finding-1"),
	}}
}

func TestMeasurementStore_IngestWithFailingSourceIsIdempotent(t *testing.T) {
	t.Parallel()

	store, s, clock := createTestStore(t, true)
	ctx := context.Background()

	expectedOutcomes := []common.Outcome{common.OutcomeInserted, common.OutcomeMerged, common.OutcomeMerged}
	for i, now := range []time.Time{t1, t2, t3} {
		clock.Set(now)
		outcome, err := store.Ingest(ctx, collectedWithFailingSource())
		require.NoError(t, err)
		assert.Equal(t, expectedOutcomes[i], outcome)
	}

	stored := allMeasurements(t, s, "metric-1")
	require.Len(t, stored, 1)
	assert.True(t, stored[0].HasError)
	assert.True(t, stored[0].End.Equal(t3))
	entitySource, found := stored[0].Source("s2")
	require.True(t, found)
	assert.Equal(t, model.FormatTimestamp(t1), entitySource.Entities[0].FirstSeen)
}

func TestMeasurementStore_AnnotationSurvivesFailingSibling(t *testing.T) {
	t.Parallel()

	store, s, clock := createTestStore(t, true)
	ctx := context.Background()

	healthy := collectedWithFailingSource()
	healthy.Sources[0] = model.SourceMeasurement{SourceUUID: "s1", Type: "json", Value: model.StringPtr("4")}
	_, err := store.Ingest(ctx, healthy)
	require.NoError(t, err)

	clock.Set(t2)
	outcome, err := store.Ingest(ctx, collectedWithFailingSource())
	require.NoError(t, err)
	assert.Equal(t, common.OutcomeInserted, outcome)

	clock.Set(t3)
	annotated, err := store.SetEntityUserData(ctx, "metric-1", "s2", "finding-1", model.EntityUserData{
		Status: model.EntityFalsePositive,
	})
	require.NoError(t, err)
	assert.True(t, annotated.HasError)

	clock.Set(t4)
	outcome, err = store.Ingest(ctx, collectedWithFailingSource())
	require.NoError(t, err)
	assert.Equal(t, common.OutcomeMerged, outcome)

	stored := allMeasurements(t, s, "metric-1")
	require.Len(t, stored, 3)
	entitySource, found := stored[2].Source("s2")
	require.True(t, found)
	assert.Equal(t, model.EntityUserData{Status: model.EntityFalsePositive}, entitySource.EntityUserData["finding-1"])
	assert.True(t, stored[2].End.Equal(t4))
}

func TestMeasurementStore_SetEntityUserData(t *testing.T) {
	t.Parallel()

	t.Run("invalid requests should error", func(t *testing.T) {
		t.Parallel()

		store, _, _ := createTestStore(t, true)
		ctx := context.Background()
		data := model.EntityUserData{Status: model.EntityFalsePositive}

		_, err := store.SetEntityUserData(ctx, "metric-2", "s1", "a", model.EntityUserData{Status: "done"})
		assert.True(t, errors.Is(err, ErrInvalidEntityStatus))

		_, err = store.SetEntityUserData(ctx, "missing", "s1", "a", data)
		assert.True(t, errors.Is(err, ErrMetricNotFound))

		_, err = store.SetEntityUserData(ctx, "metric-2", "s1", "a", data)
		assert.True(t, errors.Is(err, ErrMeasurementNotFound))

		_, err = store.Ingest(ctx, collectedEntities("a", "b"))
		require.NoError(t, err)

		_, err = store.SetEntityUserData(ctx, "metric-2", "s2", "a", data)
		assert.True(t, errors.Is(err, ErrSourceNotFound))

		_, err = store.SetEntityUserData(ctx, "metric-2", "s1", "z", data)
		assert.True(t, errors.Is(err, ErrEntityNotFound))
	})
	t.Run("annotation should be carried forward and orphaned", func(t *testing.T) {
		t.Parallel()

		store, s, clock := createTestStore(t, true)
		ctx := context.Background()

		_, err := store.Ingest(ctx, collectedEntities("a", "b"))
		require.NoError(t, err)

		clock.Set(t2)
		annotated, err := store.SetEntityUserData(ctx, "metric-2", "s1", "a", model.EntityUserData{
			Status:    model.EntityFalsePositive,
			Rationale: "generated code",
		})
		require.NoError(t, err)
		assert.True(t, annotated.Start.Equal(t2))
		assert.NotEmpty(t, annotated.ID)
		assert.Equal(t, "1", *annotated.Scales[model.ScaleCount].Value)
		assert.Equal(t, model.StatusNearTargetMet, annotated.Scales[model.ScaleCount].Status)

		// the collector does not know about annotations, the store carries them forward
		clock.Set(t3)
		outcome, err := store.Ingest(ctx, collectedEntities("a", "b"))
		require.NoError(t, err)
		assert.Equal(t, common.OutcomeMerged, outcome)

		clock.Set(t4)
		outcome, err = store.Ingest(ctx, collectedEntities("b"))
		require.NoError(t, err)
		assert.Equal(t, common.OutcomeInserted, outcome)

		stored := allMeasurements(t, s, "metric-2")
		require.Len(t, stored, 3)
		latest := stored[2]
		assert.Equal(t, model.EntityUserData{
			Status:        model.EntityFalsePositive,
			Rationale:     "generated code",
			OrphanedSince: model.FormatTimestamp(t4),
		}, latest.Sources[0].EntityUserData["a"])
		assert.Equal(t, "1", *latest.Scales[model.ScaleCount].Value)
	})
}

func TestMeasurementStore_CompareTotalsPolicy(t *testing.T) {
	t.Parallel()

	withTotal := func(total string) model.Measurement {
		measurement := collected("metric-1", "4", "6")
		measurement.Sources[0].Total = model.StringPtr(total)
		return measurement
	}

	for _, compareTotals := range []bool{true, false} {
		store, s, clock := createTestStore(t, compareTotals)
		ctx := context.Background()

		_, err := store.Ingest(ctx, withTotal("100"))
		require.NoError(t, err)

		clock.Set(t2)
		outcome, err := store.Ingest(ctx, withTotal("120"))
		require.NoError(t, err)

		if compareTotals {
			assert.Equal(t, common.OutcomeInserted, outcome)
			assert.Len(t, allMeasurements(t, s, "metric-1"), 2)
		} else {
			assert.Equal(t, common.OutcomeMerged, outcome)
			assert.Len(t, allMeasurements(t, s, "metric-1"), 1)
		}
	}
}

func TestMeasurementStore_StorageErrorsPropagate(t *testing.T) {
	t.Parallel()

	expectedErr := errors.New("disk full")
	latest := &model.Measurement{ID: "latest", MetricUUID: "metric-1"}

	testCases := map[string]*testsCommon.StorageStub{
		"find latest": {
			FindLatestHandler: func(ctx context.Context, metricUUID string) (*model.Measurement, error) {
				return nil, expectedErr
			},
		},
		"find latest successful": {
			FindLatestHandler: func(ctx context.Context, metricUUID string) (*model.Measurement, error) {
				return latest, nil
			},
			FindLatestSuccessfulHandler: func(ctx context.Context, metricUUID string) (*model.Measurement, error) {
				return nil, expectedErr
			},
		},
		"insert": {
			InsertHandler: func(ctx context.Context, measurement model.Measurement) error {
				return expectedErr
			},
		},
	}

	for name, storageStub := range testCases {
		t.Run(name, func(t *testing.T) {
			store, _ := NewMeasurementStore(ArgsMeasurementStore{
				Storage: storageStub,
				Metrics: testsCommon.NewMetricProviderStub(createSumMetric()),
			})

			outcome, err := store.Ingest(context.Background(), collected("metric-1", "4", "6"))
			assert.Equal(t, expectedErr, err)
			assert.Empty(t, outcome)
		})
	}
}

func TestMeasurementStore_ConcurrentIngests(t *testing.T) {
	t.Parallel()

	store, s, _ := createTestStore(t, true)

	numIngests := 20
	outcomes := make(chan common.Outcome, numIngests)
	var wg sync.WaitGroup
	wg.Add(numIngests)
	for i := 0; i < numIngests; i++ {
		go func() {
			defer wg.Done()

			outcome, err := store.Ingest(context.Background(), collected("metric-1", "4", "6"))
			assert.Nil(t, err)
			outcomes <- outcome
		}()
	}
	wg.Wait()
	close(outcomes)

	numInserted := 0
	for outcome := range outcomes {
		if outcome == common.OutcomeInserted {
			numInserted++
		}
	}

	assert.Equal(t, 1, numInserted)
	assert.Len(t, allMeasurements(t, s, "metric-1"), 1)
	assert.Equal(t, 0, store.locks.len())
}
