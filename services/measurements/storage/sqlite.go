package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iulianpascalau/quality-collector/model"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

var log = logger.GetOrCreate("storage")

const selectColumns = "id, data, start_time, end_time"

// sqliteStorage is the sqlite implementation for the measurements time series
type sqliteStorage struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteStorage creates the database, schema, and starts the retention cleaner if a retention is set
func NewSQLiteStorage(dbPath string, retentionSeconds int) (*sqliteStorage, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create initial empty DB file: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases shared and serializes the writers
	db.SetMaxOpenConns(1)

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteStorage{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	if retentionSeconds > 0 {
		s.startRetentionCleaner(ctx)
	}

	return s, nil
}

func prepareDirectories(dbPath string) error {
	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS measurements (
		id          TEXT    NOT NULL PRIMARY KEY,
		metric_uuid TEXT    NOT NULL,
		start_time  INTEGER NOT NULL,
		end_time    INTEGER NOT NULL,
		has_error   INTEGER NOT NULL DEFAULT 0,
		data        TEXT    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_measurements_metric_start ON measurements(metric_uuid, start_time DESC);
	CREATE INDEX IF NOT EXISTS idx_measurements_end ON measurements(end_time);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// FindLatest returns the most recent measurement of the metric or nil if there is none
func (s *sqliteStorage) FindLatest(ctx context.Context, metricUUID string) (*model.Measurement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM measurements
		WHERE metric_uuid = ?
		ORDER BY start_time DESC, rowid DESC
		LIMIT 1
	`, metricUUID)

	return scanOptional(row)
}

// FindLatestSuccessful returns the most recent measurement of the metric without errors or nil if there is none
func (s *sqliteStorage) FindLatestSuccessful(ctx context.Context, metricUUID string) (*model.Measurement, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM measurements
		WHERE metric_uuid = ? AND has_error = 0
		ORDER BY start_time DESC, rowid DESC
		LIMIT 1
	`, metricUUID)

	return scanOptional(row)
}

// Insert persists a new measurement
func (s *sqliteStorage) Insert(ctx context.Context, measurement model.Measurement) error {
	data, err := json.Marshal(measurement)
	if err != nil {
		return fmt.Errorf("failed to marshal measurement: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO measurements (id, metric_uuid, start_time, end_time, has_error, data)
		VALUES (?, ?, ?, ?, ?, ?)
	`, measurement.ID, measurement.MetricUUID, measurement.Start.UnixNano(), measurement.End.UnixNano(),
		measurement.HasError, string(data))
	if err != nil {
		return fmt.Errorf("failed to insert measurement: %w", err)
	}

	return nil
}

// ExtendEnd moves the end of an existing measurement
func (s *sqliteStorage) ExtendEnd(ctx context.Context, measurementID string, end time.Time) error {
	result, err := s.db.ExecContext(ctx, "UPDATE measurements SET end_time = ? WHERE id = ?", end.UnixNano(), measurementID)
	if err != nil {
		return fmt.Errorf("failed to extend measurement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrMeasurementNotFound, measurementID)
	}

	return nil
}

// MeasurementsInRange returns the measurements of the metric overlapping the [from, to] interval, oldest first
func (s *sqliteStorage) MeasurementsInRange(ctx context.Context, metricUUID string, from time.Time, to time.Time) ([]model.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM measurements
		WHERE metric_uuid = ? AND start_time <= ? AND end_time >= ?
		ORDER BY start_time, rowid
	`, metricUUID, to.UnixNano(), from.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	results := make([]model.Measurement, 0)
	for rows.Next() {
		measurement, errScan := scanMeasurement(rows)
		if errScan != nil {
			return nil, errScan
		}

		results = append(results, *measurement)
	}

	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOptional(row *sql.Row) (*model.Measurement, error) {
	measurement, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	return measurement, err
}

func scanMeasurement(row scanner) (*model.Measurement, error) {
	var id, data string
	var start, end int64
	err := row.Scan(&id, &data, &start, &end)
	if err != nil {
		return nil, err
	}

	var measurement model.Measurement
	err = json.Unmarshal([]byte(data), &measurement)
	if err != nil {
		return nil, fmt.Errorf("failed to decode measurement %s: %w", id, err)
	}

	measurement.ID = id
	measurement.Start = time.Unix(0, start).UTC()
	measurement.End = time.Unix(0, end).UTC()

	return &measurement, nil
}

// cleanRetainedMeasurements deletes the measurements that ended before the retention window. The latest
// measurement of every metric is kept since the merge engine compares against it.
func (s *sqliteStorage) cleanRetainedMeasurements(ctx context.Context) error {
	cutoff := time.Now().Add(-time.Duration(s.retentionSeconds) * time.Second).UnixNano()
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM measurements
		WHERE end_time < ?
		  AND id NOT IN (
			  SELECT id FROM (
				  SELECT id, ROW_NUMBER() OVER(PARTITION BY metric_uuid ORDER BY start_time DESC, rowid DESC) AS rn
				  FROM measurements
			  ) WHERE rn = 1
		  )
	`, cutoff)
	if err != nil {
		return err
	}

	deleted, _ := result.RowsAffected()
	log.Debug("retention cleanup done", "deleted", deleted)

	return nil
}

func (s *sqliteStorage) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(RetentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < 60 {
		intervalSec = 60
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running retention cleanup")

				err := s.cleanRetainedMeasurements(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained measurements", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteStorage) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteStorage) IsInterfaceNil() bool {
	return s == nil
}
