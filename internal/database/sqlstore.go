package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"weather-metrics/internal/models"
)

// SQLStore implements Store on SQLite ("sqlite") or PostgreSQL ("postgres").
// Timestamps are kept as Unix milliseconds; the lower window bound is rounded
// up to the next millisecond so boundaries match the in-memory store.
type SQLStore struct {
	db *sqlx.DB
}

type aggregateRow struct {
	Metric string  `db:"metric"`
	Value  float64 `db:"value"`
}

// NewSQLStore opens the database and creates the schema
func NewSQLStore(driverName, dsn string) (*SQLStore, error) {
	db, err := sqlx.Connect(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driverName, err)
	}

	if driverName == "sqlite" {
		// A single connection keeps ":memory:" databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	s := &SQLStore{db: db}
	if err := s.InitSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	zap.S().Infof("Connected to %s store", driverName)
	return s, nil
}

// InitSchema creates the sensor_data table and index if they don't exist
func (s *SQLStore) InitSchema(ctx context.Context) error {
	for _, stmt := range SQLTables() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) Save(ctx context.Context, r models.Reading) (models.Reading, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	query := s.db.Rebind(`
		INSERT INTO sensor_data (id, sensor_id, metric, value, ts_ms)
		VALUES (?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(ctx, query,
		r.ID,
		r.SensorID,
		r.Metric.String(),
		r.Value,
		r.Timestamp.UnixMilli(),
	)
	if err != nil {
		return models.Reading{}, &models.StorageError{Op: "save", Err: fmt.Errorf("failed to insert reading: %w", err)}
	}

	return r, nil
}

func (s *SQLStore) Aggregate(ctx context.Context, f Filter, stat models.Statistic) (map[string]float64, error) {
	query, args, err := buildSQLAggregate(f, stat)
	if err != nil {
		return nil, &models.StorageError{Op: "aggregate", Err: err}
	}

	var rows []aggregateRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, &models.StorageError{Op: "aggregate", Err: err}
	}

	results := make(map[string]float64, len(rows))
	for _, row := range rows {
		results[row.Metric] = row.Value
	}
	return results, nil
}

// buildSQLAggregate renders the GROUP BY metric query with "?" placeholders,
// expanding list filters with sqlx.In.
func buildSQLAggregate(f Filter, stat models.Statistic) (string, []any, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT metric, %s(value) AS value FROM sensor_data WHERE ts_ms >= ? AND ts_ms <= ?", stat.SQLFunc())
	args := []any{ceilMilli(f.From), f.To.UnixMilli()}

	if len(f.SensorIDs) > 0 {
		sb.WriteString(" AND sensor_id IN (?)")
		args = append(args, f.SensorIDs)
	}
	if len(f.Metrics) > 0 {
		sb.WriteString(" AND metric IN (?)")
		args = append(args, f.metricNames())
	}
	sb.WriteString(" GROUP BY metric")

	return sqlx.In(sb.String(), args...)
}

// ceilMilli is t in Unix milliseconds, rounded up
func ceilMilli(t time.Time) int64 {
	ms := t.UnixMilli()
	if t.Sub(time.UnixMilli(ms)) > 0 {
		ms++
	}
	return ms
}

func (s *SQLStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sensor_data"); err != nil {
		return &models.StorageError{Op: "reset", Err: err}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
