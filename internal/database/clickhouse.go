package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"weather-metrics/internal/models"
)

type ClickHouseDB struct {
	conn driver.Conn
}

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(addr, database, username, password string) (*ClickHouseDB, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: database,
			Username: username,
			Password: password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	zap.S().Infof("Connected to ClickHouse at %s", addr)

	db := &ClickHouseDB{conn: conn}

	if err := db.InitSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// InitSchema creates the necessary tables if they don't exist
func (db *ClickHouseDB) InitSchema(ctx context.Context) error {
	for _, tableSQL := range ClickHouseTables() {
		if err := db.conn.Exec(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	zap.S().Info("Database schema initialized successfully")
	return nil
}

// Save inserts a reading into sensor_data
func (db *ClickHouseDB) Save(ctx context.Context, r models.Reading) (models.Reading, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	query := `
		INSERT INTO sensor_data (id, sensor_id, metric, value, timestamp)
		VALUES (?, ?, ?, ?, ?)
	`

	err := db.conn.Exec(ctx, query,
		r.ID,
		r.SensorID,
		r.Metric.String(),
		r.Value,
		r.Timestamp,
	)

	if err != nil {
		return models.Reading{}, &models.StorageError{Op: "save", Err: fmt.Errorf("failed to insert reading: %w", err)}
	}

	return r, nil
}

// Aggregate reduces matching readings per metric inside ClickHouse
func (db *ClickHouseDB) Aggregate(ctx context.Context, f Filter, stat models.Statistic) (map[string]float64, error) {
	query, args := buildClickHouseAggregate(f, stat)

	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, &models.StorageError{Op: "aggregate", Err: err}
	}
	defer rows.Close()

	results := make(map[string]float64)
	for rows.Next() {
		var (
			metric string
			value  float64
		)
		if err := rows.Scan(&metric, &value); err != nil {
			return nil, &models.StorageError{Op: "aggregate", Err: fmt.Errorf("failed to scan aggregate row: %w", err)}
		}
		results[metric] = value
	}
	if err := rows.Err(); err != nil {
		return nil, &models.StorageError{Op: "aggregate", Err: err}
	}

	return results, nil
}

// buildClickHouseAggregate renders the GROUP BY metric query for a filter.
// List filters bind as arrays and are matched with has().
func buildClickHouseAggregate(f Filter, stat models.Statistic) (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "SELECT metric, %s(value) AS value FROM sensor_data WHERE timestamp >= ? AND timestamp <= ?", stat.SQLFunc())
	args := []any{f.From, f.To}

	if len(f.SensorIDs) > 0 {
		sb.WriteString(" AND has(?, sensor_id)")
		args = append(args, f.SensorIDs)
	}
	if len(f.Metrics) > 0 {
		sb.WriteString(" AND has(?, metric)")
		args = append(args, f.metricNames())
	}
	sb.WriteString(" GROUP BY metric")

	return sb.String(), args
}

// Reset truncates sensor_data
func (db *ClickHouseDB) Reset(ctx context.Context) error {
	if err := db.conn.Exec(ctx, "TRUNCATE TABLE IF EXISTS sensor_data"); err != nil {
		return &models.StorageError{Op: "reset", Err: err}
	}
	return nil
}

// Close closes the ClickHouse connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close ClickHouse connection: %w", err)
		}
		zap.S().Info("ClickHouse connection closed")
	}
	return nil
}
