package database

// SQL schemas for the sensor_data table

const (
	// ClickHouseSensorDataTableSQL creates the sensor_data table in ClickHouse
	ClickHouseSensorDataTableSQL = `
		CREATE TABLE IF NOT EXISTS sensor_data (
			id String,
			sensor_id String,
			metric LowCardinality(String),
			value Float64,
			timestamp DateTime64(3, 'UTC')
		) ENGINE = MergeTree()
		ORDER BY (sensor_id, metric, timestamp)
		PARTITION BY toYYYYMM(timestamp)
	`

	// SQLSensorDataTableSQL creates the sensor_data table for SQLite and PostgreSQL.
	// Timestamps are stored as Unix milliseconds.
	SQLSensorDataTableSQL = `
		CREATE TABLE IF NOT EXISTS sensor_data (
			id TEXT PRIMARY KEY,
			sensor_id TEXT NOT NULL,
			metric TEXT NOT NULL,
			value DOUBLE PRECISION NOT NULL,
			ts_ms BIGINT NOT NULL
		)
	`

	// SQLSensorMetricTimeIndexSQL mirrors the (sensor_id, metric, timestamp) ordering of the ClickHouse table
	SQLSensorMetricTimeIndexSQL = `
		CREATE INDEX IF NOT EXISTS idx_sensor_metric_ts ON sensor_data (sensor_id, metric, ts_ms)
	`
)

// ClickHouseTables returns all ClickHouse table creation statements
func ClickHouseTables() []string {
	return []string{
		ClickHouseSensorDataTableSQL,
	}
}

// SQLTables returns all SQLite/PostgreSQL schema statements
func SQLTables() []string {
	return []string{
		SQLSensorDataTableSQL,
		SQLSensorMetricTimeIndexSQL,
	}
}
