package models

import "time"

// Reading represents a single sensor observation
type Reading struct {
	ID        string    `json:"id,omitempty"`
	SensorID  string    `json:"sensorId"`
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"` // UTC
}

// IngestRequest is a reading as received from a caller, before validation.
// Nil Value or Timestamp means the field was not supplied.
type IngestRequest struct {
	SensorID  string
	Metric    string
	Value     *float64
	Timestamp *time.Time
}

// QueryRequest is an aggregation query as received from a caller.
// Empty lists mean "unconstrained"; nil bounds are defaulted.
type QueryRequest struct {
	SensorIDs []string
	Metrics   []string
	Statistic string
	From      *time.Time
	To        *time.Time
}

// QueryEnvelope carries a query received over MQTT together with its reply address
type QueryEnvelope struct {
	ClientID string
	Request  QueryRequest
}

// QueryResponse is published back to an MQTT query client
type QueryResponse struct {
	ClientID string       `json:"-"`
	Result   *QueryResult `json:"result,omitempty"`
	Error    string       `json:"error,omitempty"`
}
