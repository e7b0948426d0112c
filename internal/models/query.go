package models

import "time"

// Window length policy, in whole days.
const (
	MinWindowDays = 1
	MaxWindowDays = 31

	// DefaultWindow is applied when one or both bounds are missing.
	DefaultWindow = 24 * time.Hour
)

// Window is an inclusive [From, To] instant range.
type Window struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t lies within the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// QueryResult is the answer to one aggregation query.
// SensorIDs and Metrics are nil when the query was unconstrained.
type QueryResult struct {
	SensorIDs       []string           `json:"sensorIds"`
	Metrics         []string           `json:"metrics"`
	Statistic       string             `json:"statistic"`
	From            time.Time          `json:"from"`
	To              time.Time          `json:"to"`
	ResultsByMetric map[string]float64 `json:"resultsByMetric"`
}
