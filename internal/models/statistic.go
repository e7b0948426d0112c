package models

import (
	"math"
	"strings"
)

// Statistic is the reducer applied to each metric partition of a query.
type Statistic string

const (
	StatisticMin Statistic = "min"
	StatisticMax Statistic = "max"
	StatisticSum Statistic = "sum"
	StatisticAvg Statistic = "avg"
)

// ParseStatistic is case-insensitive and accepts "average" for avg.
// Empty input defaults to avg.
func ParseStatistic(raw string) (Statistic, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return StatisticAvg, nil
	case "min":
		return StatisticMin, nil
	case "max":
		return StatisticMax, nil
	case "sum":
		return StatisticSum, nil
	case "avg", "average":
		return StatisticAvg, nil
	default:
		return "", &UnknownValueError{
			Kind:    ErrUnknownStatistic,
			Value:   raw,
			Allowed: []string{"min", "max", "sum", "avg"},
		}
	}
}

func (s Statistic) String() string {
	return string(s)
}

// SQLFunc returns the aggregate function name understood by SQL stores.
func (s Statistic) SQLFunc() string {
	switch s {
	case StatisticMin:
		return "min"
	case StatisticMax:
		return "max"
	case StatisticSum:
		return "sum"
	default:
		return "avg"
	}
}

// Reduce folds values with s. ok is false when values is empty.
func (s Statistic) Reduce(values []float64) (result float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}

	switch s {
	case StatisticMin:
		result = math.Inf(1)
		for _, v := range values {
			result = math.Min(result, v)
		}
	case StatisticMax:
		result = math.Inf(-1)
		for _, v := range values {
			result = math.Max(result, v)
		}
	case StatisticSum:
		for _, v := range values {
			result += v
		}
	default:
		for _, v := range values {
			result += v
		}
		result /= float64(len(values))
	}
	return result, true
}
