package database

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"weather-metrics/internal/models"
)

// MemoryStore keeps readings in process memory. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	readings []models.Reading
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, r models.Reading) (models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return models.Reading{}, &models.StorageError{Op: "save", Err: err}
	}
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	s.mu.Lock()
	s.readings = append(s.readings, r)
	s.mu.Unlock()

	return r, nil
}

func (s *MemoryStore) Aggregate(ctx context.Context, f Filter, stat models.Statistic) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.StorageError{Op: "aggregate", Err: err}
	}

	s.mu.RLock()
	partitions := make(map[string][]float64)
	for _, r := range s.readings {
		if f.Matches(r) {
			key := r.Metric.String()
			partitions[key] = append(partitions[key], r.Value)
		}
	}
	s.mu.RUnlock()

	results := make(map[string]float64, len(partitions))
	for metric, values := range partitions {
		if v, ok := stat.Reduce(values); ok {
			results[metric] = v
		}
	}
	return results, nil
}

// Len returns the number of stored readings
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.readings)
}

func (s *MemoryStore) Reset(ctx context.Context) error {
	s.mu.Lock()
	s.readings = nil
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
