package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"weather-metrics/internal/aggregator"
	"weather-metrics/internal/database"
	"weather-metrics/internal/models"
	"weather-metrics/internal/telemetry"
)

// Repository is the storage the service needs: writes for ingestion,
// aggregation for queries.
type Repository interface {
	database.ReadingWriter
	database.Aggregator
}

// ReadingPublisher announces readings after they are persisted
type ReadingPublisher interface {
	PublishReading(ctx context.Context, r models.Reading) error
}

// SensorService is the entry point for ingestion and queries, used directly by
// the HTTP layer and through channels by the MQTT layer
type SensorService struct {
	store     database.ReadingWriter
	engine    *aggregator.Engine
	publisher ReadingPublisher
	now       func() time.Time

	// Input channels from MQTT subscriber
	IngestChan chan *models.IngestRequest
	QueryChan  chan *models.QueryEnvelope

	// Output channel to MQTT publisher
	ResponseChan chan *models.QueryResponse
}

// SensorServiceConfig holds configuration for sensor service
type SensorServiceConfig struct {
	IngestChannelSize   int
	QueryChannelSize    int
	ResponseChannelSize int
}

// DefaultSensorServiceConfig returns default configuration
func DefaultSensorServiceConfig() SensorServiceConfig {
	return SensorServiceConfig{
		IngestChannelSize:   100,
		QueryChannelSize:    50,
		ResponseChannelSize: 50,
	}
}

// NewSensorService creates a new sensor service
func NewSensorService(repo Repository, config SensorServiceConfig) *SensorService {
	return &SensorService{
		store:        repo,
		engine:       aggregator.NewEngine(repo),
		now:          func() time.Time { return time.Now().UTC() },
		IngestChan:   make(chan *models.IngestRequest, config.IngestChannelSize),
		QueryChan:    make(chan *models.QueryEnvelope, config.QueryChannelSize),
		ResponseChan: make(chan *models.QueryResponse, config.ResponseChannelSize),
	}
}

// SetPublisher installs an optional publisher notified after every save
func (s *SensorService) SetPublisher(p ReadingPublisher) {
	s.publisher = p
}

// Ingest validates a reading, stores it and returns the persisted form
func (s *SensorService) Ingest(ctx context.Context, req models.IngestRequest) (models.Reading, error) {
	reading, err := normalizeRequest(req)
	if err != nil {
		telemetry.IngestErrorsTotal.WithLabelValues(telemetry.ErrorKind(err)).Inc()
		return models.Reading{}, err
	}

	saved, err := s.store.Save(ctx, reading)
	if err != nil {
		telemetry.IngestErrorsTotal.WithLabelValues(telemetry.ErrorKind(err)).Inc()
		return models.Reading{}, err
	}
	telemetry.ReadingsIngestedTotal.WithLabelValues(saved.Metric.String()).Inc()

	// The reading is already persisted, so a failed announcement is only logged
	if s.publisher != nil {
		if err := s.publisher.PublishReading(ctx, saved); err != nil {
			zap.S().Warnf("Error publishing reading %s: %v", saved.ID, err)
		}
	}

	return saved, nil
}

// Query normalizes the request, resolves its window and runs the aggregation
func (s *SensorService) Query(ctx context.Context, req models.QueryRequest) (*models.QueryResult, error) {
	start := time.Now()
	defer func() {
		telemetry.QueryDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	result, stat, err := s.query(ctx, req)
	status := "ok"
	if err != nil {
		status = telemetry.ErrorKind(err)
	}
	telemetry.QueriesTotal.WithLabelValues(stat.String(), status).Inc()

	return result, err
}

func (s *SensorService) query(ctx context.Context, req models.QueryRequest) (*models.QueryResult, models.Statistic, error) {
	metrics, err := models.ParseMetrics(req.Metrics)
	if err != nil {
		return nil, "", err
	}

	stat, err := models.ParseStatistic(req.Statistic)
	if err != nil {
		return nil, "", err
	}

	window, err := aggregator.ResolveWindowAt(req.From, req.To, s.now())
	if err != nil {
		return nil, stat, err
	}

	result, err := s.engine.Query(ctx, req.SensorIDs, metrics, stat, window)
	return result, stat, err
}

// Start begins processing MQTT traffic from channels.
// Runs until context is cancelled
func (s *SensorService) Start(ctx context.Context) {
	zap.S().Info("SensorService: Starting...")

	go s.processIngestLoop(ctx)
	go s.processQueryLoop(ctx)

	zap.S().Info("SensorService: All processing loops started")

	<-ctx.Done()
	zap.S().Info("SensorService: Shutdown complete")
}

// processIngestLoop continuously persists incoming readings
func (s *SensorService) processIngestLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req, ok := <-s.IngestChan:
			if !ok {
				return
			}
			s.processIngest(ctx, req)
		}
	}
}

// processQueryLoop continuously answers incoming queries
func (s *SensorService) processQueryLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-s.QueryChan:
			if !ok {
				return
			}
			s.processQuery(ctx, env)
		}
	}
}

// processIngest handles a single reading
func (s *SensorService) processIngest(ctx context.Context, req *models.IngestRequest) {
	saved, err := s.Ingest(ctx, *req)
	if err != nil {
		zap.S().Warnf("Dropping reading from sensor %q: %v", req.SensorID, err)
		return
	}

	zap.S().Debugf("Saved reading: sensor=%s, metric=%s, value=%.2f", saved.SensorID, saved.Metric, saved.Value)
}

// processQuery handles a single query and queues the response for publishing
func (s *SensorService) processQuery(ctx context.Context, env *models.QueryEnvelope) {
	resp := &models.QueryResponse{ClientID: env.ClientID}

	result, err := s.Query(ctx, env.Request)
	if err != nil {
		zap.S().Infof("Query from %s failed: %v", env.ClientID, err)
		resp.Error = err.Error()
	} else {
		resp.Result = result
	}

	select {
	case s.ResponseChan <- resp:
	case <-ctx.Done():
	case <-time.After(1 * time.Second):
		zap.S().Warnf("Response channel full, dropping query response for %s", env.ClientID)
	}
}
