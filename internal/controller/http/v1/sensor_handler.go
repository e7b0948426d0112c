package v1

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/relvacode/iso8601"
	"go.uber.org/zap"

	"weather-metrics/internal/models"
)

type SensorUseCase interface {
	Ingest(ctx context.Context, req models.IngestRequest) (models.Reading, error)
	Query(ctx context.Context, req models.QueryRequest) (*models.QueryResult, error)
}

type SensorHandler struct {
	UseCase SensorUseCase
}

func NewSensorHandler(u SensorUseCase) *SensorHandler {
	return &SensorHandler{UseCase: u}
}

type sensorDataRequest struct {
	SensorID  string   `json:"sensorId"`
	Metric    string   `json:"metric"`
	Value     *float64 `json:"value"`
	Timestamp string   `json:"timestamp"`
}

// AddSensorData handles POST /sensors/data
func (h *SensorHandler) AddSensorData(c *gin.Context) {
	var body sensorDataRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	ts, err := parseInstant("timestamp", body.Timestamp)
	if err != nil {
		writeError(c, err)
		return
	}

	saved, err := h.UseCase.Ingest(c.Request.Context(), models.IngestRequest{
		SensorID:  body.SensorID,
		Metric:    body.Metric,
		Value:     body.Value,
		Timestamp: ts,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, saved)
}

// QuerySensorData handles GET /sensors/query
func (h *SensorHandler) QuerySensorData(c *gin.Context) {
	from, err := parseInstant("from", c.Query("from"))
	if err != nil {
		writeError(c, err)
		return
	}
	to, err := parseInstant("to", c.Query("to"))
	if err != nil {
		writeError(c, err)
		return
	}

	stat := c.Query("stat")
	if stat == "" {
		stat = c.Query("statistic")
	}

	result, err := h.UseCase.Query(c.Request.Context(), models.QueryRequest{
		SensorIDs: splitList(c.QueryArray("sensorIds")),
		Metrics:   splitList(c.QueryArray("metrics")),
		Statistic: stat,
		From:      from,
		To:        to,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// splitList flattens repeated and comma-separated values, dropping blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func parseInstant(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	ts, err := iso8601.ParseString(raw)
	if err != nil {
		return nil, models.InvalidInputf("invalid %s: %q is not an ISO-8601 instant", field, raw)
	}
	ts = ts.UTC()
	return &ts, nil
}

// writeError maps error kinds to status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidInput),
		errors.Is(err, models.ErrUnknownMetric),
		errors.Is(err, models.ErrUnknownStatistic),
		errors.Is(err, models.ErrInvalidRange):
		status = http.StatusBadRequest
	default:
		zap.S().Errorf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
