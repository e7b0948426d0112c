package telemetry

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"weather-metrics/internal/models"
)

func TestErrorKind(t *testing.T) {
	assert.Equal(t, "none", ErrorKind(nil))
	assert.Equal(t, "invalid_input", ErrorKind(models.InvalidInputf("x")))
	assert.Equal(t, "unknown_metric", ErrorKind(&models.UnknownValueError{Kind: models.ErrUnknownMetric, Value: "x"}))
	assert.Equal(t, "unknown_statistic", ErrorKind(&models.UnknownValueError{Kind: models.ErrUnknownStatistic, Value: "x"}))
	assert.Equal(t, "invalid_range", ErrorKind(&models.RangeError{Days: 0}))
	assert.Equal(t, "storage", ErrorKind(&models.StorageError{Op: "save", Err: errors.New("boom")}))
	assert.Equal(t, "internal", ErrorKind(errors.New("boom")))
}

func TestReadingsIngestedTotal(t *testing.T) {
	c := ReadingsIngestedTotal.WithLabelValues("humidity")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(c))
}
