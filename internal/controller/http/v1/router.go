package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
)

var httpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "weather",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10),
	},
	[]string{"method", "path", "status"},
)

// NewRouter wires the sensor routes, health and metrics endpoints.
// Extra middleware (rate limiting, auth) runs before the handlers.
// No proxy is trusted until the caller sets one with SetTrustedProxies.
func NewRouter(h *SensorHandler, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies(nil)
	r.Use(gin.Recovery(), observe)

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	sensors := r.Group("/sensors", middleware...)
	{
		sensors.POST("/data", h.AddSensorData)
		sensors.GET("/query", h.QuerySensorData)
	}

	return r
}

// WithCORS wraps the engine with a CORS handler for the given origins
func WithCORS(handler http.Handler, allowedOrigins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(handler)
}

func observe(c *gin.Context) {
	start := time.Now()
	c.Next()

	path := c.FullPath()
	if path == "" {
		path = "unmatched"
	}
	httpRequestDuration.
		WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).
		Observe(time.Since(start).Seconds())
}
