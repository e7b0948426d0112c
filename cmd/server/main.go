package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httpv1 "weather-metrics/internal/controller/http/v1"
	"weather-metrics/internal/events"
	"weather-metrics/internal/mqtt"
	"weather-metrics/internal/seed"
	"weather-metrics/internal/services"
	"weather-metrics/pkg/config"
	"weather-metrics/pkg/logger"
	"weather-metrics/pkg/middleware"
)

func main() {
	root := &cobra.Command{
		Use:           "weather-metrics",
		Short:         "Weather sensor readings ingestion and aggregation service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), seedCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and, when enabled, the MQTT bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer zap.L().Sync()
			return serve(cfg)
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Replace stored readings with a week of demo data",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}
			defer zap.L().Sync()

			ctx := cmd.Context()
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			_, err = seed.Seed(ctx, store, time.Now(), rand.New(rand.NewSource(time.Now().UnixNano())))
			return err
		},
	}
}

func setup() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = cfg.LogFormat
	logCfg.File = cfg.LogFile
	if _, err := logger.Init(logCfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(cfg *config.Config) error {
	log := zap.S()
	log.Info("Starting weather metrics service...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sensorService := services.NewSensorService(store, services.DefaultSensorServiceConfig())

	// === Reading events ===
	if cfg.AMQPURL != "" {
		publisher, err := events.NewRabbitPublisher(cfg.AMQPURL, cfg.AMQPExchange)
		if err != nil {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		defer publisher.Close()
		sensorService.SetPublisher(publisher)
		log.Infof("Publishing reading events to exchange %s", cfg.AMQPExchange)
	}

	// === MQTT bridge ===
	if cfg.MQTTEnabled {
		closeMQTT, err := startMQTT(ctx, cfg, sensorService)
		if err != nil {
			return err
		}
		defer closeMQTT()
	}

	go sensorService.Start(ctx)

	// === HTTP API ===
	limiter, closeLimiter := newRateLimiter(ctx, cfg)
	defer closeLimiter()

	gin.SetMode(gin.ReleaseMode)
	router := httpv1.NewRouter(httpv1.NewSensorHandler(sensorService), limiter)
	if err := router.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		return fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpv1.WithCORS(router, cfg.AllowedOrigins()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("HTTP API listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	log.Infof("Store: %s", cfg.StoreDriver)
	log.Info("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		log.Info("Shutdown signal received, stopping services...")
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("HTTP shutdown: %v", err)
	}
	cancel()

	log.Info("Shutdown complete. Goodbye!")
	return nil
}

// startMQTT connects to the broker and wires subscriber -> service -> publisher
// through the service's channels.
func startMQTT(ctx context.Context, cfg *config.Config, svc *services.SensorService) (func(), error) {
	log := zap.S()
	log.Info("Connecting to MQTT broker...")

	client, err := mqtt.NewClient(mqtt.ClientConfig{
		Broker:   cfg.MQTTBroker,
		ClientID: cfg.MQTTClientID,
		Username: cfg.MQTTUsername,
		Password: cfg.MQTTPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MQTT client: %w", err)
	}

	subscriber := mqtt.NewSubscriber(
		client.GetNativeClient(),
		mqtt.SubscriberConfig{
			ReadingsTopic:     cfg.MQTTTopicReadings,
			QueryRequestTopic: cfg.MQTTTopicQueryRequest,
		},
		svc.IngestChan,
		svc.QueryChan,
		svc.ResponseChan,
	)
	if err := subscriber.SubscribeAll(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to subscribe to MQTT topics: %w", err)
	}
	client.OnConnect(subscriber.Resubscribe)

	publisher := mqtt.NewPublisher(
		client.GetNativeClient(),
		mqtt.PublisherConfig{QueryResponseTopic: cfg.MQTTTopicQueryResp},
		svc.ResponseChan,
	)
	go publisher.Start(ctx)

	log.Infof("MQTT Topics:")
	log.Infof("  - Readings:       %s", cfg.MQTTTopicReadings)
	log.Infof("  - Query Request:  %s", cfg.MQTTTopicQueryRequest)
	log.Infof("  - Query Response: %s", cfg.MQTTTopicQueryResp)

	return client.Close, nil
}

func newRateLimiter(ctx context.Context, cfg *config.Config) (gin.HandlerFunc, func()) {
	if cfg.RateLimitPerSecond == 0 {
		return func(c *gin.Context) { c.Next() }, func() {}
	}

	if cfg.RedisAddr == "" {
		return middleware.NewRateLimiter(middleware.RateLimiterConfig{
			PerSecond: cfg.RateLimitPerSecond,
			Burst:     cfg.RateLimitBurst,
		}), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
	if err := client.Ping(ctx).Err(); err != nil {
		zap.S().Warnf("Redis at %s unreachable, rate limiter will fail open until it is: %v", cfg.RedisAddr, err)
	}

	return middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RedisClient: client,
		Limit:       int(cfg.RateLimitPerSecond * 60),
		Window:      time.Minute,
	}), func() { _ = client.Close() }
}
