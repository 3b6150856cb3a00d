package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"FinCast/internal/domain/models"
	domrepo "FinCast/internal/domain/repository"
	"FinCast/internal/handler/api"
	"FinCast/internal/handler/ws"
	internalrepo "FinCast/internal/repository"
	"FinCast/internal/service/neural"
	"FinCast/internal/usecase"
	pkgcache "FinCast/pkg/cache"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/metrics"
	"FinCast/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS fincast",
		`CREATE TABLE IF NOT EXISTS fincast.candles_1m (
            symbol String,
            open_time Int64,
            close_time Int64,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Float64
        ) ENGINE=MergeTree ORDER BY (symbol, open_time)`,
		`CREATE TABLE IF NOT EXISTS fincast.forecasts (
            symbol String,
            open_time Int64,
            close_time Int64,
            open Float64,
            high Float64,
            low Float64,
            close Float64,
            volume Float64,
            horizon_id Int32,
            predicted_at DateTime64(3)
        ) ENGINE=MergeTree ORDER BY (symbol, open_time, horizon_id)`,
	}); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher wraps the producer, or returns nil when Kafka is disabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) domrepo.Publisher {
	if producer == nil {
		return nil
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	pub.SetLogger(l)
	return pub
}

// ProvideCache builds the API cache, or nil when Redis is disabled.
func ProvideCache(cfg *config.Config) (pkgcache.Service, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	redisCache, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(host),
		pkgcache.WithRedisPort(port),
		pkgcache.WithRedisPassword(cfg.Redis.Password),
		pkgcache.WithRedisDB(cfg.Redis.DB),
		pkgcache.WithRedisPrefix("fincast"),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return pkgcache.NewLayeredCache(redisCache), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideHorizons returns the validated horizon partition.
func ProvideHorizons(cfg *config.Config) []models.Horizon {
	return cfg.Horizons()
}

// ProvideCandleSource creates the ClickHouse candle reader.
func ProvideCandleSource(chClient *pkgch.Client, l *applogger.Logger) domrepo.CandleSource {
	src := internalrepo.NewCHCandleSource(chClient)
	src.SetLogger(l)
	return src
}

// ProvideForecastStore creates the ClickHouse forecast store.
func ProvideForecastStore(chClient *pkgch.Client, l *applogger.Logger) domrepo.ForecastStore {
	store := internalrepo.NewCHForecastStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideArtifactStore creates the on-disk model artifact store.
func ProvideArtifactStore(cfg *config.Config, l *applogger.Logger) (domrepo.ArtifactStore, error) {
	store, err := internalrepo.NewFileArtifactStore(cfg.Predictor.ModelDir)
	if err != nil {
		return nil, err
	}
	store.SetLogger(l)
	return store, nil
}

// ProvideTrainer creates the default neural trainer.
func ProvideTrainer(cfg *config.Config) domrepo.Trainer {
	return neural.NewTrainer(neural.Config{
		HiddenUnits:  cfg.Predictor.Neural.HiddenUnits,
		Epochs:       cfg.Predictor.Neural.Epochs,
		LearningRate: cfg.Predictor.Neural.LearningRate,
		BatchSize:    cfg.Predictor.Neural.BatchSize,
	})
}

// ProvideFeatureBuilder creates the multi-scale feature builder.
func ProvideFeatureBuilder(cfg *config.Config) (*usecase.FeatureBuilder, error) {
	return usecase.NewFeatureBuilder(cfg.Predictor.ResampleScales)
}

// ProvideModelLifecycle creates the per-day model lifecycle manager.
func ProvideModelLifecycle(
	store domrepo.ArtifactStore,
	trainer domrepo.Trainer,
	features *usecase.FeatureBuilder,
	horizons []models.Horizon,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.ModelLifecycle {
	return usecase.NewModelLifecycle(store, trainer, features, horizons, m, l)
}

// ProvideComposer creates the forecast composer.
func ProvideComposer(source domrepo.CandleSource, horizons []models.Horizon, l *applogger.Logger) *usecase.PredictionComposer {
	return usecase.NewPredictionComposer(source, horizons, l)
}

// ProvideScheduler creates the catch-up scheduler.
func ProvideScheduler(
	cfg *config.Config,
	source domrepo.CandleSource,
	forecasts domrepo.ForecastStore,
	lifecycle *usecase.ModelLifecycle,
	composer *usecase.PredictionComposer,
	publisher domrepo.Publisher,
	features *usecase.FeatureBuilder,
	horizons []models.Horizon,
	m domrepo.Metrics,
	l *applogger.Logger,
) *usecase.Scheduler {
	return usecase.NewScheduler(
		usecase.SchedulerConfig{
			Symbols:        cfg.Predictor.Symbols,
			PollInterval:   cfg.Predictor.PollInterval,
			CleanupEvery:   cfg.Predictor.CleanupEveryCycles,
			ForecastRetain: cfg.Predictor.ForecastRetention,
		},
		source, forecasts, lifecycle, composer, publisher, features, horizons, m, l,
	)
}

// ProvideForecastQuery creates the read-side usecase for the HTTP API.
func ProvideForecastQuery(forecasts domrepo.ForecastStore, source domrepo.CandleSource, cache pkgcache.Service) *usecase.ForecastQuery {
	return usecase.NewForecastQuery(forecasts, source, cache)
}

// ProvideHTTPHandler creates the Echo API handler.
func ProvideHTTPHandler(l *applogger.Logger, query *usecase.ForecastQuery) xhttp.Handler {
	return api.NewForecastsEchoHandler(l, query)
}

// ProvideHub creates the websocket broadcast hub.
func ProvideHub(l *applogger.Logger) *ws.Hub {
	return ws.NewHub(l)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	scheduler *usecase.Scheduler,
	hub *ws.Hub,
	chClient *pkgch.Client,
	handler xhttp.Handler,
	publisher domrepo.Publisher,
	producer *pkgkafka.Producer,
	l *applogger.Logger,
) *server.App {
	app := server.New(cfg, scheduler, hub, chClient, handler, l)
	if publisher != nil {
		app.AddCloser(publisher.Close)
	}
	// Error logs are aggregated and shipped to Kafka when a log topic is set.
	if producer != nil && cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Publisher:      producer,
		})
		app.AddCloser(func() error {
			l.RemoveCollector()
			return nil
		})
	}
	return app
}
