package di

import (
    "context"
    "fmt"
    "net"
    "strconv"
    "time"

    "VitaPull/internal/domain/repository"
    domsvc "VitaPull/internal/domain/service"
    "VitaPull/internal/handler/api"
    mid "VitaPull/internal/middleware"
    internalrepo "VitaPull/internal/repository"
    icache "VitaPull/internal/service/cache"
    "VitaPull/internal/service/oura"
    "VitaPull/internal/services/analytics"
    "VitaPull/internal/services/features"
    "VitaPull/internal/usecase"
    pkgcache "VitaPull/pkg/cache"
    pkgch "VitaPull/pkg/clickhouse"
    "VitaPull/pkg/config"
    xhttp "VitaPull/pkg/http"
    pkgkafka "VitaPull/pkg/kafka"
    "VitaPull/pkg/logger"
    "VitaPull/pkg/metrics"
    "VitaPull/pkg/queue"
    "VitaPull/pkg/server"

    "github.com/redis/go-redis/v9"
    kafkago "github.com/segmentio/kafka-go"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	if cfg.Environment == "dev" {
		level = "debug"
	}
	return logger.New(&logger.Config{Level: level, Format: "console", Output: "stdout"})
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

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.SchemaStatements()); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
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

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRecordStore creates the ClickHouse record store.
func ProvideRecordStore(chClient *pkgch.Client, lgr *logger.Logger) repository.RecordStore {
	store := internalrepo.NewCHRecordStore(chClient)
	store.SetLogger(lgr)
	return store
}

// ProvideRecordPublisher creates the Kafka sync-topic publisher.
func ProvideRecordPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.RecordPublisher {
	return internalrepo.NewKafkaRecordPublisher(producer, cfg.Kafka.SyncTopic)
}

// ProvideAlertPublisher creates the Kafka alert-topic publisher.
func ProvideAlertPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.AlertPublisher {
	return internalrepo.NewKafkaAlertPublisher(producer, cfg.Kafka.AlertTopic)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaSyncHandler registers the handler for the sync topic.
func ProvideKafkaSyncHandler(store repository.RecordStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaSyncHandler {
	return usecase.NewKafkaSyncHandler(cfg.Kafka.SyncTopic, store, m)
}

// ProvideVendorSource creates the Oura REST client.
func ProvideVendorSource(cfg *config.Config) repository.VendorSource {
	opts := []oura.Option{
		oura.WithRateLimit(cfg.Oura.RateCapacity, cfg.Oura.RateRefill),
	}
	if cfg.Oura.BaseURL != "" {
		opts = append(opts, oura.WithBaseURL(cfg.Oura.BaseURL))
	}
	if cfg.Oura.Timeout > 0 {
		opts = append(opts, oura.WithHTTPClient(xhttp.NewClient(xhttp.WithTimeout(cfg.Oura.Timeout))))
	}
	return oura.New(cfg.Oura.Token, opts...)
}

// ProvideRecordProcessor creates the record processor use case.
func ProvideRecordProcessor(
	pub repository.RecordPublisher,
	store repository.RecordStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.RecordProcessor {
	return usecase.NewRecordProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideSyncCollector creates the vendor sync collector.
func ProvideSyncCollector(
    source repository.VendorSource,
    processor *usecase.RecordProcessor,
    m repository.Metrics,
    lgr *logger.Logger,
    cfg *config.Config,
) *usecase.SyncCollector {
    // Build middleware pipeline between the vendor API and the backend
    pipe := mid.NewIngestPipeline(processor, m,
        mid.WithDedupeWindow(time.Minute),
        mid.WithBufferSize(2000),
    )
    return usecase.NewSyncCollector(source, processor, m, pipe, lgr,
        cfg.Oura.SyncInterval, cfg.Oura.LookbackDays)
}

// ProvideInsightPipeline creates the analytics pipeline.
func ProvideInsightPipeline(
	store repository.RecordStore,
	alerts repository.AlertPublisher,
	m repository.Metrics,
	lgr *logger.Logger,
	cfg *config.Config,
) *usecase.InsightPipeline {
	featCfg := features.DefaultConfig()
	if len(cfg.Analytics.Sources) > 0 {
		featCfg.Sources = cfg.Analytics.Sources
	}
	if len(cfg.Analytics.Lags) > 0 {
		featCfg.Lags = cfg.Analytics.Lags
	}
	if len(cfg.Analytics.Windows) > 0 {
		featCfg.Windows = cfg.Analytics.Windows
	}

	trainCfg := analytics.DefaultTrainerConfig()
	if cfg.Analytics.TestFraction > 0 {
		trainCfg.TestFraction = cfg.Analytics.TestFraction
	}
	if cfg.Analytics.Trees > 0 {
		trainCfg.Forest.Trees = cfg.Analytics.Trees
	}
	if cfg.Analytics.TreeWorkers > 0 {
		trainCfg.Forest.Workers = cfg.Analytics.TreeWorkers
	}
	if cfg.Analytics.Seed != 0 {
		trainCfg.Forest.Seed = cfg.Analytics.Seed
	}

	return usecase.NewInsightPipeline(
		store, alerts, m, lgr,
		analytics.NewEstimator(),
		func(sigma float64) domsvc.AnomalyDetector { return analytics.NewDetector(sigma) },
		func(target string) domsvc.FeatureSynthesizer {
			fc := featCfg
			if target != "" {
				fc.Target = target
			}
			return features.NewSynthesizer(fc)
		},
		analytics.NewTrainer(trainCfg),
	)
}

// ProvideReportCache picks a layered memory+Redis cache when Redis is
// configured, an in-process TTL cache otherwise.
func ProvideReportCache(cfg *config.Config) icache.BytesCache {
	if cfg.Analytics.Redis.Enabled {
		host, port := splitHostPort(cfg.Analytics.Redis.Addr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Analytics.Redis.Password),
			pkgcache.WithRedisDB(cfg.Analytics.Redis.DB),
		)
		if err == nil {
			return icache.NewServiceCache(pkgcache.NewLayeredCache(rc))
		}
		// fall through to in-process cache when Redis is unreachable
	}
	return icache.NewTTLCache()
}

func splitHostPort(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 6379
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 6379
	}
	return host, port
}

// ProvideHTTPHandlers creates the Echo route handlers.
func ProvideHTTPHandlers(
	lgr *logger.Logger,
	pipeline *usecase.InsightPipeline,
	store repository.RecordStore,
	cache icache.BytesCache,
	cfg *config.Config,
) []xhttp.Handler {
	records := usecase.NewRecordsUseCase(store)
	insights := api.NewInsightsEchoHandler(lgr, pipeline, records, cache)
	stream := api.NewInsightStreamHandler(lgr, pipeline, cfg.Analytics.StreamPush)
	return []xhttp.Handler{insights, stream}
}

// ProvideRecomputeQueue creates the Redis-backed recompute worker, or nil
// when Redis is disabled.
func ProvideRecomputeQueue(
	lgr *logger.Logger,
	pipeline *usecase.InsightPipeline,
	cfg *config.Config,
) *queue.RedisQueue {
	if !cfg.Analytics.Redis.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Analytics.Redis.Addr,
		Password: cfg.Analytics.Redis.Password,
		DB:       cfg.Analytics.Redis.DB,
	})
	job := usecase.NewRecomputeJob(pipeline, lgr)
	return queue.NewRedisConsumer(lgr, &queue.QueueConfig{Workers: 1, QueueSize: 64}, client, []queue.Job{job})
}

// kafkaLogPublisher lets the log collector ship aggregated entries through
// the shared producer.
type kafkaLogPublisher struct {
    producer *pkgkafka.Producer
}

func (p kafkaLogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
    return p.producer.Publish(ctx, topic, nil, payload)
}

// consumerMetricsHook measures per-message handling latency and counts
// handler errors on the sync topic.
func consumerMetricsHook(m repository.Metrics) pkgkafka.ConsumerHook {
    return pkgkafka.HookFuncs{
        Before: func(ctx context.Context, topic string, km kafkago.Message, data []byte) (context.Context, kafkago.Message, []byte, error) {
            ctx = pkgkafka.WithStartTime(ctx, time.Now())
            ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
            return ctx, km, data, nil
        },
        After: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
            if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
                m.RecordLatency("consume", time.Since(start).Seconds())
            }
        },
        Err: func(ctx context.Context, topic string, km kafkago.Message, data []byte, err error) {
            m.RecordError("consume")
        },
    }
}

// ProvideApp creates the application server.
func ProvideApp(
    cfg *config.Config,
    lgr *logger.Logger,
    m repository.Metrics,
    collector *usecase.SyncCollector,
    consumer *pkgkafka.Consumer,
    kh *usecase.KafkaSyncHandler,
    producer *pkgkafka.Producer,
    chClient *pkgch.Client,
    handlers []xhttp.Handler,
    rq *queue.RedisQueue,
) *server.App {
    if consumer != nil {
        consumer.WithConsumerHook(pkgkafka.NewHookChain(consumerMetricsHook(m)))
    }
    // Aggregate repeated error logs and ship them over the logs topic.
    if producer != nil && len(cfg.Kafka.Brokers) > 0 {
        lgr.AddCollector(&logger.CollectionConfig{
            TimeInterval:   30 * time.Second,
            CountThreshold: 100,
            Topic:          cfg.Kafka.LogsTopic,
            Publisher:      kafkaLogPublisher{producer: producer},
        })
    }
    app := server.New(cfg, collector, consumer, kh, chClient)
    app.SetHTTPHandlers(handlers...)
    if rq != nil {
        app.SetRecomputeQueue(rq)
        collector.SetRecomputeQueue(rq, cfg.Analytics.WindowDays)
    }
    // attach record processor to app for closing resources via collector
    if collector != nil {
        app.Proc = collector.Processor()
    }
    return app
}
