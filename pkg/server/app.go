package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	domsvc "VitaPull/internal/domain/service"
	"VitaPull/internal/handler/api"
	"VitaPull/internal/repository"
	icache "VitaPull/internal/service/cache"
	analytics "VitaPull/internal/services/analytics"
	"VitaPull/internal/services/features"
	"VitaPull/internal/usecase"
	pkgch "VitaPull/pkg/clickhouse"
	"VitaPull/pkg/config"
	xhttp "VitaPull/pkg/http"
	pkgkafka "VitaPull/pkg/kafka"
	applogger "VitaPull/pkg/logger"
	pkgqueue "VitaPull/pkg/queue"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg          *config.Config
	collector    *usecase.SyncCollector
	consumer     *pkgkafka.Consumer
	kh           pkgkafka.MessageHandler
	chClient     *pkgch.Client
	httpServer   *xhttp.Server
	httpHandlers []xhttp.Handler
	queue        *pkgqueue.RedisQueue
	Proc         *usecase.RecordProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.SyncCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandlers allows DI to inject HTTP handlers.
func (a *App) SetHTTPHandlers(hs ...xhttp.Handler) { a.httpHandlers = hs }

// SetRecomputeQueue allows DI to inject the background recompute worker.
func (a *App) SetRecomputeQueue(q *pkgqueue.RedisQueue) { a.queue = q }

type multiHandler []xhttp.Handler

func (m multiHandler) RegisterRoutes(e *echo.Echo) {
	for _, h := range m {
		h.RegisterRoutes(e)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Setup Echo HTTP server using pkg/http and register routes via handlers
	var httpHandler xhttp.Handler
	if len(a.httpHandlers) > 0 {
		httpHandler = multiHandler(a.httpHandlers)
	} else if a.chClient != nil {
		// fallback wiring when DI injected no handlers
		store := repository.NewCHRecordStore(a.chClient)
		store.SetLogger(l)
		pipeline := usecase.NewInsightPipeline(
			store, nil, nil, l,
			analytics.NewEstimator(),
			func(sigma float64) domsvc.AnomalyDetector { return analytics.NewDetector(sigma) },
			func(target string) domsvc.FeatureSynthesizer {
				cfg := features.DefaultConfig()
				cfg.Target = target
				return features.NewSynthesizer(cfg)
			},
			analytics.NewTrainer(analytics.DefaultTrainerConfig()),
		)
		records := usecase.NewRecordsUseCase(store)
		httpHandler = api.NewInsightsEchoHandler(l, pipeline, records, icache.NewTTLCache())
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start sync collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("sync collector error", applogger.Error(err))
		}
	}()
	l.Info("sync collector started",
		applogger.String("interval", a.cfg.Oura.SyncInterval.String()),
		applogger.Int("lookback_days", a.cfg.Oura.LookbackDays))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start recompute worker if configured
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("recompute queue start error", applogger.Error(err))
		} else {
			a.queue.StartRetryProcessor()
			l.Info("recompute queue started")
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + vendor client)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("sync collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop recompute worker
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("recompute queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Close record processor resources (publisher/storage)
	if a.Proc != nil {
		a.Proc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
