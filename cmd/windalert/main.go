package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tqwind/windalert/internal/alert"
	httpapi "github.com/tqwind/windalert/internal/api/http"
	"github.com/tqwind/windalert/internal/bot"
	"github.com/tqwind/windalert/internal/config"
	"github.com/tqwind/windalert/internal/logging"
	"github.com/tqwind/windalert/internal/metrics"
	"github.com/tqwind/windalert/internal/notify"
	"github.com/tqwind/windalert/internal/scheduler"
	"github.com/tqwind/windalert/internal/stats"
	"github.com/tqwind/windalert/internal/store"
	"github.com/tqwind/windalert/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Dev)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Persistence.
	db, err := store.Open(cfg.SQLitePath)
	if err != nil {
		logger.Fatal("opening store", zap.Error(err))
	}
	readings := store.NewReadingRepository(db)
	alertLog := store.NewAlertLogRepository(db)
	statsRepo := store.NewStatsRepository(db)

	var alertState store.AlertStateRepository
	if cfg.RedisURL != "" {
		redisState, err := store.NewRedisAlertState(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal("connecting redis alert state", zap.Error(err))
		}
		defer redisState.Close()
		alertState = redisState
	} else {
		logger.Info("REDIS_URL not set; using in-process alert state")
		alertState = store.NewMemoryAlertState()
	}

	// Shared HTTP client for outbound API calls.
	httpClient := &http.Client{Timeout: 30 * time.Second}

	source := providers.NewOpenWeatherSource(httpClient, cfg.OpenWeatherAPIKey, cfg.Spot)
	telegram := notify.NewTelegram(httpClient, cfg.TelegramToken)

	counters := stats.New()
	metricsProvider := metrics.NewProvider(cfg.MetricsPort != "")

	alertCfg := alert.Config{
		ThresholdKnots: cfg.ThresholdKnots,
		WindowStart:    cfg.AlertWindowStart,
		WindowEnd:      cfg.AlertWindowEnd,
		Cooldown:       cfg.Cooldown,
		Location:       cfg.Timezone,
	}
	dispatcher := alert.NewDispatcher(
		telegram, cfg.ChatIDs, alertState, alertLog,
		counters, metricsProvider, cfg.Spot, logger.Named("dispatcher"),
	)

	// Periodic worker: weather ticks, daily forecast, stats flush.
	sched := scheduler.New(scheduler.Options{
		Source:        source,
		Readings:      readings,
		State:         alertState,
		Dispatcher:    dispatcher,
		AlertCfg:      alertCfg,
		Counters:      counters,
		StatsSink:     statsRepo,
		Metrics:       metricsProvider,
		Notifier:      telegram,
		ChatIDs:       cfg.ChatIDs,
		Spot:          cfg.Spot,
		CheckInterval: cfg.CheckInterval,
		ForecastTime:  cfg.ForecastTime,
		Timezone:      cfg.Timezone,
	}, logger)
	if err := sched.Start(); err != nil {
		logger.Fatal("starting scheduler", zap.Error(err))
	}
	defer sched.Stop()

	// Bot command loop.
	commandBot := bot.New(
		telegram, source, readings, counters, metricsProvider,
		cfg.Spot, cfg.ChatIDs, cfg.AdminIDs, logger,
	)
	go commandBot.Run(ctx)

	// Dashboard.
	app := fiber.New(fiber.Config{
		AppName:               "windalert",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})
	app.Use(fiberlogger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "windalert",
		})
	})

	httpapi.RegisterRoutes(app, readings, statsRepo, alertLog)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Prometheus scrapes its own listener so the dashboard stack stays
	// independent of the metrics path.
	var metricsSrv *http.Server
	if cfg.MetricsPort != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{Addr: ":" + cfg.MetricsPort, Handler: mux}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("error shutting down metrics server", zap.Error(err))
		}
	}
}
