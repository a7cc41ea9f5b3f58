package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/scholarwatch-api/internal/config"
	"github.com/noah-isme/scholarwatch-api/internal/database"
	"github.com/noah-isme/scholarwatch-api/internal/handler"
	"github.com/noah-isme/scholarwatch-api/internal/middleware"
	"github.com/noah-isme/scholarwatch-api/internal/models"
	"github.com/noah-isme/scholarwatch-api/internal/repository"
	"github.com/noah-isme/scholarwatch-api/internal/router"
	"github.com/noah-isme/scholarwatch-api/internal/scheduler"
	"github.com/noah-isme/scholarwatch-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.Connect(database.Options{
		Driver:          cfg.DatabaseDriver,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DatabaseMaxOpen,
		MaxIdleConns:    cfg.DatabaseMaxIdle,
		ConnMaxLifetime: cfg.DatabaseLifetime,
	})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Foundation{}, &models.PerformanceRule{}, &models.PerformanceRecord{}, &models.PerformanceAlert{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	probes := map[string]handler.HealthProbe{"database": databaseProbe(db)}

	var (
		redisClient  *redis.Client
		limitStorage fiber.Storage
	)
	if cfg.RedisURL != "" {
		connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = database.ConnectRedis(connectCtx, cfg.RedisURL)
		cancel()
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
		limitStorage = middleware.NewRedisStorage(redisClient, cfg.EventChannelBase+":ratelimit:")
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, alert events will use redis only")
		} else {
			defer natsConn.Drain()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	alertRepo := repository.NewPerformanceAlertRepository(db)
	ruleRepo := repository.NewPerformanceRuleRepository(db)
	recordRepo := repository.NewPerformanceRecordRepository(db)
	foundationRepo := repository.NewFoundationRepository(db)

	events := service.NewAlertEventPublisher(redisClient, cfg.EventChannelBase, natsConn)
	alertService := service.NewPerformanceAlertService(alertRepo, ruleRepo, recordRepo, events, validate, service.PerformanceAlertServiceConfig{
		SweepConcurrency: cfg.SweepConcurrency,
		PassingGrade:     cfg.PassingGrade,
	}, logger)
	analyticsService := service.NewAlertAnalyticsService(alertRepo, foundationRepo, cfg.DefaultTimeZone, logger)
	ruleService := service.NewPerformanceRuleService(ruleRepo, validate, logger)
	recordService := service.NewPerformanceRecordService(recordRepo, alertService, validate, logger)

	generateLimiter := middleware.RateLimit("alerts_generate", cfg.GenerateRateLimit, cfg.GenerateWindow, limitStorage)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		PerformanceAlertHandler:  handler.NewPerformanceAlertHandler(alertService, analyticsService, generateLimiter, logger),
		PerformanceRuleHandler:   handler.NewPerformanceRuleHandler(ruleService, logger),
		PerformanceRecordHandler: handler.NewPerformanceRecordHandler(recordService, logger),
		HealthProbes:             probes,
		JWTMiddleware:            middleware.JWTProtected(cfg.JWTSecret),
	})

	var sweeper *scheduler.SweepScheduler
	if cfg.SweepSchedule != "" {
		sweeper, err = scheduler.NewSweepScheduler(cfg.SweepSchedule, ruleRepo, alertService, cfg.SweepTimeout, logger)
		if err != nil {
			log.Fatalf("failed to configure alert sweep: %v", err)
		}
		sweeper.Start()
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, sweeper)
}

func databaseProbe(db *gorm.DB) handler.HealthProbe {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func waitForShutdown(app *fiber.App, sweeper *scheduler.SweepScheduler) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if sweeper != nil {
		sweeper.Stop(ctx)
	}

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
