// Command aggregate finalizes the sessions of one closed day, for backfills
// and reruns after a failed nightly job.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"pdks-backend/config"
	"pdks-backend/internal/lock"
	"pdks-backend/internal/repository"
	"pdks-backend/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	date := flag.String("date", "", "day to aggregate (YYYY-MM-DD), defaults to yesterday")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env not found, using system environment variables.")
	}
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	db, err := config.ConnectDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	settings, err := usecase.SettingsFromConfig(cfg)
	if err != nil {
		logger.Fatal("attendance settings", zap.Error(err))
	}

	// Live punches of the server must see the same locks, so share Redis
	// when the server uses it.
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Attendance.LockTTL, logger)
	}

	aggregator := usecase.NewAggregatorUsecase(usecase.Deps{
		Repo:     repository.NewRepository(db),
		Locker:   locker,
		Settings: settings,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := aggregator.Run(ctx, *date)
	if result != nil {
		logger.Info("aggregation result",
			zap.String("date", result.Date),
			zap.Int("sessions", result.Sessions),
			zap.Int("skipped_punches", result.SkippedPunches),
			zap.Int("failed", result.Failed),
		)
	}
	if err != nil {
		logger.Error("aggregation failed", zap.Error(err))
		os.Exit(1)
	}
}
