package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pdks-backend/config"
	"pdks-backend/internal/lock"
	"pdks-backend/internal/metrics"
	"pdks-backend/internal/notify"
	"pdks-backend/internal/repository"
	"pdks-backend/internal/routes"
	"pdks-backend/internal/scheduler"
	"pdks-backend/internal/storage"
	"pdks-backend/internal/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("PDKS_CONFIG"), "path to config file")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Database
	db, err := config.ConnectDB(cfg.Database, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("get sql.DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 2. Session locks: Redis when several instances share the database
	var locker lock.Locker = lock.NewKeyedMutex()
	if cfg.Redis.Addr != "" {
		rdb, err := lock.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		locker = lock.NewRedisLocker(rdb, cfg.Attendance.LockTTL, logger)
	}

	// 3. Selfie storage
	uploader, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("init storage", zap.Error(err))
	}

	settings, err := usecase.SettingsFromConfig(cfg)
	if err != nil {
		logger.Fatal("attendance settings", zap.Error(err))
	}

	metrics.Init()
	uc := usecase.NewUsecases(usecase.Deps{
		Repo:     repository.NewRepository(db),
		Locker:   locker,
		Uploader: uploader,
		Settings: settings,
		Logger:   logger,
	})

	// 4. Background jobs
	var mailer notify.ReportSender
	if cfg.Mail.Enabled() {
		mailer = notify.NewMailer(cfg.Mail)
	}
	jobs, err := scheduler.New(cfg.Aggregator, cfg.Location(), uc, mailer, logger)
	if err != nil {
		logger.Fatal("init scheduler", zap.Error(err))
	}
	jobs.Start()
	defer jobs.Stop()

	// 5. HTTP
	app := routes.NewApp(logger, cfg.Server.AllowOrigins)

	uploadDir := ""
	if cfg.Storage.Driver == "local" {
		uploadDir = cfg.Storage.LocalDir
	}
	routes.SetupSystemRoutes(app, sqlDB.PingContext, cfg.Storage.PublicBaseURL, uploadDir)
	routes.SetupKioskRoutes(app, uc)
	routes.SetupSessionRoutes(app, uc)
	routes.SetupAdminRoutes(app, uc)
	routes.SetupReportRoutes(app, uc)
	routes.SetupDashboardRoutes(app, uc)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("server listening", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
