package main

import (
	"flag"
	"log"
	"time"

	"pdks-backend/config"
	"pdks-backend/internal/database"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	// Load .env manually since this runs outside the server
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

	opts := database.SeedOptions{
		DeviceSecret: config.GetEnv("SEED_DEVICE_SECRET", "kiosk-dev-secret"),
		Timezone:     cfg.Attendance.Timezone,
		Today:        time.Now().In(cfg.Location()),
	}
	if err := database.SeedAll(db, opts, logger); err != nil {
		logger.Fatal("seeding failed", zap.Error(err))
	}
}
