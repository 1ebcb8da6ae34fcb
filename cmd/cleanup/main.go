package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	apporder "github.com/ordertrack/backend/internal/application/order"
	"github.com/ordertrack/backend/internal/infrastructure/config"
	"github.com/ordertrack/backend/internal/infrastructure/logger"
	"github.com/ordertrack/backend/internal/infrastructure/persistence"
)

const defaultRetentionDays = 30

func main() {
	var (
		days          int
		storePath     string
		logLevel      string
		orderDateOnly bool
	)

	flag.IntVar(&days, "days", defaultRetentionDays, "Delete order lines older than this many days")
	flag.StringVar(&storePath, "path", "", "Order store file (default: store.path from configuration)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.BoolVar(&orderDateOnly, "order-date-only", false, "Keep lines without an order date instead of falling back to created_at")
	flag.Usage = printUsage
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:  logLevel,
		Format: "console",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if storePath == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal("Failed to load configuration", zap.Error(err))
		}
		storePath = cfg.Store.Path
	}

	repo, err := persistence.NewJSONOrderLineRepository(storePath, persistence.WithRepositoryLogger(log.Named("store")))
	if err != nil {
		log.Fatal("Failed to open order store", zap.String("path", storePath), zap.Error(err))
	}
	service := apporder.NewService(repo, apporder.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deleted, err := service.PurgeOlderThan(ctx, days, !orderDateOnly)
	if err != nil {
		log.Error("Cleanup failed", zap.Int("days", days), zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}

	log.Info("Cleanup completed",
		zap.String("path", storePath),
		zap.Int("days", days),
		zap.Int("deleted", deleted),
	)
}

func printUsage() {
	fmt.Println(`Order store retention cleanup

Usage:
  cleanup [flags]

Flags:`)
	flag.PrintDefaults()
	fmt.Println(`
Examples:
  cleanup                     Delete lines older than 30 days
  cleanup -days 7             Delete lines older than a week
  cleanup -path ./data.json   Clean a specific store file`)
}
