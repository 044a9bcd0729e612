package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thep200/github-portfolio-sync/cfg"
	"github.com/thep200/github-portfolio-sync/internal/model"
	"github.com/thep200/github-portfolio-sync/pkg/db"
	"github.com/thep200/github-portfolio-sync/pkg/kafka"
	"github.com/thep200/github-portfolio-sync/pkg/log"
)

func main() {
	// Parse command line arguments
	history := flag.Int("history", 0, "Print the latest N stored snapshots of the configured account and exit")
	batchSize := flag.Int("batch", 50, "Number of snapshot events written per transaction")
	flag.Parse()

	// Load configuration
	config, err := loadConfig(func() (cfg.Loader, error) { return cfg.NewViperLoader() })
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger, err := log.NewLoggerFromConfig(config)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	// Setup database
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mysql, err := db.NewMysql(config)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database: %v", err)
		os.Exit(1)
	}
	defer mysql.Close()

	historyModel, _ := model.NewSnapshotHistory(config, logger, mysql)
	if err := mysql.Migrate(historyModel); err != nil {
		logger.Error(ctx, "Failed to migrate snapshot history: %v", err)
		os.Exit(1)
	}

	if *history > 0 {
		printHistory(historyModel, config.GithubApi.Username, *history)
		return
	}

	// Setup signal handling for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	if err := startHistoryConsumer(ctx, config, logger, historyModel, *batchSize); err != nil {
		logger.Error(ctx, "Failed to start consumer: %v", err)
		os.Exit(1)
	}

	// Wait for termination signal
	<-sigCh
	logger.Info(ctx, "Received shutdown signal, gracefully shutting down...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func loadConfig(newLoader func() (cfg.Loader, error)) (*cfg.Config, error) {
	loader, err := newLoader()
	if err != nil {
		return nil, fmt.Errorf("create config loader: %w", err)
	}
	return loader.Load()
}

func startHistoryConsumer(ctx context.Context, config *cfg.Config, logger log.Logger, historyModel *model.SnapshotHistory, batchSize int) error {
	consumer, err := kafka.NewConsumer(config, logger, config.Kafka.Producer.TopicSnapshot, config.Kafka.GroupID)
	if err != nil {
		return err
	}

	// Channel to collect messages for batch processing
	messages := make(chan model.SnapshotMessage, batchSize*2)
	go processBatches(ctx, messages, batchSize, 5*time.Second, func(batch []model.SnapshotMessage) {
		logger.Info(ctx, "Processing batch of %d snapshot events", len(batch))
		if err := historyModel.CreateBatch(batch); err != nil {
			logger.Error(ctx, "Failed to save batch of snapshot events: %v", err)
		}
	})

	consumer.RegisterHandler(kafka.AnyKey, func(ctx context.Context, data []byte) error {
		var msg model.SnapshotMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return fmt.Errorf("failed to unmarshal snapshot message: %w", err)
		}

		select {
		case messages <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})

	go func() {
		if err := consumer.Start(ctx); err != nil {
			logger.Error(ctx, "Snapshot consumer error: %v", err)
		}
	}()

	logger.Info(ctx, "Snapshot history consumer started on %s", config.Kafka.Producer.TopicSnapshot)
	return nil
}

func printHistory(historyModel *model.SnapshotHistory, login string, limit int) {
	rows, err := historyModel.Latest(login, limit)
	if err != nil {
		fmt.Printf("Failed to read history: %v\n", err)
		os.Exit(1)
	}
	for _, row := range rows {
		fmt.Printf("%s  stars=%d forks=%d repos=%d followers=%d pinned=%d tier=%q\n",
			row.CapturedAt.Format(time.RFC3339), row.TotalStars, row.TotalForks,
			row.RepoCount, row.FollowerCount, row.PinnedCount, row.Tier)
	}
}
